package types

import (
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
)

// Settings document keys that have grown typed accessors over time. The
// document itself stays schema-less; unknown keys round-trip untouched.
const (
	settingsKeyAlias        = "alias"
	settingsKeyLogChannel   = "logchan"
	settingsKeyWelcomeChan  = "welcomechan"
	settingsKeyGoodbyeChan  = "goodbyechan"
)

// SettingsDoc is the opaque per-guild configuration document stored in the
// guild_settings config column. The document shape has changed repeatedly,
// so values are kept raw and decoded per key on access.
type SettingsDoc map[string]json.RawMessage

// NewSettingsDoc returns an empty settings document.
func NewSettingsDoc() SettingsDoc {
	return SettingsDoc{}
}

// LogChannelConfig configures where and whether moderation events are logged.
type LogChannelConfig struct {
	Enabled   bool         `json:"enabled"`
	ChannelID snowflake.ID `json:"channel_id"`
}

func (d SettingsDoc) get(key string, v any) bool {
	raw, ok := d[key]
	if !ok {
		return false
	}
	return sonic.Unmarshal(raw, v) == nil
}

func (d SettingsDoc) set(key string, v any) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	d[key] = raw
	return nil
}

// Alias returns the configured bot nickname for the guild, if any.
func (d SettingsDoc) Alias() (string, bool) {
	var alias string
	ok := d.get(settingsKeyAlias, &alias)
	return alias, ok
}

// SetAlias stores the bot nickname for the guild.
func (d SettingsDoc) SetAlias(alias string) error {
	return d.set(settingsKeyAlias, alias)
}

// LogChannel returns the moderation log channel configuration, if set.
func (d SettingsDoc) LogChannel() (*LogChannelConfig, bool) {
	var cfg LogChannelConfig
	if !d.get(settingsKeyLogChannel, &cfg) {
		return nil, false
	}
	return &cfg, true
}

// SetLogChannel stores the moderation log channel configuration.
func (d SettingsDoc) SetLogChannel(cfg *LogChannelConfig) error {
	return d.set(settingsKeyLogChannel, cfg)
}

// WelcomeChannel returns the welcome message channel, if set.
func (d SettingsDoc) WelcomeChannel() (snowflake.ID, bool) {
	var id snowflake.ID
	ok := d.get(settingsKeyWelcomeChan, &id)
	return id, ok
}

// SetWelcomeChannel stores the welcome message channel.
func (d SettingsDoc) SetWelcomeChannel(id snowflake.ID) error {
	return d.set(settingsKeyWelcomeChan, id)
}

// GoodbyeChannel returns the goodbye message channel, if set.
func (d SettingsDoc) GoodbyeChannel() (snowflake.ID, bool) {
	var id snowflake.ID
	ok := d.get(settingsKeyGoodbyeChan, &id)
	return id, ok
}

// SetGoodbyeChannel stores the goodbye message channel.
func (d SettingsDoc) SetGoodbyeChannel(id snowflake.ID) error {
	return d.set(settingsKeyGoodbyeChan, id)
}

// Delete removes a key from the document.
func (d SettingsDoc) Delete(key string) {
	delete(d, key)
}

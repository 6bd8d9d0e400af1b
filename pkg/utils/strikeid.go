package utils

import (
	"math/rand/v2"
	"strings"
)

// StrikeIDLength is the number of hex characters in a generated strike ID.
const StrikeIDLength = 4

const hexDigits = "0123456789abcdef"

// GenerateStrikeID returns a short random hex identifier for a new strike.
// Uniqueness is only required within a single (guild, user) pair, so a short
// ID keeps strikes easy to reference in moderation commands; a collision is
// caught by the unique constraint on insert.
func GenerateStrikeID() string {
	var b strings.Builder
	b.Grow(StrikeIDLength)
	for range StrikeIDLength {
		b.WriteByte(hexDigits[rand.IntN(len(hexDigits))])
	}
	return b.String()
}

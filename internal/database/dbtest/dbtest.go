// Package dbtest provides an in-memory SQLite backend for database tests.
// Production runs on PostgreSQL; the schema here mirrors the real
// migrations so model behavior can be exercised without a server.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/kiyoko-project/kiyoko/internal/database"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"
)

// New creates an isolated in-memory database with the full schema applied.
// The single connection makes SQLite serialize concurrent transactions the
// way row locks would on PostgreSQL.
func New(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	models := []any{
		(*types.Guild)(nil),
		(*types.GuildSettings)(nil),
		(*types.CommandInfo)(nil),
		(*types.StrikeEntry)(nil),
		(*types.StrikeConfig)(nil),
	}
	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

// testClient implements database.Client over an in-memory database.
type testClient struct {
	db      *bun.DB
	repo    *database.Repository
	service *database.Service
}

// NewClient wires a full database client around an in-memory database. The
// redis client may be nil for tests that never touch the settings cache.
func NewClient(t *testing.T, redisClient rueidis.Client) database.Client {
	t.Helper()

	db := New(t)
	logger := zap.NewNop()
	repo := database.NewRepository(db, logger)

	return &testClient{
		db:      db,
		repo:    repo,
		service: database.NewService(db, repo, redisClient, logger),
	}
}

func (c *testClient) Model() *database.Repository { return c.repo }
func (c *testClient) Service() *database.Service  { return c.service }
func (c *testClient) DB() *bun.DB                 { return c.db }
func (c *testClient) Close() error                { return c.db.Close() }

package migrate_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/migrate"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	fsys, dir := migrate.Runner{}.Source()
	require.NoError(t, migrate.Validate(fsys, dir))

	files, err := fs.Glob(fsys, dir+"/*.sql")
	require.NoError(t, err)
	onDisk, err := filepath.Glob("migrations/*.sql")
	require.NoError(t, err)
	assert.Len(t, files, len(onDisk))
}

func TestMigrationsCarryInvariants(t *testing.T) {
	cases := map[string][]string{
		"*_create_catalog_tables.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"CHECK (stock >= 0)",
			"CREATE UNIQUE INDEX IF NOT EXISTS categories_slug_key",
		},
		"*_create_carts_tables.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS carts_user_id_key",
			"CREATE UNIQUE INDEX IF NOT EXISTS cart_items_cart_product_key",
		},
		"*_create_payments_table.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS payments_order_id_key",
			"DROP TABLE IF EXISTS payments",
		},
		"*_create_users_tables.sql": {
			"addresses_one_default_per_user",
		},
		"*_create_counters_table.sql": {
			"('order', 0), ('payment', 0)",
		},
	}

	for pattern, checks := range cases {
		t.Run(pattern, func(t *testing.T) {
			matches, err := filepath.Glob(filepath.Join("migrations", pattern))
			require.NoError(t, err)
			require.Len(t, matches, 1)
			data, err := os.ReadFile(matches[0])
			require.NoError(t, err)
			for _, sub := range checks {
				assert.Contains(t, string(data), sub)
			}
		})
	}
}

func TestCreateSanitizesName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

	path, err := migrate.Create(dir, "Add Coupon Usage!", now)
	require.NoError(t, err)
	assert.Equal(t, "20261001093000_add_coupon_usage.sql", filepath.Base(path))
	assert.NoError(t, migrate.Validate(nil, dir))

	_, err = migrate.Create(dir, "add coupon usage", now)
	assert.Error(t, err, "same version must not overwrite")

	_, err = migrate.Create(dir, "!!!", now)
	assert.Error(t, err)
}

func TestValidateRejectsBadFiles(t *testing.T) {
	cases := map[string]map[string]string{
		"bad name":     {"001_init.sql": "-- +goose Up\n-- +goose Down\n"},
		"missing down": {"20260101000000_init.sql": "-- +goose Up\n"},
		"duplicate": {
			"20260101000000_a.sql": "-- +goose Up\n-- +goose Down\n",
			"20260101000000_b.sql": "-- +goose Up\n-- +goose Down\n",
		},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for file, body := range files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
			}
			assert.Error(t, migrate.Validate(nil, dir))
		})
	}
}

func TestRunnerSQLiteSeedsCounters(t *testing.T) {
	client, err := db.New(context.Background(), dbConfig(t), true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	runner := migrate.Runner{Client: client, SQLite: true}
	require.NoError(t, runner.Run(context.Background(), migrate.CmdUp, ""))
	require.NoError(t, runner.Run(context.Background(), migrate.CmdUp, ""))

	var n int64
	require.NoError(t, client.DB().Model(&models.Counter{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	assert.Error(t, runner.Run(context.Background(), migrate.CmdDown, ""))
}

func TestParseCommand(t *testing.T) {
	cmd, err := migrate.ParseCommand("status")
	require.NoError(t, err)
	assert.True(t, cmd.NeedsDB())

	cmd, err = migrate.ParseCommand("create")
	require.NoError(t, err)
	assert.False(t, cmd.NeedsDB())

	_, err = migrate.ParseCommand("redo")
	assert.Error(t, err)
}

func dbConfig(t *testing.T) config.DBConfig {
	return config.DBConfig{DSN: "file:" + t.Name() + "?mode=memory&cache=shared", MaxOpenConns: 1}
}

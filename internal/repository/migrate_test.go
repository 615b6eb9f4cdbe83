package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openBareSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestMigrate_PostgresRunsGoose(t *testing.T) {
	db := openBareSQLite(t)

	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, Migrate(context.Background(), db, "postgres"))
	assert.Equal(t, ".", gotDir)
}

func TestMigrate_PostgresGooseError(t *testing.T) {
	db := openBareSQLite(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := Migrate(context.Background(), db, "postgres")
	assert.ErrorContains(t, err, "run migrations")
}

func TestMigrate_SQLiteAutoMigrates(t *testing.T) {
	db := openBareSQLite(t)
	require.NoError(t, Migrate(context.Background(), db, "sqlite"))

	for _, table := range []string{"users", "pending_activations", "challenges"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	db := openBareSQLite(t)
	assert.Error(t, Migrate(context.Background(), db, "mysql"))
}

func TestRunMigrationCommand(t *testing.T) {
	db, err := openBareSQLite(t).DB()
	require.NoError(t, err)

	var gotCommand string
	var gotArgs []string
	orig := gooseRunContext
	gooseRunContext = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		gotArgs = args
		if command == "down-to" {
			return errors.New("no such version")
		}
		return nil
	}
	defer func() { gooseRunContext = orig }()

	require.NoError(t, RunMigrationCommand(context.Background(), db, "status"))
	assert.Equal(t, "status", gotCommand)

	err = RunMigrationCommand(context.Background(), db, "down-to", "7")
	assert.ErrorContains(t, err, "goose down-to")
	assert.Equal(t, []string{"7"}, gotArgs)
}

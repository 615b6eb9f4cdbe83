package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gigster_auth/internal/model"
	"gigster_auth/internal/repository/migrations"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseRunContext is a seam for testing goose.RunContext.
var gooseRunContext = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
	return goose.RunContext(ctx, command, db, dir, args...)
}

// Migrate brings the schema up to date. Postgres runs the embedded goose
// migrations; sqlite, used for local runs and tests, is auto-migrated from
// the models.
func Migrate(ctx context.Context, db *gorm.DB, driver string) error {
	switch driver {
	case "postgres":
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		if err := gooseUpContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	case "sqlite":
		if err := db.WithContext(ctx).AutoMigrate(&model.User{}, &model.PendingActivation{}, &model.Challenge{}); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
}

// RunMigrationCommand runs a goose command (up, down, status, version, redo,
// reset) against a postgres database using the embedded migrations.
func RunMigrationCommand(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseRunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

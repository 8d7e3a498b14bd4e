// Package migrate owns the schema: goose migrations for postgres and gorm
// AutoMigrate for the local sqlite mode.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

//go:embed migrations/*.sql
var embedded embed.FS

// DefaultDir is where `create` writes new files, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

// Command is a migrate subcommand.
type Command string

const (
	CmdUp       Command = "up"
	CmdDown     Command = "down"
	CmdStatus   Command = "status"
	CmdVersion  Command = "version"
	CmdCreate   Command = "create"
	CmdValidate Command = "validate"
)

func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CmdUp, CmdDown, CmdStatus, CmdVersion, CmdCreate, CmdValidate:
		return c, nil
	}
	return "", fmt.Errorf("unknown migrate command %q", s)
}

// NeedsDB reports whether the command talks to the database.
func (c Command) NeedsDB() bool {
	return c != CmdCreate && c != CmdValidate
}

// Runner applies migrations against one database. An empty Dir reads the
// migrations compiled into the binary.
type Runner struct {
	Client *db.Client
	SQLite bool
	Dir    string
	Logger *logger.Logger
}

// Source returns the filesystem and directory migrations are read from.
func (r Runner) Source() (fs.FS, string) {
	if r.Dir == "" {
		return embedded, embeddedDir
	}
	return nil, r.Dir
}

// Run executes cmd. target is the goose version for CmdVersion.
func (r Runner) Run(ctx context.Context, cmd Command, target string) error {
	if r.Client == nil {
		return errors.New("database client is required")
	}
	if r.SQLite {
		if cmd != CmdUp {
			return fmt.Errorf("sqlite mode only supports %s", CmdUp)
		}
		return r.autoMigrate(ctx)
	}

	sqlDB, err := r.Client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	fsys, dir := r.Source()
	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{ctx: ctx, logg: r.Logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if cmd != CmdVersion {
		if err := goose.RunContext(ctx, string(cmd), sqlDB, dir); err != nil {
			return fmt.Errorf("goose %s: %w", cmd, err)
		}
		return nil
	}

	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (want YYYYMMDDHHMMSS): %w", target, err)
	}
	current, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("current version: %w", err)
	}
	switch {
	case current < version:
		err = goose.UpToContext(ctx, sqlDB, dir, version)
	case current > version:
		err = goose.DownToContext(ctx, sqlDB, dir, version)
	}
	if err != nil {
		return fmt.Errorf("goose %d -> %d: %w", current, version, err)
	}
	return nil
}

func (r Runner) autoMigrate(ctx context.Context) error {
	if err := r.Client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("sqlite automigrate: %w", err)
	}
	return SeedCounters(ctx, r.Client)
}

// SeedCounters makes sure the order and payment sequences exist.
func SeedCounters(ctx context.Context, client *db.Client) error {
	for _, name := range []string{"order", "payment"} {
		err := client.DB().WithContext(ctx).
			Where(models.Counter{Name: name}).
			FirstOrCreate(&models.Counter{Name: name}).Error
		if err != nil {
			return fmt.Errorf("seed counter %s: %w", name, err)
		}
	}
	return nil
}

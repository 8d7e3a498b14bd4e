package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	var (
		cmdFlag = flag.String("cmd", "up", "up|down|status|version|create|validate")
		dir     = flag.String("dir", "", "migrations directory; empty uses the set compiled into the binary")
		name    = flag.String("name", "", "migration name for -cmd=create")
		version = flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	)
	flag.Parse()

	cmd, err := migrate.ParseCommand(*cmdFlag)
	requireResource(ctx, logg, "command", err)

	ctx = logg.WithFields(ctx, map[string]any{"cmd": string(cmd), "dir": *dir})

	switch cmd {
	case migrate.CmdCreate:
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.Create(target, *name, time.Now())
		requireResource(ctx, logg, "new migration", err)
		fmt.Println("created", path)
		return
	case migrate.CmdValidate:
		fsys, src := migrate.Runner{Dir: *dir}.Source()
		requireResource(ctx, logg, "migrations", migrate.Validate(fsys, src))
		logg.Info(ctx, "migrate.valid")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	logg = logger.FromApp("migrate", cfg.App)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	runner := migrate.Runner{
		Client: dbClient,
		SQLite: cfg.FeatureFlags.UseSQLite,
		Dir:    *dir,
		Logger: logg,
	}
	started := time.Now()
	requireResource(ctx, logg, "migration "+string(cmd), runner.Run(ctx, cmd, *version))
	logg.Info(logg.WithField(ctx, "elapsed_ms", time.Since(started).Milliseconds()), "migrate.done")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

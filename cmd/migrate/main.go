package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	migrate "github.com/golang-migrate/migrate/v4"

	"github.com/noah-isme/backend-invoice/internal/app"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/db"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to apply (negative rolls back); 0 applies all pending")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-steps N] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, _ := app.NewLogger(cfg, "migrate")

	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Error().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
	}()

	cmd := flag.Arg(0)
	switch cmd {
	case "", "up":
		if *steps != 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps == 0 {
			*steps = 1
		}
		err = m.Steps(-*steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logger.Fatal().Err(verr).Msg("read version")
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
		return
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err := db.IgnoreNoChange(err); err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("migrate")
	}
	logger.Info().Str("command", cmd).Msg("migrations applied")
}

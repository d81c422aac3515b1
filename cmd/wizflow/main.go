package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/subcommands"

	"github.com/jask/wizflow/internal/config"
	"github.com/jask/wizflow/internal/logging"
)

var dbPath = flag.String("db", "", "Path to the database file. Overrides database.path from the config.")

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&initCmd{}, "setup")
	c.Register(&demoCmd{}, "setup")
	c.Register(&resetCmd{}, "setup")

	c.Register(&accountsCmd{}, "accounts")
	c.Register(&accountAddCmd{}, "accounts")
	c.Register(&accountEditCmd{}, "accounts")
	c.Register(&accountArchiveCmd{}, "accounts")
	c.Register(&accountDeleteCmd{}, "accounts")

	c.Register(&categoriesCmd{}, "categories")
	c.Register(&categoryAddCmd{}, "categories")
	c.Register(&categoryDeleteCmd{}, "categories")

	c.Register(&addCmd{}, "transactions")
	c.Register(&transferCmd{}, "transactions")
	c.Register(&editCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&listCmd{}, "transactions")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&seriesCmd{}, "reports")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&backupCmd{}, "data")
	c.Register(&restoreCmd{}, "data")
	c.Register(&settingsCmd{}, "data")
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "wizflow")
	register(commander)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	a := newApp(cfg, logging.New(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx, a)
	stop()
	if err := a.handle.Close(); err != nil {
		a.logger.Error("close db", "error", err)
	}
	os.Exit(int(status))
}

package main

import (
	"context"
	"flag"
	"math/rand"

	"github.com/google/subcommands"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/config"
	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/testdata"
)

type initCmd struct {
	writeConfig bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create or upgrade the database" }
func (*initCmd) Usage() string {
	return `wizflow init [-write-config]

  Applies pending migrations and seeds the default account and categories. With
  -write-config the effective configuration is saved to the config file.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.writeConfig, "write-config", false, "Save the effective configuration.")
}

func (c *initCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		if c.writeConfig {
			if err := config.Save(a.cfg); err != nil {
				return err
			}
			a.printf("Wrote %s\n", config.File())
		}
		v, dirty, err := database.SchemaVersion(ctx, s.db)
		if err != nil {
			return err
		}
		a.printf("Database %s at schema version %d", a.handle.Path(), v)
		if dirty {
			a.printf(" %s", warnStyle.Render("(dirty)"))
		}
		a.printf("\n")
		return nil
	})
}

type demoCmd struct {
	seed int64
}

func (*demoCmd) Name() string     { return "demo" }
func (*demoCmd) Synopsis() string { return "add sample accounts and transactions" }
func (*demoCmd) Usage() string {
	return `wizflow demo [-seed n]
`
}

func (c *demoCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.seed, "seed", 0, "Random seed. 0 picks one from the clock.")
}

func (c *demoCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		seed := c.seed
		if seed == 0 {
			seed = a.now().UnixNano()
		}
		repos := testdata.Repos{Accounts: s.accounts, Ledger: s.ledger}
		if err := testdata.Seed(ctx, repos, a.now(), rand.New(rand.NewSource(seed))); err != nil {
			return err
		}
		a.printf("Added demo data\n")
		return nil
	})
}

type resetCmd struct {
	yes    bool
	schema bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete all data" }
func (*resetCmd) Usage() string {
	return `wizflow reset -yes [-schema]

  Deletes every row. With -schema the tables are dropped and recreated. Defaults are
  seeded again on the next command.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm deleting everything.")
	f.BoolVar(&c.schema, "schema", false, "Drop and recreate the schema.")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		if !c.yes {
			return apperrors.Validation("reset deletes all data; pass -yes to confirm")
		}
		if c.schema {
			if err := s.maintenance.ResetSchema(ctx); err != nil {
				return err
			}
			a.printf("Schema recreated\n")
			return nil
		}
		removed, err := s.maintenance.WipeData(ctx)
		if err != nil {
			return err
		}
		a.printf("Deleted %d transactions, %d accounts and %d categories\n",
			removed["transactions"], removed["accounts"], removed["categories"])
		return nil
	})
}

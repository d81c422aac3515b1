package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/google/subcommands"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/prefs"
	"github.com/jask/wizflow/internal/service"
)

// output opens path for writing, or returns a.out for "" and "-".
func (a *app) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

type exportCmd struct {
	what string
	out  string
	from string
	to   string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write transactions or accounts as CSV" }
func (*exportCmd) Usage() string {
	return `wizflow export [-what transactions|accounts] [-o file.csv] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.what, "what", "transactions", "transactions or accounts.")
	f.StringVar(&c.out, "o", "", "Output file. Defaults to stdout.")
	f.StringVar(&c.from, "from", "", "First day, inclusive. Transactions only.")
	f.StringVar(&c.to, "to", "", "Last day, inclusive. Transactions only.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		if c.what != "transactions" && c.what != "accounts" {
			return apperrors.Validation("-what must be transactions or accounts")
		}
		r, err := a.dayRange(c.from, c.to)
		if err != nil {
			return err
		}
		w, closeFn, err := a.output(c.out)
		if err != nil {
			return err
		}
		var n int
		if c.what == "accounts" {
			n, err = s.ingest.ExportAccountsCSV(ctx, w)
		} else {
			n, err = s.ingest.ExportTransactionsCSV(ctx, w, r)
		}
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if c.out != "" && c.out != "-" {
			a.printf("Exported %d %s to %s\n", n, c.what, c.out)
		}
		return nil
	})
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from CSV" }
func (*importCmd) Usage() string {
	return `wizflow import <file.csv>

  Columns: Date, Title, Type, Account, Category, Amount and optionally Note. Accounts and
  categories must already exist; rows naming unknown ones are skipped.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		if f.NArg() != 1 {
			return apperrors.Validation("expected one CSV file")
		}
		file, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer file.Close()
		res, err := s.ingest.ImportCSV(ctx, file)
		if err != nil {
			return err
		}
		a.printf("Imported %d transactions\n", res.Imported)
		for _, sk := range res.Skipped {
			msg := fmt.Sprintf("line %d: %s", sk.Line, sk.Reason)
			if sk.Suggestion != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", sk.Suggestion)
			}
			a.printf("%s\n", warnStyle.Render(msg))
		}
		for _, e := range res.Errors {
			a.printf("%s\n", errorStyle.Render(e.Error()))
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d rows failed", len(res.Errors))
		}
		return nil
	})
}

type backupCmd struct {
	out string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write a full JSON backup" }
func (*backupCmd) Usage() string {
	return `wizflow backup [-o file.json]
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "Output file. Defaults to wizflow-backup-<date>.json.")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		b, err := s.backup.Create(ctx)
		if err != nil {
			return err
		}
		path := c.out
		if path == "" {
			path = "wizflow-backup-" + b.CreatedAt.Format("2006-01-02") + ".json"
		}
		w, closeFn, err := a.output(path)
		if err != nil {
			return err
		}
		err = b.Write(w)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if err := s.backup.MarkBackedUp(ctx, b); err != nil {
			return err
		}
		if path != "-" {
			a.printf("Backed up %d accounts and %d transactions to %s\n", len(b.Data.Accounts), len(b.Data.Transactions), path)
		}
		return nil
	})
}

type restoreCmd struct {
	yes bool
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace all data with a JSON backup" }
func (*restoreCmd) Usage() string {
	return `wizflow restore -yes <file.json>

  Drops the current data, rebuilds the schema and loads the backup.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm overwriting the current data.")
}

func (c *restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		if f.NArg() != 1 {
			return apperrors.Validation("expected one backup file")
		}
		if !c.yes {
			return apperrors.Validation("restore replaces all data; pass -yes to confirm")
		}
		file, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer file.Close()
		b, err := service.ReadBackup(file)
		if err != nil {
			return err
		}
		if err := s.backup.Restore(ctx, b); err != nil {
			return err
		}
		a.printf("Restored %d accounts, %d categories and %d transactions\n",
			len(b.Data.Accounts), len(b.Data.Categories), len(b.Data.Transactions))
		return nil
	})
}

type settingsCmd struct{}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change preferences" }
func (*settingsCmd) Usage() string {
	return `wizflow settings
wizflow settings <key> <value>

  Keys: theme, currency, dateFormat, defaultAccountId, firstDayOfWeek.
`
}

func (*settingsCmd) SetFlags(*flag.FlagSet) {}

func (*settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		switch f.NArg() {
		case 0:
		case 2:
			if err := prefs.Set(ctx, s.settings, f.Arg(0), f.Arg(1)); err != nil {
				return err
			}
			p, err := prefs.Load(ctx, s.settings)
			if err != nil {
				return err
			}
			s.prefs = p
		default:
			return apperrors.Validation("expected no arguments or a key and a value")
		}
		p := s.prefs
		values := map[string]string{
			prefs.KeyTheme:          string(p.Theme),
			prefs.KeyCurrency:       p.Currency,
			prefs.KeyCurrencySymbol: p.CurrencySymbol,
			prefs.KeyDateFormat:     p.DateFormat,
			prefs.KeyFirstDayOfWeek: strconv.Itoa(p.FirstDayOfWeek),
			prefs.KeyDefaultAccountID: "-",
			prefs.KeyLastBackupDate: "never",
		}
		if p.DefaultAccountID != nil {
			values[prefs.KeyDefaultAccountID] = strconv.FormatInt(*p.DefaultAccountID, 10)
		}
		if p.LastBackupDate != nil {
			values[prefs.KeyLastBackupDate] = p.LastBackupDate.In(a.loc).Format("2006-01-02 15:04")
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, values[k]})
		}
		a.printf("%s\n%s", headingStyle.Render("Settings"), table([]string{"Key", "Value"}, rows))
		return nil
	})
}

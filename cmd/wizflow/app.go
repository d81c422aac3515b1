package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/config"
	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/database/repository"
	"github.com/jask/wizflow/internal/prefs"
	"github.com/jask/wizflow/internal/service"
)

// app carries process-wide state into every subcommand.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	handle *database.Handle
	loc    *time.Location
	now    func() time.Time
	out    io.Writer
	errOut io.Writer
}

// services is the wired object graph for one invocation.
type services struct {
	db           *sql.DB
	accounts     *repository.AccountRepo
	categories   *repository.CategoryRepo
	transactions *repository.TransactionRepo
	settings     *repository.SettingsRepo
	ledger       *service.LedgerService
	analytics    *service.AnalyticsService
	ingest       *service.IngestService
	backup       *service.BackupService
	maintenance  *service.MaintenanceService
	prefs        prefs.Prefs
}

func newApp(cfg config.Config, logger *slog.Logger) *app {
	loc := time.Local
	if tz := cfg.Locale.Timezone; tz != "" && tz != "Local" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logger.Warn("using local timezone", "timezone", tz, "error", err)
		} else {
			loc = l
		}
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		handle: database.NewHandle(cfg.Database.Path),
		loc:    loc,
		now:    time.Now,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

// open migrates and seeds the database and wires the services.
func (a *app) open(ctx context.Context) (*services, error) {
	if err := os.MkdirAll(filepath.Dir(a.handle.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := a.handle.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, err
	}
	if err := database.SeedDefaults(ctx, db, a.cfg.Locale.DefaultCurrency); err != nil {
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	base := service.BaseService{Logger: a.logger}
	s := &services{
		db:           db,
		accounts:     repository.NewAccountRepo(db),
		categories:   repository.NewCategoryRepo(db),
		transactions: repository.NewTransactionRepo(db),
		settings:     repository.NewSettingsRepo(db),
	}
	s.ledger = &service.LedgerService{BaseService: base, DB: db}
	s.analytics = &service.AnalyticsService{BaseService: base, Transactions: s.transactions, Location: a.loc, Now: a.now}
	s.ingest = &service.IngestService{
		BaseService: base, Ledger: s.ledger, Accounts: s.accounts, Categories: s.categories,
		Transactions: s.transactions, Location: a.loc,
	}
	s.backup = &service.BackupService{BaseService: base, DB: db, Now: a.now}
	s.maintenance = &service.MaintenanceService{BaseService: base, DB: db}
	if s.prefs, err = prefs.Load(ctx, s.settings); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail reports err and picks the exit status. Consistency failures are never presented as
// retryable.
func (a *app) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(a.errOut, errorStyle.Render("error:"), err)
	var ce *apperrors.ConsistencyError
	switch {
	case errors.As(err, &ce):
		fmt.Fprintln(a.errOut, warnStyle.Render(fmt.Sprintf(
			"ledger consistency failure (incident %s). The change was not saved; do not retry before checking account %d.",
			ce.IncidentID, ce.AccountID)))
		return subcommands.ExitFailure
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrNotFound):
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func appFrom(args []interface{}) *app {
	return args[0].(*app)
}

// runOpen opens the services and runs fn, mapping errors to an exit status.
func runOpen(ctx context.Context, args []interface{}, fn func(a *app, s *services) error) subcommands.ExitStatus {
	a := appFrom(args)
	s, err := a.open(ctx)
	if err != nil {
		return a.fail(err)
	}
	if err := fn(a, s); err != nil {
		return a.fail(err)
	}
	return subcommands.ExitSuccess
}

// resolveAccount accepts an account id or exact name. An empty ref means the default account
// preference.
func (s *services) resolveAccount(ctx context.Context, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if s.prefs.DefaultAccountID == nil {
			return 0, apperrors.Validation("no account given and no default account set")
		}
		ref = strconv.FormatInt(*s.prefs.DefaultAccountID, 10)
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		a, err := s.accounts.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		if a == nil {
			return 0, fmt.Errorf("account %d: %w", id, apperrors.ErrNotFound)
		}
		return id, nil
	}
	all, err := s.accounts.List(ctx, repository.AccountFilters{IncludeArchived: true})
	if err != nil {
		return 0, err
	}
	for _, a := range all {
		if a.Name == ref {
			return a.ID, nil
		}
	}
	return 0, fmt.Errorf("account %q: %w", ref, apperrors.ErrNotFound)
}

// parseAmount reads a non-negative decimal amount.
func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, apperrors.Validation("amount %q", s)
	}
	if d.IsNegative() {
		return 0, apperrors.Validation("amount must not be negative")
	}
	return d.InexactFloat64(), nil
}

// parseDate accepts YYYY-MM-DD in loc or an RFC 3339 timestamp. Empty means now.
func (a *app) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return a.now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, a.loc); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperrors.Validation("date %q: want YYYY-MM-DD", s)
}

// dayRange turns optional from/to dates into an inclusive range covering whole days. A zero
// bound is open.
func (a *app) dayRange(from, to string) (*service.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	r := &service.DateRange{}
	if from != "" {
		t, err := a.parseDate(from)
		if err != nil {
			return nil, err
		}
		r.Start = t
	}
	if to != "" {
		t, err := a.parseDate(to)
		if err != nil {
			return nil, err
		}
		r.End = t.In(a.loc).AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return r, nil
}

// parseID reads the single positional id argument.
func parseID(f *flag.FlagSet) (int64, error) {
	if f.NArg() != 1 {
		return 0, apperrors.Validation("expected exactly one id argument")
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("id %q", f.Arg(0))
	}
	return id, nil
}

// visited reports which flags were set on the command line.
func visited(f *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// parseSignedAmount reads a decimal amount that may be negative.
func parseSignedAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, apperrors.Validation("amount %q", s)
	}
	return d.InexactFloat64(), nil
}

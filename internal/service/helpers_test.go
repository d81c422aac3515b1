package service

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/database/repository"
)

type testEnv struct {
	ctx    context.Context
	db     *sql.DB
	logs   *bytes.Buffer
	base   BaseService
	ledger *LedgerService
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))

	logs := &bytes.Buffer{}
	base := BaseService{Logger: slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	return &testEnv{ctx: ctx, db: db, logs: logs, base: base, ledger: &LedgerService{BaseService: base, DB: db}}
}

func (e *testEnv) account(t *testing.T, name string, balance float64) int64 {
	t.Helper()
	id, err := repository.NewAccountRepo(e.db).Create(e.ctx, repository.NewAccount{
		Name: name, Balance: balance, Currency: "USD", Icon: "wallet", Color: "#4CAF50", Type: repository.AccountBank,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) balance(t *testing.T, id int64) float64 {
	t.Helper()
	a, err := repository.NewAccountRepo(e.db).Get(e.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a.Balance
}

func (e *testEnv) post(t *testing.T, in repository.NewTransaction) int64 {
	t.Helper()
	if in.Date.IsZero() {
		in.Date = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	}
	if in.Title == "" {
		in.Title = "test"
	}
	if in.Category == "" {
		in.Category = "Other"
		if in.Type == repository.TransactionTransfer {
			in.Category = repository.TransferCategory
		}
	}
	id, err := e.ledger.CreateTransaction(e.ctx, in)
	require.NoError(t, err)
	return id
}

func (e *testEnv) countTransactions(t *testing.T) int {
	t.Helper()
	n, err := repository.NewTransactionRepo(e.db).Count(e.ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	return n
}

func ptr[T any](v T) *T { return &v }

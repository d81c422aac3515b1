package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/database/repository"
)

func setupRepoTest(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return db, ctx
}

func createAccount(t *testing.T, ctx context.Context, db *sql.DB, name string, balance float64) int64 {
	t.Helper()
	id, err := repository.NewAccountRepo(db).Create(ctx, repository.NewAccount{
		Name: name, Balance: balance, Currency: "USD", Icon: "wallet", Color: "#4CAF50", Type: repository.AccountBank,
	})
	require.NoError(t, err)
	return id
}

func ptr[T any](v T) *T { return &v }

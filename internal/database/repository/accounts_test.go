package repository_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database/repository"
)

func TestAccountCreateGetList(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewAccountRepo(db)

	checking := createAccount(t, ctx, db, "Checking", 10)
	savings := createAccount(t, ctx, db, "Savings", 0)

	got, err := repo.Get(ctx, checking)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, 10.0, got.Balance)
	assert.False(t, bool(got.IsArchived))
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := repo.Get(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.List(ctx, repository.AccountFilters{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, savings, list[0].ID, "newest first")
}

func TestAccountCreateValidation(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewAccountRepo(db)

	tests := []struct {
		name string
		in   repository.NewAccount
	}{
		{"missing name", repository.NewAccount{Currency: "USD", Icon: "i", Color: "c", Type: repository.AccountCash}},
		{"bad type", repository.NewAccount{Name: "x", Currency: "USD", Icon: "i", Color: "c", Type: "loan"}},
		{"bad currency", repository.NewAccount{Name: "x", Currency: "usd", Icon: "i", Color: "c", Type: repository.AccountCash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.in)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	list, err := repo.List(ctx, repository.AccountFilters{IncludeArchived: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAccountPartialUpdate(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewAccountRepo(db)
	id := createAccount(t, ctx, db, "Wallet", 5)

	require.NoError(t, repo.Update(ctx, id, repository.AccountPatch{Name: ptr("Pocket")}))
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Pocket", got.Name)
	assert.Equal(t, 5.0, got.Balance)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "wallet", got.Icon)

	require.NoError(t, repo.Update(ctx, id, repository.AccountPatch{}))
	err = repo.Update(ctx, id, repository.AccountPatch{Name: ptr("")})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAccountArchiveExcludesFromActiveAndTotal(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewAccountRepo(db)
	a := createAccount(t, ctx, db, "A", 100)
	b := createAccount(t, ctx, db, "B", 25.5)

	total, err := repo.TotalBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 125.5, total)

	require.NoError(t, repo.Archive(ctx, b))
	active, err := repo.List(ctx, repository.AccountFilters{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a, active[0].ID)

	all, err := repo.List(ctx, repository.AccountFilters{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	total, err = repo.TotalBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)
}

func TestAdjustBalanceRoundTripsExactly(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewAccountRepo(db)
	id := createAccount(t, ctx, db, "A", 0.1)

	next, err := repo.AdjustBalance(ctx, id, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.3, next)

	next, err = repo.AdjustBalance(ctx, id, -0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.1, next)

	big := createAccount(t, ctx, db, "B", 1234567.89)
	for _, delta := range []float64{0.07, 19.99, 0.01, 250000.5} {
		_, err = repo.AdjustBalance(ctx, big, delta)
		require.NoError(t, err)
		next, err = repo.AdjustBalance(ctx, big, -delta)
		require.NoError(t, err)
		assert.Equal(t, 1234567.89, next, "delta %v", delta)
	}

	_, err = repo.AdjustBalance(ctx, 424242, 1)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAccountInsertKeepsIdentity(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewAccountRepo(db)

	require.NoError(t, repo.Insert(ctx, repository.Account{
		ID: 42, Name: "Restored", Balance: -12.75, Currency: "EUR", Icon: "cash", Color: "#000",
		Type: repository.AccountCash, IsArchived: true,
	}))
	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, -12.75, got.Balance)
	assert.True(t, bool(got.IsArchived))

	err = repo.Insert(ctx, repository.Account{Name: "Bad", Type: "loan"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

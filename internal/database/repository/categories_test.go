package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database/repository"
)

func TestCategoryListOrderAndFilter(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewCategoryRepo(db)

	for _, c := range []repository.NewCategory{
		{Name: "Rent", Icon: "home", Color: "#111", Type: repository.CategoryExpense, SortOrder: 2},
		{Name: "Salary", Icon: "cash", Color: "#222", Type: repository.CategoryIncome, SortOrder: 1},
		{Name: "Food", Icon: "food", Color: "#333", Type: repository.CategoryExpense, SortOrder: 1},
	} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, repository.CategoryFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Salary", "Food", "Rent"}, []string{all[0].Name, all[1].Name, all[2].Name})

	expense := repository.CategoryExpense
	exp, err := repo.List(ctx, repository.CategoryFilters{Type: &expense})
	require.NoError(t, err)
	require.Len(t, exp, 2)
	assert.Equal(t, "Food", exp[0].Name)
	assert.Equal(t, "Rent", exp[1].Name)
}

func TestCategoryValidationAndUpdate(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	repo := repository.NewCategoryRepo(db)

	_, err := repo.Create(ctx, repository.NewCategory{Name: "X", Icon: "i", Color: "c", Type: "neutral"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	id, err := repo.Create(ctx, repository.NewCategory{Name: "Gym", Icon: "dumbbell", Color: "#fff", Type: repository.CategoryExpense, IsCustom: true})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, repository.CategoryPatch{Name: ptr("Fitness"), SortOrder: ptr(7)}))
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Fitness", got.Name)
	assert.Equal(t, 7, got.SortOrder)
	assert.Equal(t, "dumbbell", got.Icon)
	assert.Equal(t, repository.CategoryExpense, got.Type)

	custom, err := repo.IsCustom(ctx, id)
	require.NoError(t, err)
	assert.True(t, custom)

	byName, err := repo.GetByName(ctx, "Fitness")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.ID)

	none, err := repo.GetByName(ctx, "Gym")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCategoryDeleteLeavesTransactionsAlone(t *testing.T) {
	t.Parallel()
	db, ctx := setupRepoTest(t)
	cats := repository.NewCategoryRepo(db)
	txns := repository.NewTransactionRepo(db)
	acct := createAccount(t, ctx, db, "A", 0)

	id, err := cats.Create(ctx, repository.NewCategory{Name: "Food", Icon: "f", Color: "c", Type: repository.CategoryExpense})
	require.NoError(t, err)
	tid, err := txns.Insert(ctx, repository.NewTransaction{
		Title: "Lunch", Amount: 12, Type: repository.TransactionExpense, AccountID: acct,
		Category: "Food", Date: time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	n, err := cats.UsageCount(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, cats.Delete(ctx, id))
	got, err := txns.Get(ctx, tid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Food", got.Category)

	gone, err := cats.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/wizflow/internal/database/repository"
)

// DefaultCategories are the built-in categories seeded on a fresh database.
var DefaultCategories = []repository.NewCategory{
	{Name: "Food & Dining", Icon: "restaurant", Color: "#FF6B6B", Type: repository.CategoryExpense, SortOrder: 1},
	{Name: "Transport", Icon: "car", Color: "#36A2EB", Type: repository.CategoryExpense, SortOrder: 2},
	{Name: "Shopping", Icon: "cart", Color: "#FFCD56", Type: repository.CategoryExpense, SortOrder: 3},
	{Name: "Bills & Utilities", Icon: "receipt", Color: "#4BC0C0", Type: repository.CategoryExpense, SortOrder: 4},
	{Name: "Healthcare", Icon: "medkit", Color: "#FF6384", Type: repository.CategoryExpense, SortOrder: 5},
	{Name: "Education", Icon: "school", Color: "#9966FF", Type: repository.CategoryExpense, SortOrder: 6},
	{Name: "Entertainment", Icon: "game-controller", Color: "#FF8E53", Type: repository.CategoryExpense, SortOrder: 7},
	{Name: "Travel", Icon: "airplane", Color: "#00BCD4", Type: repository.CategoryExpense, SortOrder: 8},
	{Name: "Groceries", Icon: "basket", Color: "#4CAF50", Type: repository.CategoryExpense, SortOrder: 9},
	{Name: "Personal Care", Icon: "heart", Color: "#E91E63", Type: repository.CategoryExpense, SortOrder: 10},
	{Name: "Home", Icon: "home", Color: "#795548", Type: repository.CategoryExpense, SortOrder: 11},
	{Name: "Other", Icon: "ellipsis-horizontal", Color: "#607D8B", Type: repository.CategoryExpense, SortOrder: 99},
	{Name: "Salary", Icon: "briefcase", Color: "#4CAF50", Type: repository.CategoryIncome, SortOrder: 1},
	{Name: "Freelance", Icon: "laptop", Color: "#36A2EB", Type: repository.CategoryIncome, SortOrder: 2},
	{Name: "Investment", Icon: "trending-up", Color: "#9966FF", Type: repository.CategoryIncome, SortOrder: 3},
	{Name: "Gift", Icon: "gift", Color: "#FF6384", Type: repository.CategoryIncome, SortOrder: 4},
	{Name: "Refund", Icon: "refresh", Color: "#4BC0C0", Type: repository.CategoryIncome, SortOrder: 5},
	{Name: "Other Income", Icon: "add-circle", Color: "#607D8B", Type: repository.CategoryIncome, SortOrder: 99},
}

// DefaultAccount is the account created on first run.
var DefaultAccount = repository.NewAccount{
	Name:  "Main Account",
	Icon:  "business",
	Color: "#4CAF50",
	Type:  repository.AccountBank,
}

// SeedDefaults ensures baseline categories and one account exist for new databases.
// Each half is skipped when its table already has rows, so it is safe on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, currency string) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			acct := DefaultAccount
			acct.Currency = currency
			if _, err := repository.NewAccountRepo(tx).Create(ctx, acct); err != nil {
				return fmt.Errorf("seed account: %w", err)
			}
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		catRepo := repository.NewCategoryRepo(tx)
		for _, c := range DefaultCategories {
			if _, err := catRepo.Create(ctx, c); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

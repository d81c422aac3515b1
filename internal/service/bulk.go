package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/database/repository"
)

// Snapshot is a batch of complete records, typically decoded from a backup.
type Snapshot struct {
	Accounts     []repository.Account     `json:"accounts"`
	Categories   []repository.Category    `json:"categories"`
	Transactions []repository.Transaction `json:"transactions"`
}

// LoadResult counts inserted rows per collection.
type LoadResult struct {
	Accounts     int
	Categories   int
	Transactions int
}

// BulkLoader inserts historical records as-is. Account rows already carry their final
// balances, so transactions are inserted without any balance effect. It never goes through
// LedgerService.
type BulkLoader struct {
	BaseService
	DB *sql.DB
}

// Load inserts accounts, then categories, then transactions, all in one database
// transaction. Any failure leaves the store untouched.
func (l *BulkLoader) Load(ctx context.Context, snap Snapshot) (LoadResult, error) {
	var res LoadResult
	err := database.WithTx(ctx, l.DB, func(tx *sql.Tx) error {
		accounts := repository.NewAccountRepo(tx)
		for _, a := range snap.Accounts {
			if err := accounts.Insert(ctx, a); err != nil {
				return fmt.Errorf("insert account %d %q: %w", a.ID, a.Name, err)
			}
			res.Accounts++
		}
		categories := repository.NewCategoryRepo(tx)
		for _, c := range snap.Categories {
			if err := categories.Insert(ctx, c); err != nil {
				return fmt.Errorf("insert category %d %q: %w", c.ID, c.Name, err)
			}
			res.Categories++
		}
		txns := repository.NewTransactionRepo(tx)
		for _, t := range snap.Transactions {
			if _, err := txns.InsertRecord(ctx, t); err != nil {
				return fmt.Errorf("insert transaction %d: %w", t.ID, err)
			}
			res.Transactions++
		}
		return nil
	})
	if err != nil {
		l.LogError(ctx, err, "bulk load failed")
		return LoadResult{}, err
	}
	l.LogInfo(ctx, "bulk load complete",
		"accounts", res.Accounts, "categories", res.Categories, "transactions", res.Transactions)
	return res, nil
}

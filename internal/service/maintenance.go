package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jask/wizflow/internal/database"
)

// wipeOrder lists the tables WipeData empties, children before parents.
var wipeOrder = []string{"transactions", "categories", "accounts", "settings"}

var errNoDB = errors.New("maintenance: db not configured")

// MaintenanceService houses the destructive actions behind the reset command.
type MaintenanceService struct {
	BaseService
	DB *sql.DB
}

// WipeData empties every table in one transaction and keeps the schema. It returns the
// number of rows removed per table.
func (s *MaintenanceService) WipeData(ctx context.Context) (map[string]int64, error) {
	if s.DB == nil {
		return nil, errNoDB
	}
	removed := make(map[string]int64, len(wipeOrder))
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, table := range wipeOrder {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return fmt.Errorf("wipe table %s: %w", table, err)
			}
			removed[table], _ = res.RowsAffected()
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "wipe failed")
		return nil, err
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		s.LogWarn(ctx, "vacuum after wipe failed", "error", err)
	}
	s.LogInfo(ctx, "all data wiped", "transactions", removed["transactions"], "accounts", removed["accounts"])
	return removed, nil
}

// ResetSchema drops the tables, migration history included, and migrates an empty schema.
func (s *MaintenanceService) ResetSchema(ctx context.Context) error {
	if s.DB == nil {
		return errNoDB
	}
	if err := database.ResetDatabase(ctx, s.DB); err != nil {
		s.LogError(ctx, err, "drop schema failed")
		return err
	}
	if err := database.RunMigrations(s.DB); err != nil {
		s.LogError(ctx, err, "recreate schema failed")
		return fmt.Errorf("recreate schema: %w", err)
	}
	s.LogInfo(ctx, "schema reset")
	return nil
}

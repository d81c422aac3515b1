package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/database/repository"
)

// LedgerService posts, edits and deletes transactions while keeping every account's cached
// balance equal to its initial balance plus the signed effects of its transactions. The row
// write and its balance deltas always commit or roll back together.
type LedgerService struct {
	BaseService
	DB *sql.DB
}

// effect is one balance delta on one account.
type effect struct {
	account int64
	delta   float64
}

// shape is the part of a transaction that decides its balance effect.
type shape struct {
	typ    repository.TransactionType
	amount float64
	from   int64
	to     *int64
}

func (s shape) effects() []effect {
	switch s.typ {
	case repository.TransactionIncome:
		return []effect{{s.from, s.amount}}
	case repository.TransactionExpense:
		return []effect{{s.from, -s.amount}}
	case repository.TransactionTransfer:
		return []effect{{s.from, -s.amount}, {*s.to, s.amount}}
	}
	return nil
}

func reversed(effs []effect) []effect {
	out := make([]effect, len(effs))
	for i, e := range effs {
		out[i] = effect{e.account, -e.delta}
	}
	return out
}

func sameEffects(a, b []effect) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shapeOf(t repository.Transaction) shape {
	return shape{typ: t.Type, amount: t.Amount, from: t.AccountID, to: t.ToAccountID}
}

// check enforces the rules every persisted transaction satisfies.
func (s shape) check() error {
	if !s.typ.Valid() {
		return apperrors.Validation("type %q", s.typ)
	}
	if math.IsNaN(s.amount) || math.IsInf(s.amount, 0) || s.amount < 0 {
		return apperrors.Validation("amount must be a non-negative number, got %v", s.amount)
	}
	if s.from <= 0 {
		return apperrors.Validation("account_id is required")
	}
	if s.typ == repository.TransactionTransfer {
		if s.to == nil {
			return apperrors.Validation("transfer requires to_account_id")
		}
		if *s.to == s.from {
			return apperrors.Validation("transfer source and destination are both account %d", s.from)
		}
	} else if s.to != nil {
		return apperrors.Validation("to_account_id is only valid for transfers")
	}
	return nil
}

// requireAccounts fails with a validation error when a referenced account does not exist.
// Archived accounts are postable.
func (s shape) requireAccounts(ctx context.Context, accounts *repository.AccountRepo) error {
	ids := []int64{s.from}
	if s.to != nil {
		ids = append(ids, *s.to)
	}
	for _, id := range ids {
		a, err := accounts.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load account %d: %w", id, err)
		}
		if a == nil {
			return apperrors.Validation("account %d does not exist", id)
		}
	}
	return nil
}

// CreateTransaction validates in, writes the row and applies its balance effect.
func (s *LedgerService) CreateTransaction(ctx context.Context, in repository.NewTransaction) (int64, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := repository.Validate(in); err != nil {
		return 0, err
	}
	if in.Date.IsZero() {
		return 0, apperrors.Validation("date is required")
	}
	sh := shape{typ: in.Type, amount: in.Amount, from: in.AccountID, to: in.ToAccountID}
	if err := sh.check(); err != nil {
		return 0, err
	}

	var id int64
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := sh.requireAccounts(ctx, repository.NewAccountRepo(tx)); err != nil {
			return err
		}
		var err error
		id, err = repository.NewTransactionRepo(tx).Insert(ctx, in)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return s.apply(ctx, tx, "create", id, sh.effects())
	})
	if err != nil {
		return 0, s.fail(ctx, "create", err)
	}
	s.LogDebug(ctx, "transaction created", "transaction_id", id, "type", in.Type, "amount", in.Amount)
	return id, nil
}

// UpdateTransaction applies p to the transaction, reversing the stored effect and applying
// the effect of the merged result. Fields absent from p keep their stored value. Changing a
// transfer into income or expense drops its destination account.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, p repository.TransactionPatch) error {
	if err := repository.Validate(p); err != nil {
		return err
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return apperrors.Validation("title cannot be empty")
		}
		p.Title = &t
	}
	if p.Category != nil {
		c := strings.TrimSpace(*p.Category)
		if c == "" {
			return apperrors.Validation("category cannot be empty")
		}
		p.Category = &c
	}
	if p.Date != nil && p.Date.IsZero() {
		return apperrors.Validation("date cannot be zero")
	}
	if p.IsEmpty() {
		return nil
	}

	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		txns := repository.NewTransactionRepo(tx)
		orig, err := txns.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}
		if orig == nil {
			return fmt.Errorf("transaction %d: %w", id, apperrors.ErrNotFound)
		}
		before := shapeOf(*orig)
		after := before
		if p.Type != nil {
			after.typ = *p.Type
		}
		if p.Amount != nil {
			after.amount = *p.Amount
		}
		if p.AccountID != nil {
			after.from = *p.AccountID
		}
		if p.ClearToAccount {
			after.to = nil
		} else if p.ToAccountID != nil {
			after.to = p.ToAccountID
		}
		if after.typ != repository.TransactionTransfer && after.to != nil && p.ToAccountID == nil {
			after.to = nil
			p.ClearToAccount = true
		}
		if err := after.check(); err != nil {
			return err
		}
		if err := after.requireAccounts(ctx, repository.NewAccountRepo(tx)); err != nil {
			return err
		}

		if err := txns.Update(ctx, id, p); err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}
		old, next := before.effects(), after.effects()
		if sameEffects(old, next) {
			return nil
		}
		if err := s.apply(ctx, tx, "update", id, reversed(old)); err != nil {
			return err
		}
		return s.apply(ctx, tx, "update", id, next)
	})
	if err != nil {
		return s.fail(ctx, "update", err)
	}
	s.LogDebug(ctx, "transaction updated", "transaction_id", id)
	return nil
}

// DeleteTransaction reverses the transaction's balance effect and removes the row.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		txns := repository.NewTransactionRepo(tx)
		orig, err := txns.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}
		if orig == nil {
			return fmt.Errorf("transaction %d: %w", id, apperrors.ErrNotFound)
		}
		if err := txns.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		return s.apply(ctx, tx, "delete", id, reversed(shapeOf(*orig).effects()))
	})
	if err != nil {
		return s.fail(ctx, "delete", err)
	}
	s.LogDebug(ctx, "transaction deleted", "transaction_id", id)
	return nil
}

// apply adjusts balances for effs. Any failure is a consistency failure: the row write for
// txnID has already happened inside tx, and WithTx rolls both back.
func (s *LedgerService) apply(ctx context.Context, tx *sql.Tx, op string, txnID int64, effs []effect) error {
	accounts := repository.NewAccountRepo(tx)
	for _, e := range effs {
		if _, err := accounts.AdjustBalance(ctx, e.account, e.delta); err != nil {
			return &apperrors.ConsistencyError{
				IncidentID:    uuid.NewString(),
				Op:            op,
				TransactionID: txnID,
				AccountID:     e.account,
				Delta:         e.delta,
				RolledBack:    true,
				Err:           err,
			}
		}
	}
	return nil
}

// fail logs consistency failures loudly and passes every error through unchanged.
func (s *LedgerService) fail(ctx context.Context, op string, err error) error {
	var ce *apperrors.ConsistencyError
	if errors.As(err, &ce) {
		s.LogError(ctx, ce.Err, "ledger consistency failure",
			"incident_id", ce.IncidentID,
			"op", ce.Op,
			"transaction_id", ce.TransactionID,
			"account_id", ce.AccountID,
			"delta", ce.Delta,
			"rolled_back", ce.RolledBack,
		)
		return err
	}
	if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "ledger write failed", "op", op)
	}
	return err
}

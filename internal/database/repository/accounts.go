package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jask/wizflow/internal/apperrors"
)

const accountColumns = `id, name, balance, currency, icon, color, type, is_archived, created_at`

// AccountFilters defines list filters.
type AccountFilters struct {
	IncludeArchived bool
}

// AccountRepo handles accounts.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

// List returns accounts newest first. Archived accounts are omitted unless requested.
func (r *AccountRepo) List(ctx context.Context, f AccountFilters) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !f.IncludeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns nil, nil when no account has id.
func (r *AccountRepo) Get(ctx context.Context, id int64) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts an account and returns its id.
func (r *AccountRepo) Create(ctx context.Context, in NewAccount) (int64, error) {
	if err := Validate(in); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(name, balance, currency, icon, color, type, is_archived)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.Name, in.Balance, in.Currency, in.Icon, in.Color, in.Type, boolInt(in.IsArchived))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Insert writes a complete account row, keeping its id, balance and creation time.
// It is the bulk restore path.
func (r *AccountRepo) Insert(ctx context.Context, a Account) error {
	if !a.Type.Valid() {
		return apperrors.Validation("account %d: type %q", a.ID, a.Type)
	}
	var id any
	if a.ID > 0 {
		id = a.ID
	}
	created := FormatTime(a.CreatedAt)
	if a.CreatedAt.IsZero() {
		created = FormatTime(nowUTC())
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, balance, currency, icon, color, type, is_archived, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, a.Name, a.Balance, a.Currency, a.Icon, a.Color, a.Type, boolInt(bool(a.IsArchived)), created)
	return err
}

// Update applies the non-nil fields of p.
func (r *AccountRepo) Update(ctx context.Context, id int64, p AccountPatch) error {
	if err := Validate(p); err != nil {
		return err
	}
	var set patch
	if p.Name != nil {
		set.set("name", *p.Name)
	}
	if p.Balance != nil {
		set.set("balance", *p.Balance)
	}
	if p.Currency != nil {
		set.set("currency", *p.Currency)
	}
	if p.Icon != nil {
		set.set("icon", *p.Icon)
	}
	if p.Color != nil {
		set.set("color", *p.Color)
	}
	if p.Type != nil {
		set.set("type", *p.Type)
	}
	if p.IsArchived != nil {
		set.set("is_archived", boolInt(*p.IsArchived))
	}
	if set.empty() {
		return nil
	}
	cols, args := set.clause(id)
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET `+cols+` WHERE id = ?`, args...)
	return err
}

// Archive hides the account from active listings and the total balance. Its transactions
// and postability are unaffected.
func (r *AccountRepo) Archive(ctx context.Context, id int64) error {
	archived := true
	return r.Update(ctx, id, AccountPatch{IsArchived: &archived})
}

// Delete removes the account row. It fails while transactions still reference it.
func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}

// AdjustBalance adds delta to the cached balance and returns the new balance. The sum is
// taken on the shortest decimal forms of both floats, so applying delta and then -delta
// restores the original float when both carry at most 15 significant digits, which covers
// cent amounts. Run it inside a transaction.
func (r *AccountRepo) AdjustBalance(ctx context.Context, id int64, delta float64) (float64, error) {
	var balance float64
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	next := decimal.NewFromFloat(balance).Add(decimal.NewFromFloat(delta)).InexactFloat64()
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, next, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n != 1 {
		return 0, fmt.Errorf("account %d: balance update touched %d rows", id, n)
	}
	return next, nil
}

// TotalBalance sums balances of active accounts.
func (r *AccountRepo) TotalBalance(ctx context.Context) (float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT balance FROM accounts WHERE is_archived = 0`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var b float64
		if err := rows.Scan(&b); err != nil {
			return 0, err
		}
		total = total.Add(decimal.NewFromFloat(b))
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return total.InexactFloat64(), nil
}

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (Account, error) {
	var a Account
	var archived int
	var created string
	if err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.Currency, &a.Icon, &a.Color, &a.Type, &archived, &created); err != nil {
		return Account{}, err
	}
	a.IsArchived = archived != 0
	t, err := ParseTime(created)
	if err != nil {
		return Account{}, err
	}
	a.CreatedAt = t
	return a, nil
}

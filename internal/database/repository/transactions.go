package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jask/wizflow/internal/apperrors"
)

var transactionFields = []string{"id", "title", "amount", "type", "account_id", "to_account_id",
	"category", "tags", "note", "attachment_uri", "location_lat", "location_lng", "date", "created_at"}

var transactionColumns = transactionColumnsAs("")

func transactionColumnsAs(prefix string) string {
	cols := make([]string, len(transactionFields))
	for i, f := range transactionFields {
		cols[i] = prefix + f
	}
	return strings.Join(cols, ", ")
}

// TransactionFilters defines list filters. Zero values mean no filter. AccountID matches
// either side of a transfer. Start and End are inclusive.
type TransactionFilters struct {
	AccountID *int64
	Type      TransactionType
	Category  string
	Start     time.Time
	End       time.Time
	Limit     int
	Offset    int
}

func (f TransactionFilters) where(prefix string) (string, []any) {
	var where []string
	var args []any
	if f.AccountID != nil {
		where = append(where, "("+prefix+"account_id = ? OR "+prefix+"to_account_id = ?)")
		args = append(args, *f.AccountID, *f.AccountID)
	}
	if f.Type != "" {
		where = append(where, prefix+"type = ?")
		args = append(args, f.Type)
	}
	if f.Category != "" {
		where = append(where, prefix+"category = ?")
		args = append(args, f.Category)
	}
	if !f.Start.IsZero() {
		where = append(where, prefix+"date >= ?")
		args = append(args, FormatTime(f.Start))
	}
	if !f.End.IsZero() {
		where = append(where, prefix+"date <= ?")
		args = append(args, FormatTime(f.End))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (f TransactionFilters) page(args []any) (string, []any) {
	if f.Limit <= 0 {
		return "", args
	}
	q := " LIMIT ?"
	args = append(args, f.Limit)
	if f.Offset > 0 {
		q += " OFFSET ?"
		args = append(args, f.Offset)
	}
	return q, args
}

// TransactionWithAccounts adds the joined account names for display.
type TransactionWithAccounts struct {
	Transaction
	AccountName   string
	ToAccountName string
}

// TransactionRepo handles transaction rows. It never touches balances; posting goes
// through the ledger service.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

// Insert writes a new row and returns its id.
func (r *TransactionRepo) Insert(ctx context.Context, t NewTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 title, amount, type, account_id, to_account_id, category, tags, note,
	 attachment_uri, location_lat, location_lng, date, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		t.Title, t.Amount, t.Type, t.AccountID, t.ToAccountID, t.Category, nullString(t.Tags),
		nullString(t.Note), nullString(t.AttachmentURI), t.LocationLat, t.LocationLng,
		FormatTime(t.Date), FormatTime(nowUTC()))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertRecord writes a historical row as-is, keeping its id and creation time when set.
// It is the bulk restore path.
func (r *TransactionRepo) InsertRecord(ctx context.Context, t Transaction) (int64, error) {
	if !t.Type.Valid() {
		return 0, apperrors.Validation("transaction %d: type %q", t.ID, t.Type)
	}
	if t.Amount < 0 {
		return 0, apperrors.Validation("transaction %d: negative amount %v", t.ID, t.Amount)
	}
	var id any
	if t.ID > 0 {
		id = t.ID
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, title, amount, type, account_id, to_account_id, category, tags, note,
	 attachment_uri, location_lat, location_lng, date, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		id, t.Title, t.Amount, t.Type, t.AccountID, t.ToAccountID, t.Category, nullString(t.Tags),
		nullString(t.Note), nullString(t.AttachmentURI), t.LocationLat, t.LocationLng,
		FormatTime(t.Date), FormatTime(created))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update applies the non-nil fields of p to the row.
func (r *TransactionRepo) Update(ctx context.Context, id int64, p TransactionPatch) error {
	var set patch
	if p.Title != nil {
		set.set("title", *p.Title)
	}
	if p.Amount != nil {
		set.set("amount", *p.Amount)
	}
	if p.Type != nil {
		set.set("type", *p.Type)
	}
	if p.AccountID != nil {
		set.set("account_id", *p.AccountID)
	}
	if p.ClearToAccount {
		set.set("to_account_id", nil)
	} else if p.ToAccountID != nil {
		set.set("to_account_id", *p.ToAccountID)
	}
	if p.Category != nil {
		set.set("category", *p.Category)
	}
	if p.Tags != nil {
		set.set("tags", nullString(p.Tags))
	}
	if p.Note != nil {
		set.set("note", nullString(p.Note))
	}
	if p.AttachmentURI != nil {
		set.set("attachment_uri", nullString(p.AttachmentURI))
	}
	if p.ClearLocation {
		set.set("location_lat", nil)
		set.set("location_lng", nil)
	} else {
		if p.LocationLat != nil {
			set.set("location_lat", *p.LocationLat)
		}
		if p.LocationLng != nil {
			set.set("location_lng", *p.LocationLng)
		}
	}
	if p.Date != nil {
		set.set("date", FormatTime(*p.Date))
	}
	if set.empty() {
		return nil
	}
	cols, args := set.clause(id)
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET `+cols+` WHERE id = ?`, args...)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

// List returns matching rows newest first.
func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	where, args := f.where("")
	page, args := f.page(args)
	query := "SELECT " + transactionColumns + " FROM transactions" + where +
		" ORDER BY date DESC, created_at DESC, id DESC" + page

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListWithAccounts is List joined with source and destination account names.
func (r *TransactionRepo) ListWithAccounts(ctx context.Context, f TransactionFilters) ([]TransactionWithAccounts, error) {
	where, args := f.where("t.")
	page, args := f.page(args)
	query := "SELECT " + transactionColumnsAs("t.") + ", COALESCE(a.name, ''), COALESCE(ta.name, '')" +
		" FROM transactions t" +
		" LEFT JOIN accounts a ON t.account_id = a.id" +
		" LEFT JOIN accounts ta ON t.to_account_id = ta.id" + where +
		" ORDER BY t.date DESC, t.created_at DESC, t.id DESC" + page

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionWithAccounts
	for rows.Next() {
		var tw TransactionWithAccounts
		t, err := scanTransaction(rows, &tw.AccountName, &tw.ToAccountName)
		if err != nil {
			return nil, err
		}
		tw.Transaction = t
		out = append(out, tw)
	}
	return out, rows.Err()
}

// Count returns the number of rows matching f. Limit and Offset are ignored.
func (r *TransactionRepo) Count(ctx context.Context, f TransactionFilters) (int, error) {
	where, args := f.where("")
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&n)
	return n, err
}

// Get returns nil, nil when no row has id.
func (r *TransactionRepo) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// scanTransaction handles nullable fields. extra receives trailing joined columns.
func scanTransaction(row scanner, extra ...any) (Transaction, error) {
	var t Transaction
	var toAccount sql.NullInt64
	var tags, note, attachment sql.NullString
	var lat, lng sql.NullFloat64
	var date, created string
	dest := []any{&t.ID, &t.Title, &t.Amount, &t.Type, &t.AccountID, &toAccount, &t.Category,
		&tags, &note, &attachment, &lat, &lng, &date, &created}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Transaction{}, err
	}
	if toAccount.Valid {
		t.ToAccountID = &toAccount.Int64
	}
	if tags.Valid {
		t.Tags = &tags.String
	}
	if note.Valid {
		t.Note = &note.String
	}
	if attachment.Valid {
		t.AttachmentURI = &attachment.String
	}
	if lat.Valid {
		t.LocationLat = &lat.Float64
	}
	if lng.Valid {
		t.LocationLng = &lng.Float64
	}
	var err error
	if t.Date, err = ParseTime(date); err != nil {
		return Transaction{}, err
	}
	if t.CreatedAt, err = ParseTime(created); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so a repo can run inside a caller's
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AccountType is the kind of money container.
type AccountType string

const (
	AccountGeneral    AccountType = "general"
	AccountCash       AccountType = "cash"
	AccountBank       AccountType = "bank"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountGeneral, AccountCash, AccountBank, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

// CategoryType is the side of the ledger a category labels.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// Valid reports whether t is income or expense.
func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// TransactionType decides the sign of a transaction's balance effect.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

// TransferCategory is the conventional category name carried by transfers.
const TransferCategory = "Transfer"

// Flag is a boolean persisted and serialized as 0/1.
type Flag bool

// MarshalJSON writes 0 or 1.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts 0/1 or true/false.
func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("flag: %s", b)
		}
		*f = n != 0
	}
	return nil
}

// Account represents an account row. Balance is a cached sum maintained by the ledger.
type Account struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Balance    float64     `json:"balance"`
	Currency   string      `json:"currency"`
	Icon       string      `json:"icon"`
	Color      string      `json:"color"`
	Type       AccountType `json:"type"`
	IsArchived Flag        `json:"is_archived"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewAccount is the input for AccountRepo.Create. Balance is the initial balance.
type NewAccount struct {
	Name       string      `validate:"required"`
	Balance    float64
	Currency   string      `validate:"required,len=3,uppercase"`
	Icon       string      `validate:"required"`
	Color      string      `validate:"required"`
	Type       AccountType `validate:"required,oneof=general cash bank credit investment"`
	IsArchived bool
}

// AccountPatch lists account fields to change. Nil fields are left untouched.
type AccountPatch struct {
	Name       *string      `validate:"omitempty,min=1"`
	Balance    *float64
	Currency   *string      `validate:"omitempty,len=3,uppercase"`
	Icon       *string      `validate:"omitempty,min=1"`
	Color      *string      `validate:"omitempty,min=1"`
	Type       *AccountType `validate:"omitempty,oneof=general cash bank credit investment"`
	IsArchived *bool
}

// Category represents a category row. Transactions reference categories by Name.
type Category struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	Type      CategoryType `json:"type"`
	SortOrder int          `json:"sort_order"`
	IsCustom  Flag         `json:"is_custom"`
}

// NewCategory is the input for CategoryRepo.Create.
type NewCategory struct {
	Name      string       `validate:"required"`
	Icon      string       `validate:"required"`
	Color     string       `validate:"required"`
	Type      CategoryType `validate:"required,oneof=income expense"`
	SortOrder int
	IsCustom  bool
}

// CategoryPatch lists category fields to change. Type and custom flag are fixed at creation.
type CategoryPatch struct {
	Name      *string `validate:"omitempty,min=1"`
	Icon      *string `validate:"omitempty,min=1"`
	Color     *string `validate:"omitempty,min=1"`
	SortOrder *int
}

// Transaction represents a transaction row. Amount is a non-negative magnitude; Type
// carries the sign.
type Transaction struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Amount        float64         `json:"amount"`
	Type          TransactionType `json:"type"`
	AccountID     int64           `json:"account_id"`
	ToAccountID   *int64          `json:"to_account_id"`
	Category      string          `json:"category"`
	Tags          *string         `json:"tags"`
	Note          *string         `json:"note"`
	AttachmentURI *string         `json:"attachment_uri"`
	LocationLat   *float64        `json:"location_lat"`
	LocationLng   *float64        `json:"location_lng"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewTransaction is the input for a single posted transaction.
type NewTransaction struct {
	Title         string          `validate:"required"`
	Amount        float64         `validate:"gte=0"`
	Type          TransactionType `validate:"required,oneof=income expense transfer"`
	AccountID     int64           `validate:"required,gt=0"`
	ToAccountID   *int64          `validate:"omitempty,gt=0"`
	Category      string          `validate:"required"`
	Tags          *string
	Note          *string
	AttachmentURI *string
	LocationLat   *float64 `validate:"omitempty,gte=-90,lte=90"`
	LocationLng   *float64 `validate:"omitempty,gte=-180,lte=180"`
	Date          time.Time
}

// TransactionPatch lists transaction fields to change. Nil fields keep their stored value.
// An empty string in Tags, Note or AttachmentURI clears the column.
type TransactionPatch struct {
	Title         *string          `validate:"omitempty,min=1"`
	Amount        *float64         `validate:"omitempty,gte=0"`
	Type          *TransactionType `validate:"omitempty,oneof=income expense transfer"`
	AccountID     *int64           `validate:"omitempty,gt=0"`
	ToAccountID   *int64           `validate:"omitempty,gt=0"`
	Category      *string          `validate:"omitempty,min=1"`
	Tags          *string
	Note          *string
	AttachmentURI *string
	LocationLat   *float64 `validate:"omitempty,gte=-90,lte=90"`
	LocationLng   *float64 `validate:"omitempty,gte=-180,lte=180"`
	Date          *time.Time
	// ClearToAccount nulls to_account_id; the ledger sets it when a transfer changes type.
	ClearToAccount bool
	ClearLocation  bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Type == nil && p.AccountID == nil &&
		p.ToAccountID == nil && p.Category == nil && p.Tags == nil && p.Note == nil &&
		p.AttachmentURI == nil && p.LocationLat == nil && p.LocationLng == nil &&
		p.Date == nil && !p.ClearToAccount && !p.ClearLocation
}

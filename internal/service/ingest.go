package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/jask/wizflow/internal/database/repository"
)

// TransactionCSVHeader is the column order written by ExportTransactionsCSV and understood
// by ImportCSV.
var TransactionCSVHeader = []string{"Date", "Title", "Type", "Account", "Category", "Amount", "Note"}

// AccountCSVHeader is the column order written by ExportAccountsCSV.
var AccountCSVHeader = []string{"Name", "Balance", "Currency", "Type"}

var requiredImportColumns = []string{"Date", "Title", "Type", "Account", "Category", "Amount"}

// IngestService moves transactions in and out of CSV. Imported rows are posted through the
// ledger, so balances follow them.
type IngestService struct {
	BaseService
	Ledger       *LedgerService
	Accounts     *repository.AccountRepo
	Categories   *repository.CategoryRepo
	Transactions *repository.TransactionRepo
	// Location applies to dates without a zone. Nil means time.Local.
	Location *time.Location
}

// SkippedRow is a row that was ignored rather than failed.
type SkippedRow struct {
	Line       int
	Reason     string
	Suggestion string
}

type IngestResult struct {
	Imported int
	Skipped  []SkippedRow
	Errors   []error
}

// ImportCSV reads a headed CSV. Rows naming an unknown account or category are skipped, as
// are transfer rows, which the format cannot express. Nothing is created implicitly.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader) (IngestResult, error) {
	res := IngestResult{}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredImportColumns {
		if _, ok := cols[strings.ToLower(c)]; !ok {
			return res, fmt.Errorf("csv header missing column %q", c)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	accounts, err := s.Accounts.List(ctx, repository.AccountFilters{IncludeArchived: true})
	if err != nil {
		return res, fmt.Errorf("load accounts: %w", err)
	}
	accountIDs := map[string]int64{}
	accountNames := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if _, dup := accountIDs[a.Name]; !dup {
			accountIDs[a.Name] = a.ID
			accountNames = append(accountNames, a.Name)
		}
	}
	categories, err := s.Categories.List(ctx, repository.CategoryFilters{})
	if err != nil {
		return res, fmt.Errorf("load categories: %w", err)
	}
	categorySet := map[string]bool{}
	categoryNames := make([]string, 0, len(categories))
	for _, c := range categories {
		if !categorySet[c.Name] {
			categorySet[c.Name] = true
			categoryNames = append(categoryNames, c.Name)
		}
	}

	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if blankRecord(rec) {
			continue
		}
		if len(rec) < len(header) {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(rec)))
			continue
		}

		typ := repository.TransactionType(strings.ToLower(field(rec, "Type")))
		if typ == repository.TransactionTransfer {
			res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: "transfers cannot be imported"})
			continue
		}
		if !typ.Valid() {
			res.Errors = append(res.Errors, fmt.Errorf("line %d type: unknown %q", line, field(rec, "Type")))
			continue
		}
		acctName := field(rec, "Account")
		acctID, ok := accountIDs[acctName]
		if !ok {
			res.Skipped = append(res.Skipped, SkippedRow{
				Line: line, Reason: fmt.Sprintf("unknown account %q", acctName), Suggestion: closestName(acctName, accountNames),
			})
			continue
		}
		category := field(rec, "Category")
		if !categorySet[category] {
			res.Skipped = append(res.Skipped, SkippedRow{
				Line: line, Reason: fmt.Sprintf("unknown category %q", category), Suggestion: closestName(category, categoryNames),
			})
			continue
		}
		amount, err := parseAmount(field(rec, "Amount"))
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		date, err := parseCSVDate(field(rec, "Date"), loc)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}

		in := repository.NewTransaction{
			Title:     field(rec, "Title"),
			Amount:    amount,
			Type:      typ,
			AccountID: acctID,
			Category:  category,
			Note:      nullableStr(field(rec, "Note")),
			Date:      date,
		}
		if _, err := s.Ledger.CreateTransaction(ctx, in); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d post: %w", line, err))
			continue
		}
		res.Imported++
	}
	s.LogInfo(ctx, "csv import complete", "imported", res.Imported, "skipped", len(res.Skipped), "errors", len(res.Errors))
	return res, nil
}

// ExportTransactionsCSV writes transactions newest first. A nil r exports everything.
// Unknown account ids are written as "N/A".
func (s *IngestService) ExportTransactionsCSV(ctx context.Context, w io.Writer, r *DateRange) (int, error) {
	f := repository.TransactionFilters{}
	if r != nil {
		f.Start, f.End = r.Start, r.End
	}
	txs, err := s.Transactions.List(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	accounts, err := s.Accounts.List(ctx, repository.AccountFilters{IncludeArchived: true})
	if err != nil {
		return 0, fmt.Errorf("load accounts: %w", err)
	}
	names := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionCSVHeader); err != nil {
		return 0, err
	}
	for _, t := range txs {
		acct, ok := names[t.AccountID]
		if !ok {
			acct = "N/A"
		}
		note := ""
		if t.Note != nil {
			note = *t.Note
		}
		rec := []string{
			repository.FormatTime(t.Date), t.Title, string(t.Type), acct, t.Category,
			decimal.NewFromFloat(t.Amount).String(), note,
		}
		if err := cw.Write(rec); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(txs), cw.Error()
}

// ExportAccountsCSV writes every account, archived included.
func (s *IngestService) ExportAccountsCSV(ctx context.Context, w io.Writer) (int, error) {
	accounts, err := s.Accounts.List(ctx, repository.AccountFilters{IncludeArchived: true})
	if err != nil {
		return 0, fmt.Errorf("load accounts: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(AccountCSVHeader); err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if err := cw.Write([]string{a.Name, decimal.NewFromFloat(a.Balance).String(), a.Currency, string(a.Type)}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(accounts), cw.Error()
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseAmount reads a non-negative decimal, tolerating thousands separators.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	return d.InexactFloat64(), nil
}

func parseCSVDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{repository.TimeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range []string{time.DateTime, time.DateOnly, "01/02/2006", "1/2/2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// closestName returns the candidate nearest to name, or "" when nothing is close.
func closestName(name string, candidates []string) string {
	best, bestDist := "", -1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	limit := len([]rune(name)) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

func nullableStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

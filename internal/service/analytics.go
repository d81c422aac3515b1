package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database/repository"
)

// Period is a named date range relative to now.
type Period string

const (
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "thisWeek"
	PeriodThisMonth Period = "thisMonth"
	PeriodThisYear  Period = "thisYear"
)

// ParsePeriod accepts the period names plus the short forms day, week, month and year.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "today", "day":
		return PeriodToday, nil
	case "thisWeek", "week":
		return PeriodThisWeek, nil
	case "thisMonth", "month", "":
		return PeriodThisMonth, nil
	case "thisYear", "year":
		return PeriodThisYear, nil
	}
	return "", apperrors.Validation("unknown period %q", s)
}

// DateRange is an inclusive instant range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside r, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// endBefore is the last stored instant before next; timestamps keep millisecond precision.
func endBefore(next time.Time) time.Time { return next.Add(-time.Millisecond) }

// Range resolves p against now in now's location. Weeks run Monday to Sunday.
func (p Period) Range(now time.Time) (DateRange, error) {
	loc := now.Location()
	y, m, d := now.Date()
	switch p {
	case PeriodToday:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return DateRange{start, endBefore(start.AddDate(0, 0, 1))}, nil
	case PeriodThisWeek:
		start := weekStart(now)
		return DateRange{start, endBefore(start.AddDate(0, 0, 7))}, nil
	case PeriodThisMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return DateRange{start, endBefore(start.AddDate(0, 1, 0))}, nil
	case PeriodThisYear:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return DateRange{start, endBefore(start.AddDate(1, 0, 0))}, nil
	}
	return DateRange{}, apperrors.Validation("unknown period %q", p)
}

// YearRange covers the calendar year in loc.
func YearRange(year int, loc *time.Location) DateRange {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return DateRange{start, endBefore(start.AddDate(1, 0, 0))}
}

func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// Bucket is a time-series aggregation unit.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketDay, BucketWeek, BucketMonth:
		return b, nil
	}
	return "", apperrors.Validation("unknown bucket %q", s)
}

func (b Bucket) start(t time.Time) time.Time {
	y, m, d := t.Date()
	switch b {
	case BucketWeek:
		return weekStart(t)
	case BucketMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Summary totals one period. Transfers count on neither side.
type Summary struct {
	Income   float64
	Expenses float64
	Net      float64
}

// CategoryAmount is one row of a category breakdown.
type CategoryAmount struct {
	Category   string
	Amount     float64
	Percentage int
}

// SeriesPoint holds the income and expense sums of one bucket.
type SeriesPoint struct {
	Start    time.Time
	Income   float64
	Expenses float64
}

// DefaultTopCategories is the TopCategories size when n is not positive.
const DefaultTopCategories = 5

// AnalyticsService derives read-only views over the transaction store. Every call reads
// the ledger fresh.
type AnalyticsService struct {
	BaseService
	Transactions *repository.TransactionRepo
	// Location resolves periods and bucket boundaries. Nil means time.Local.
	Location *time.Location
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *AnalyticsService) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s *AnalyticsService) now() time.Time {
	if s.Now == nil {
		return time.Now().In(s.location())
	}
	return s.Now().In(s.location())
}

// PeriodRange resolves p against the service clock.
func (s *AnalyticsService) PeriodRange(p Period) (DateRange, error) {
	return p.Range(s.now())
}

func (s *AnalyticsService) load(ctx context.Context, r DateRange, typ repository.TransactionType) ([]repository.Transaction, error) {
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{Start: r.Start, End: r.End, Type: typ})
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

func (s *AnalyticsService) Summary(ctx context.Context, p Period) (Summary, error) {
	r, err := s.PeriodRange(p)
	if err != nil {
		return Summary{}, err
	}
	return s.SummaryRange(ctx, r)
}

func (s *AnalyticsService) SummaryRange(ctx context.Context, r DateRange) (Summary, error) {
	txs, err := s.load(ctx, r, "")
	if err != nil {
		return Summary{}, err
	}
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case repository.TransactionIncome:
			income = income.Add(decimal.NewFromFloat(t.Amount))
		case repository.TransactionExpense:
			expenses = expenses.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	return Summary{
		Income:   income.InexactFloat64(),
		Expenses: expenses.InexactFloat64(),
		Net:      income.Sub(expenses).InexactFloat64(),
	}, nil
}

// CategoryBreakdown groups one side's amounts by category name, largest first. Percentages
// are rounded half up and are all 0 when the side's total is 0.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, side repository.CategoryType, p Period) ([]CategoryAmount, error) {
	r, err := s.PeriodRange(p)
	if err != nil {
		return nil, err
	}
	return s.CategoryBreakdownRange(ctx, side, r)
}

func (s *AnalyticsService) CategoryBreakdownRange(ctx context.Context, side repository.CategoryType, r DateRange) ([]CategoryAmount, error) {
	if !side.Valid() {
		return nil, apperrors.Validation("breakdown side %q", side)
	}
	txs, err := s.load(ctx, r, repository.TransactionType(side))
	if err != nil {
		return nil, err
	}
	sums := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, t := range txs {
		amt := decimal.NewFromFloat(t.Amount)
		sums[t.Category] = sums[t.Category].Add(amt)
		total = total.Add(amt)
	}

	type row struct {
		name   string
		amount decimal.Decimal
	}
	rows := make([]row, 0, len(sums))
	for name, amt := range sums {
		rows = append(rows, row{name, amt})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].amount.Cmp(rows[j].amount); c != 0 {
			return c > 0
		}
		return rows[i].name < rows[j].name
	})

	hundred := decimal.NewFromInt(100)
	out := make([]CategoryAmount, 0, len(rows))
	for _, r := range rows {
		pct := 0
		if total.IsPositive() {
			pct = int(r.amount.Mul(hundred).DivRound(total, 8).Round(0).IntPart())
		}
		out = append(out, CategoryAmount{Category: r.name, Amount: r.amount.InexactFloat64(), Percentage: pct})
	}
	return out, nil
}

// TopCategories is the expense breakdown cut to the n largest. n <= 0 means
// DefaultTopCategories.
func (s *AnalyticsService) TopCategories(ctx context.Context, p Period, n int) ([]CategoryAmount, error) {
	r, err := s.PeriodRange(p)
	if err != nil {
		return nil, err
	}
	return s.TopCategoriesRange(ctx, r, n)
}

func (s *AnalyticsService) TopCategoriesRange(ctx context.Context, r DateRange, n int) ([]CategoryAmount, error) {
	if n <= 0 {
		n = DefaultTopCategories
	}
	rows, err := s.CategoryBreakdownRange(ctx, repository.CategoryExpense, r)
	if err != nil {
		return nil, err
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// Totals buckets income and expenses within the period. Only buckets holding at least one
// income or expense transaction are returned, oldest first. Transfers are left out.
func (s *AnalyticsService) Totals(ctx context.Context, p Period, b Bucket) ([]SeriesPoint, error) {
	r, err := s.PeriodRange(p)
	if err != nil {
		return nil, err
	}
	return s.TotalsRange(ctx, r, b)
}

func (s *AnalyticsService) TotalsRange(ctx context.Context, r DateRange, b Bucket) ([]SeriesPoint, error) {
	if _, err := ParseBucket(string(b)); err != nil {
		return nil, err
	}
	txs, err := s.load(ctx, r, "")
	if err != nil {
		return nil, err
	}
	type acc struct{ income, expenses decimal.Decimal }
	loc := s.location()
	buckets := map[time.Time]*acc{}
	for _, t := range txs {
		if t.Type == repository.TransactionTransfer {
			continue
		}
		key := b.start(t.Date.In(loc))
		a := buckets[key]
		if a == nil {
			a = &acc{}
			buckets[key] = a
		}
		amt := decimal.NewFromFloat(t.Amount)
		if t.Type == repository.TransactionIncome {
			a.income = a.income.Add(amt)
		} else {
			a.expenses = a.expenses.Add(amt)
		}
	}
	out := make([]SeriesPoint, 0, len(buckets))
	for start, a := range buckets {
		out = append(out, SeriesPoint{Start: start, Income: a.income.InexactFloat64(), Expenses: a.expenses.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// MonthlyTotals buckets a whole calendar year by month.
func (s *AnalyticsService) MonthlyTotals(ctx context.Context, year int) ([]SeriesPoint, error) {
	return s.TotalsRange(ctx, YearRange(year, s.location()), BucketMonth)
}

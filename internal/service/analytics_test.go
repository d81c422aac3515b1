package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database/repository"
)

func utc(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, time.UTC) }

func newAnalytics(env *testEnv, now time.Time, loc *time.Location) *AnalyticsService {
	return &AnalyticsService{
		BaseService:  env.base,
		Transactions: repository.NewTransactionRepo(env.db),
		Location:     loc,
		Now:          func() time.Time { return now },
	}
}

func seedAnalytics(t *testing.T, env *testEnv) {
	t.Helper()
	a := env.account(t, "Checking", 0)
	b := env.account(t, "Savings", 0)
	rows := []repository.NewTransaction{
		{Amount: 1000, Type: repository.TransactionIncome, Category: "Salary", Date: utc(2025, 3, 3, 9)},
		{Amount: 30, Type: repository.TransactionExpense, Category: "Food", Date: utc(2025, 3, 11, 12)},
		{Amount: 70, Type: repository.TransactionExpense, Category: "Food", Date: utc(2025, 3, 12, 8)},
		{Amount: 50, Type: repository.TransactionExpense, Category: "Transport", Date: utc(2025, 3, 12, 18)},
		{Amount: 500, Type: repository.TransactionTransfer, ToAccountID: &b, Date: utc(2025, 3, 5, 10)},
		{Amount: 20, Type: repository.TransactionExpense, Category: "Rent", Date: utc(2025, 2, 27, 10)},
	}
	for _, in := range rows {
		in.AccountID = a
		env.post(t, in)
	}
}

func TestPeriodRanges(t *testing.T) {
	t.Parallel()
	wed := time.Date(2025, 3, 12, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		period Period
		now    time.Time
		start  time.Time
		end    time.Time
	}{
		{PeriodToday, wed, utc(2025, 3, 12, 0), utc(2025, 3, 13, 0)},
		{PeriodThisWeek, wed, utc(2025, 3, 10, 0), utc(2025, 3, 17, 0)},
		{PeriodThisWeek, time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC), utc(2025, 3, 10, 0), utc(2025, 3, 17, 0)},
		{PeriodThisWeek, utc(2025, 3, 10, 0), utc(2025, 3, 10, 0), utc(2025, 3, 17, 0)},
		{PeriodThisMonth, wed, utc(2025, 3, 1, 0), utc(2025, 4, 1, 0)},
		{PeriodThisYear, wed, utc(2025, 1, 1, 0), utc(2026, 1, 1, 0)},
	}
	for _, tt := range tests {
		r, err := tt.period.Range(tt.now)
		require.NoError(t, err)
		assert.True(t, r.Start.Equal(tt.start), "%s start %s", tt.period, r.Start)
		assert.True(t, r.End.Equal(tt.end.Add(-time.Millisecond)), "%s end %s", tt.period, r.End)
		assert.True(t, r.Contains(tt.now))
	}

	_, err := Period("lastDecade").Range(wed)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	p, err := ParsePeriod("week")
	require.NoError(t, err)
	assert.Equal(t, PeriodThisWeek, p)
}

func TestSummaryExcludesTransfers(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	seedAnalytics(t, env)
	svc := newAnalytics(env, utc(2025, 3, 12, 20), time.UTC)

	s, err := svc.Summary(env.ctx, PeriodThisMonth)
	require.NoError(t, err)
	assert.Equal(t, Summary{Income: 1000, Expenses: 150, Net: 850}, s)

	week, err := svc.Summary(env.ctx, PeriodThisWeek)
	require.NoError(t, err)
	assert.Equal(t, Summary{Income: 0, Expenses: 150, Net: -150}, week)

	today, err := svc.Summary(env.ctx, PeriodToday)
	require.NoError(t, err)
	assert.Equal(t, 120.0, today.Expenses)
}

func TestBreakdownMatchesSummary(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	seedAnalytics(t, env)
	svc := newAnalytics(env, utc(2025, 3, 12, 20), time.UTC)

	for _, p := range []Period{PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodThisYear} {
		s, err := svc.Summary(env.ctx, p)
		require.NoError(t, err)
		for side, want := range map[repository.CategoryType]float64{
			repository.CategoryIncome:  s.Income,
			repository.CategoryExpense: s.Expenses,
		} {
			rows, err := svc.CategoryBreakdown(env.ctx, side, p)
			require.NoError(t, err)
			sum, pct := 0.0, 0
			for _, r := range rows {
				sum += r.Amount
				pct += r.Percentage
			}
			assert.InDelta(t, want, sum, 1e-9, "%s %s", p, side)
			if want > 0 {
				assert.InDelta(t, 100, pct, float64(len(rows)), "%s %s", p, side)
			}
		}
	}

	rows, err := svc.CategoryBreakdown(env.ctx, repository.CategoryExpense, PeriodThisMonth)
	require.NoError(t, err)
	assert.Equal(t, []CategoryAmount{
		{Category: "Food", Amount: 100, Percentage: 67},
		{Category: "Transport", Amount: 50, Percentage: 33},
	}, rows)
}

func TestBreakdownSingleCategory(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	a := env.account(t, "A", 0)
	env.post(t, repository.NewTransaction{Amount: 30, Type: repository.TransactionExpense, AccountID: a, Category: "Food", Date: utc(2025, 3, 2, 9)})
	env.post(t, repository.NewTransaction{Amount: 70, Type: repository.TransactionExpense, AccountID: a, Category: "Food", Date: utc(2025, 3, 9, 9)})
	svc := newAnalytics(env, utc(2025, 3, 12, 20), time.UTC)

	rows, err := svc.CategoryBreakdown(env.ctx, repository.CategoryExpense, PeriodThisMonth)
	require.NoError(t, err)
	assert.Equal(t, []CategoryAmount{{Category: "Food", Amount: 100, Percentage: 100}}, rows)
}

func TestBreakdownRoundingAndZeroTotal(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	a := env.account(t, "A", 0)
	r := DateRange{utc(2025, 1, 1, 0), utc(2025, 1, 31, 0)}
	env.post(t, repository.NewTransaction{Amount: 1, Type: repository.TransactionIncome, AccountID: a, Category: "Gift", Date: utc(2025, 1, 2, 0)})
	env.post(t, repository.NewTransaction{Amount: 7, Type: repository.TransactionIncome, AccountID: a, Category: "Salary", Date: utc(2025, 1, 3, 0)})
	env.post(t, repository.NewTransaction{Amount: 0, Type: repository.TransactionExpense, AccountID: a, Category: "Free", Date: utc(2025, 1, 3, 0)})
	svc := newAnalytics(env, utc(2025, 1, 15, 0), time.UTC)

	income, err := svc.CategoryBreakdownRange(env.ctx, repository.CategoryIncome, r)
	require.NoError(t, err)
	assert.Equal(t, []CategoryAmount{
		{Category: "Salary", Amount: 7, Percentage: 88},
		{Category: "Gift", Amount: 1, Percentage: 13},
	}, income)

	expense, err := svc.CategoryBreakdownRange(env.ctx, repository.CategoryExpense, r)
	require.NoError(t, err)
	assert.Equal(t, []CategoryAmount{{Category: "Free", Amount: 0, Percentage: 0}}, expense)

	_, err = svc.CategoryBreakdownRange(env.ctx, "transfer", r)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestTopCategoriesDefaultsToFive(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	a := env.account(t, "A", 0)
	for i, cat := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		env.post(t, repository.NewTransaction{
			Amount: float64(10 * (i + 1)), Type: repository.TransactionExpense, AccountID: a, Category: cat, Date: utc(2025, 3, 1+i, 9),
		})
	}
	svc := newAnalytics(env, utc(2025, 3, 20, 0), time.UTC)

	top, err := svc.TopCategories(env.ctx, PeriodThisMonth, 0)
	require.NoError(t, err)
	require.Len(t, top, DefaultTopCategories)
	assert.Equal(t, "G", top[0].Category)
	assert.Equal(t, "C", top[4].Category)

	top, err = svc.TopCategories(env.ctx, PeriodThisMonth, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 60.0, top[1].Amount)
}

func TestTotalsSparseAscendingBuckets(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	seedAnalytics(t, env)
	svc := newAnalytics(env, utc(2025, 3, 12, 20), time.UTC)

	days, err := svc.Totals(env.ctx, PeriodThisMonth, BucketDay)
	require.NoError(t, err)
	assert.Equal(t, []SeriesPoint{
		{Start: utc(2025, 3, 3, 0), Income: 1000},
		{Start: utc(2025, 3, 11, 0), Expenses: 30},
		{Start: utc(2025, 3, 12, 0), Expenses: 120},
	}, days, "the transfer-only day is not emitted")

	weeks, err := svc.Totals(env.ctx, PeriodThisYear, BucketWeek)
	require.NoError(t, err)
	assert.Equal(t, []SeriesPoint{
		{Start: utc(2025, 2, 24, 0), Expenses: 20},
		{Start: utc(2025, 3, 3, 0), Income: 1000},
		{Start: utc(2025, 3, 10, 0), Expenses: 150},
	}, weeks)

	months, err := svc.MonthlyTotals(env.ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, []SeriesPoint{
		{Start: utc(2025, 2, 1, 0), Expenses: 20},
		{Start: utc(2025, 3, 1, 0), Income: 1000, Expenses: 150},
	}, months)

	empty, err := svc.MonthlyTotals(env.ctx, 2019)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.Totals(env.ctx, PeriodThisMonth, "hour")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBucketsFollowConfiguredLocation(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Australia/Melbourne")
	require.NoError(t, err)
	env := setupService(t)
	a := env.account(t, "A", 0)
	// 2025-02-28 20:00 UTC is already 1 March in Melbourne.
	env.post(t, repository.NewTransaction{Amount: 15, Type: repository.TransactionExpense, AccountID: a, Date: utc(2025, 2, 28, 20)})
	svc := newAnalytics(env, time.Date(2025, 3, 5, 12, 0, 0, 0, loc), loc)

	months, err := svc.MonthlyTotals(env.ctx, 2025)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.True(t, months[0].Start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)))

	s, err := svc.Summary(env.ctx, PeriodThisMonth)
	require.NoError(t, err)
	assert.Equal(t, 15.0, s.Expenses)
}

package main

import (
	"context"
	"flag"
	"strconv"

	"github.com/google/subcommands"

	"github.com/jask/wizflow/internal/database/repository"
	"github.com/jask/wizflow/internal/service"
)

type summaryCmd struct {
	period string
	top    int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "income, expenses and category breakdown for a period" }
func (*summaryCmd) Usage() string {
	return `wizflow summary [-period today|week|month|year] [-top n]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "month", "today, week, month or year.")
	f.IntVar(&c.top, "top", service.DefaultTopCategories, "Number of top expense categories.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		p, err := service.ParsePeriod(c.period)
		if err != nil {
			return err
		}
		r, err := s.analytics.PeriodRange(p)
		if err != nil {
			return err
		}
		sum, err := s.analytics.SummaryRange(ctx, r)
		if err != nil {
			return err
		}
		sym := s.prefs.CurrencySymbol
		a.printf("%s %s\n\n", headingStyle.Render("Summary"),
			dimStyle.Render(r.Start.In(a.loc).Format(s.prefs.DateLayout())+" to "+r.End.In(a.loc).Format(s.prefs.DateLayout())))
		a.printf("%s %s\n", labelStyle.Render("Income:  "), incomeStyle.Render(money(sym, sum.Income)))
		a.printf("%s %s\n", labelStyle.Render("Expenses:"), expenseStyle.Render(money(sym, sum.Expenses)))
		a.printf("%s %s\n", labelStyle.Render("Net:     "), signed(sym, sum.Net))

		for _, side := range []repository.CategoryType{repository.CategoryExpense, repository.CategoryIncome} {
			rows, err := s.analytics.CategoryBreakdownRange(ctx, side, r)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				continue
			}
			title := "Expenses by category"
			if side == repository.CategoryIncome {
				title = "Income by category"
			}
			a.printf("\n%s\n%s", headingStyle.Render(title), table([]string{"Category", "Amount", "Share"}, breakdownRows(sym, rows)))
		}

		top, err := s.analytics.TopCategoriesRange(ctx, r, c.top)
		if err != nil {
			return err
		}
		if len(top) > 0 {
			a.printf("\n%s\n%s", headingStyle.Render("Top spending"), table([]string{"Category", "Amount", "Share"}, breakdownRows(sym, top)))
		}
		return nil
	})
}

func breakdownRows(sym string, rows []service.CategoryAmount) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Category, money(sym, r.Amount), strconv.Itoa(r.Percentage) + "%"})
	}
	return out
}

type seriesCmd struct {
	period string
	bucket string
	year   int
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "income and expense totals per day, week or month" }
func (*seriesCmd) Usage() string {
	return `wizflow series [-period today|week|month|year] [-bucket day|week|month]
wizflow series -year <yyyy>

  Buckets with no income or expense are omitted. -year prints the monthly totals of a
  calendar year.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "month", "today, week, month or year.")
	f.StringVar(&c.bucket, "bucket", "day", "day, week or month.")
	f.IntVar(&c.year, "year", 0, "Monthly totals for this calendar year.")
}

func (c *seriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		var (
			points []service.SeriesPoint
			layout = s.prefs.DateLayout()
			err    error
		)
		if c.year != 0 {
			points, err = s.analytics.MonthlyTotals(ctx, c.year)
			layout = "Jan 2006"
		} else {
			var p service.Period
			var b service.Bucket
			if p, err = service.ParsePeriod(c.period); err != nil {
				return err
			}
			if b, err = service.ParseBucket(c.bucket); err != nil {
				return err
			}
			if b == service.BucketMonth {
				layout = "Jan 2006"
			}
			points, err = s.analytics.Totals(ctx, p, b)
		}
		if err != nil {
			return err
		}
		sym := s.prefs.CurrencySymbol
		rows := make([][]string, 0, len(points))
		for _, p := range points {
			rows = append(rows, []string{
				p.Start.In(a.loc).Format(layout),
				incomeStyle.Render(money(sym, p.Income)),
				expenseStyle.Render(money(sym, p.Expenses)),
			})
		}
		a.printf("%s\n%s", headingStyle.Render("Totals"), table([]string{"Start", "Income", "Expenses"}, rows))
		if len(points) == 0 {
			a.printf("%s\n", dimStyle.Render("No income or expenses in range."))
		}
		return nil
	})
}

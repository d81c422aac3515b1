package testdata

import (
	"context"
	"math/rand"
	"time"

	"github.com/jask/wizflow/internal/database/repository"
)

// Poster posts a transaction with its balance effect.
type Poster interface {
	CreateTransaction(ctx context.Context, in repository.NewTransaction) (int64, error)
}

// Repos bundles repos used by Seed.
type Repos struct {
	Accounts *repository.AccountRepo
	Ledger   Poster
}

type titled struct {
	category string
	titles   []string
}

var (
	expenseTitles = []titled{
		{"Food & Dining", []string{"Lunch with team", "Pizza night", "Coffee"}},
		{"Groceries", []string{"Weekly groceries", "Farmers market"}},
		{"Transport", []string{"Bus pass", "Taxi home", "Fuel"}},
		{"Bills & Utilities", []string{"Electricity bill", "Internet"}},
		{"Entertainment", []string{"Cinema", "Streaming subscription"}},
		{"Shopping", []string{"New shoes", "Headphones"}},
	}
	incomeTitles = []titled{
		{"Salary", []string{"Monthly salary"}},
		{"Freelance", []string{"Logo design gig", "Consulting"}},
		{"Refund", []string{"Store refund"}},
	}
)

// Seed creates demo accounts and a few weeks of transactions posted through the ledger,
// ending at now. The category names match the built-in defaults.
func Seed(ctx context.Context, repos Repos, now time.Time, rng *rand.Rand) error {
	var ids []int64
	for _, a := range []repository.NewAccount{
		{Name: "Sample Checking", Balance: 1500, Currency: "USD", Icon: "business", Color: "#36A2EB", Type: repository.AccountBank},
		{Name: "Cash Wallet", Balance: 80, Currency: "USD", Icon: "wallet", Color: "#4CAF50", Type: repository.AccountCash},
		{Name: "Savings", Balance: 5000, Currency: "USD", Icon: "trending-up", Color: "#9966FF", Type: repository.AccountBank},
	} {
		id, err := repos.Accounts.Create(ctx, a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	gen := NewGenerator(rng, ids[:2])
	for i := 0; i < 30; i++ {
		in := gen.Transaction(now.AddDate(0, 0, -rng.Intn(45)))
		if in.Type == repository.TransactionTransfer {
			in.AccountID, in.ToAccountID = ids[0], &ids[2]
		}
		if _, err := repos.Ledger.CreateTransaction(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// Generator produces random but valid ledger inputs over a fixed set of accounts. Amounts
// are whole cents.
type Generator struct {
	rng      *rand.Rand
	accounts []int64
}

// NewGenerator needs at least two accounts so transfers are possible.
func NewGenerator(rng *rand.Rand, accounts []int64) *Generator {
	return &Generator{rng: rng, accounts: accounts}
}

func (g *Generator) amount() float64 {
	return float64(g.rng.Intn(500000)+1) / 100
}

func (g *Generator) pick(from []titled) (string, string) {
	t := from[g.rng.Intn(len(from))]
	return t.category, t.titles[g.rng.Intn(len(t.titles))]
}

func (g *Generator) transactionType() repository.TransactionType {
	switch r := g.rng.Intn(10); {
	case r < 6:
		return repository.TransactionExpense
	case r < 8:
		return repository.TransactionIncome
	}
	return repository.TransactionTransfer
}

// twoAccounts returns distinct source and destination accounts.
func (g *Generator) twoAccounts() (int64, int64) {
	i := g.rng.Intn(len(g.accounts))
	j := (i + 1 + g.rng.Intn(len(g.accounts)-1)) % len(g.accounts)
	return g.accounts[i], g.accounts[j]
}

// Transaction returns a new income, expense or transfer dated at date.
func (g *Generator) Transaction(date time.Time) repository.NewTransaction {
	in := repository.NewTransaction{
		Amount: g.amount(),
		Type:   g.transactionType(),
		Date:   date.UTC().Truncate(time.Millisecond),
	}
	switch in.Type {
	case repository.TransactionExpense:
		in.Category, in.Title = g.pick(expenseTitles)
		in.AccountID = g.accounts[g.rng.Intn(len(g.accounts))]
	case repository.TransactionIncome:
		in.Category, in.Title = g.pick(incomeTitles)
		in.AccountID = g.accounts[g.rng.Intn(len(g.accounts))]
	default:
		from, to := g.twoAccounts()
		in.AccountID, in.ToAccountID = from, &to
		in.Category, in.Title = repository.TransferCategory, "Move money"
	}
	return in
}

// Patch returns a random valid edit. It may change amount, type and accounts together,
// or only cosmetic fields.
func (g *Generator) Patch() repository.TransactionPatch {
	var p repository.TransactionPatch
	if g.rng.Intn(2) == 0 {
		amt := g.amount()
		p.Amount = &amt
	}
	switch g.rng.Intn(4) {
	case 0:
		typ := repository.TransactionExpense
		acct := g.accounts[g.rng.Intn(len(g.accounts))]
		cat := "Shopping"
		p.Type, p.AccountID, p.Category = &typ, &acct, &cat
	case 1:
		typ := repository.TransactionIncome
		cat := "Salary"
		p.Type, p.Category = &typ, &cat
	case 2:
		typ := repository.TransactionTransfer
		from, to := g.twoAccounts()
		cat := repository.TransferCategory
		p.Type, p.AccountID, p.ToAccountID, p.Category = &typ, &from, &to, &cat
	default:
		title := "Edited"
		p.Title = &title
	}
	return p
}

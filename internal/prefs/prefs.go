// Package prefs types the flat settings store. Missing or malformed values fall back to
// defaults; the store itself only ever sees strings.
package prefs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jask/wizflow/internal/apperrors"
)

// Setting keys.
const (
	KeyTheme            = "theme"
	KeyCurrency         = "currency"
	KeyCurrencySymbol   = "currencySymbol"
	KeyDateFormat       = "dateFormat"
	KeyDefaultAccountID = "defaultAccountId"
	KeyFirstDayOfWeek   = "firstDayOfWeek"
	KeyLastBackupDate   = "lastBackupDate"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// DateFormats lists the accepted dateFormat values.
var DateFormats = []string{"MM/dd/yyyy", "dd/MM/yyyy", "yyyy-MM-dd"}

// CurrencySymbols maps supported currency codes to display symbols.
var CurrencySymbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "CAD": "$",
	"AUD": "$", "BDT": "৳", "CNY": "¥", "INR": "₹",
}

// Store is the settings persistence the preferences read and write.
type Store interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type Prefs struct {
	Theme          Theme
	Currency       string
	CurrencySymbol string
	DateFormat     string
	// DefaultAccountID is nil when no default account is chosen.
	DefaultAccountID *int64
	// FirstDayOfWeek is 0 for Sunday, 1 for Monday.
	FirstDayOfWeek int
	LastBackupDate *time.Time
}

func Defaults() Prefs {
	return Prefs{
		Theme:          ThemeSystem,
		Currency:       "USD",
		CurrencySymbol: "$",
		DateFormat:     "MM/dd/yyyy",
		FirstDayOfWeek: 0,
	}
}

// Load reads every setting and types it.
func Load(ctx context.Context, store Store) (Prefs, error) {
	values, err := store.All(ctx)
	if err != nil {
		return Prefs{}, fmt.Errorf("load settings: %w", err)
	}
	return Parse(values), nil
}

// Parse types raw settings, keeping the default for anything absent or invalid.
func Parse(values map[string]string) Prefs {
	p := Defaults()
	if t, err := parseTheme(values[KeyTheme]); err == nil {
		p.Theme = t
	}
	if c, err := parseCurrency(values[KeyCurrency]); err == nil {
		p.Currency = c
		p.CurrencySymbol = symbolFor(c)
	}
	if s := values[KeyCurrencySymbol]; s != "" {
		p.CurrencySymbol = s
	}
	if f, err := parseDateFormat(values[KeyDateFormat]); err == nil {
		p.DateFormat = f
	}
	if id, err := parseAccountID(values[KeyDefaultAccountID]); err == nil {
		p.DefaultAccountID = id
	}
	if d, err := parseFirstDay(values[KeyFirstDayOfWeek]); err == nil {
		p.FirstDayOfWeek = d
	}
	if v := values[KeyLastBackupDate]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			p.LastBackupDate = &t
		}
	}
	return p
}

// Set validates value for key and persists its canonical string form. Setting the
// currency also updates the currency symbol. An empty defaultAccountId clears it.
func Set(ctx context.Context, store Store, key, value string) error {
	value = strings.TrimSpace(value)
	var canonical string
	switch key {
	case KeyTheme:
		t, err := parseTheme(value)
		if err != nil {
			return err
		}
		canonical = string(t)
	case KeyCurrency:
		c, err := parseCurrency(value)
		if err != nil {
			return err
		}
		if err := store.Set(ctx, KeyCurrency, c); err != nil {
			return err
		}
		return store.Set(ctx, KeyCurrencySymbol, symbolFor(c))
	case KeyCurrencySymbol:
		if value == "" {
			return apperrors.Validation("currency symbol cannot be empty")
		}
		canonical = value
	case KeyDateFormat:
		f, err := parseDateFormat(value)
		if err != nil {
			return err
		}
		canonical = f
	case KeyDefaultAccountID:
		if value == "" || value == "-1" {
			break
		}
		id, err := parseAccountID(value)
		if err != nil {
			return err
		}
		canonical = strconv.FormatInt(*id, 10)
	case KeyFirstDayOfWeek:
		d, err := parseFirstDay(value)
		if err != nil {
			return err
		}
		canonical = strconv.Itoa(d)
	case KeyLastBackupDate:
		t, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return apperrors.Validation("lastBackupDate %q: %v", value, err)
		}
		canonical = t.UTC().Format(time.RFC3339Nano)
	default:
		return apperrors.Validation("unknown setting %q", key)
	}
	return store.Set(ctx, key, canonical)
}

func parseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return t, nil
	}
	return "", apperrors.Validation("theme %q", s)
}

func parseCurrency(s string) (string, error) {
	c := strings.ToUpper(s)
	if len(c) != 3 {
		return "", apperrors.Validation("currency %q", s)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", apperrors.Validation("currency %q", s)
		}
	}
	return c, nil
}

func symbolFor(code string) string {
	if s, ok := CurrencySymbols[code]; ok {
		return s
	}
	return code
}

func parseDateFormat(s string) (string, error) {
	for _, f := range DateFormats {
		if f == s {
			return f, nil
		}
	}
	return "", apperrors.Validation("date format %q", s)
}

func parseAccountID(s string) (*int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.Validation("account id %q", s)
	}
	return &id, nil
}

func parseFirstDay(s string) (int, error) {
	switch s {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, apperrors.Validation("first day of week %q", s)
}

// DateLayout is the time layout for the DateFormat preference.
func (p Prefs) DateLayout() string {
	switch p.DateFormat {
	case "dd/MM/yyyy":
		return "02/01/2006"
	case "yyyy-MM-dd":
		return "2006-01-02"
	}
	return "01/02/2006"
}

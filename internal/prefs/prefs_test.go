package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/wizflow/internal/apperrors"
)

type memStore map[string]string

func (m memStore) All(context.Context) (map[string]string, error) { return m, nil }

func (m memStore) Set(_ context.Context, k, v string) error {
	m[k] = v
	return nil
}

func TestParseDefaults(t *testing.T) {
	p := Parse(nil)
	assert.Equal(t, Defaults(), p)
	assert.Equal(t, ThemeSystem, p.Theme)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "MM/dd/yyyy", p.DateFormat)
	assert.Nil(t, p.DefaultAccountID)
	assert.Equal(t, 0, p.FirstDayOfWeek)
}

func TestParseFallsBackOnInvalid(t *testing.T) {
	p := Parse(map[string]string{
		KeyTheme:            "neon",
		KeyCurrency:         "eur",
		KeyDateFormat:       "yyyy/MM",
		KeyDefaultAccountID: "abc",
		KeyFirstDayOfWeek:   "3",
	})
	assert.Equal(t, ThemeSystem, p.Theme)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, "€", p.CurrencySymbol)
	assert.Equal(t, "MM/dd/yyyy", p.DateFormat)
	assert.Nil(t, p.DefaultAccountID)
	assert.Equal(t, 0, p.FirstDayOfWeek)
}

func TestSetValidatesAndCanonicalizes(t *testing.T) {
	ctx := context.Background()
	store := memStore{}

	require.NoError(t, Set(ctx, store, KeyCurrency, "bdt"))
	assert.Equal(t, "BDT", store[KeyCurrency])
	assert.Equal(t, "৳", store[KeyCurrencySymbol])

	require.NoError(t, Set(ctx, store, KeyFirstDayOfWeek, "1"))
	require.NoError(t, Set(ctx, store, KeyDefaultAccountID, "7"))
	require.NoError(t, Set(ctx, store, KeyDateFormat, "yyyy-MM-dd"))

	p, err := Load(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, p.DefaultAccountID)
	assert.Equal(t, int64(7), *p.DefaultAccountID)
	assert.Equal(t, 1, p.FirstDayOfWeek)
	assert.Equal(t, "yyyy-MM-dd", p.DateFormat)

	require.NoError(t, Set(ctx, store, KeyDefaultAccountID, ""))
	assert.Equal(t, "", store[KeyDefaultAccountID])
	p, err = Load(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, p.DefaultAccountID)

	for key, bad := range map[string]string{
		KeyTheme:          "neon",
		KeyFirstDayOfWeek: "7",
		"fontSize":        "12",
	} {
		require.ErrorIs(t, Set(ctx, store, key, bad), apperrors.ErrValidation, key)
	}
}

func TestDateLayout(t *testing.T) {
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for format, want := range map[string]string{
		"MM/dd/yyyy": "03/09/2024",
		"dd/MM/yyyy": "09/03/2024",
		"yyyy-MM-dd": "2024-03-09",
	} {
		assert.Equal(t, want, day.Format(Prefs{DateFormat: format}.DateLayout()), format)
	}
}

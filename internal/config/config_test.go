package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("WIZFLOW_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "wizflow", "wizflow.db"), cfg.Database.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, "Local", cfg.Locale.Timezone)
	require.Equal(t, "USD", cfg.Locale.DefaultCurrency)
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "cfg", "config.toml")
	t.Setenv("WIZFLOW_CONFIG", path)

	want := Config{
		Database: DatabaseConfig{Path: filepath.Join(dir, "money.db")},
		Log:      LogConfig{Level: "debug", Format: "json"},
		Locale:   LocaleConfig{Timezone: "Asia/Dhaka", DefaultCurrency: "BDT"},
	}
	require.NoError(t, Save(want))
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WIZFLOW_CONFIG", "")
	t.Setenv("WIZFLOW_LOCALE_DEFAULT_CURRENCY", "eur")
	t.Setenv("WIZFLOW_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "EUR", cfg.Locale.DefaultCurrency)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"WIZFLOW_LOG_FORMAT":              "xml",
		"WIZFLOW_LOCALE_DEFAULT_CURRENCY": "DOLLAR",
		"WIZFLOW_LOCALE_TIMEZONE":         "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("WIZFLOW_CONFIG", "")
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log\nlevel = "), 0o644))
	t.Setenv("WIZFLOW_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

func TestFile(t *testing.T) {
	t.Setenv("HOME", "/home/me")
	t.Setenv("WIZFLOW_CONFIG", "")
	require.Equal(t, filepath.Join("/home/me", ".config", "wizflow", "config.toml"), File())
	t.Setenv("WIZFLOW_CONFIG", "/etc/wizflow.toml")
	require.Equal(t, "/etc/wizflow.toml", File())
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WIZFLOW_DATABASE_PATH.
const EnvPrefix = "WIZFLOW"

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Locale   LocaleConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig controls the slog handler built at startup.
type LogConfig struct {
	Level  string
	Format string
}

// LocaleConfig holds the time zone used for period boundaries and the currency given to
// seeded accounts.
type LocaleConfig struct {
	Timezone        string
	DefaultCurrency string `mapstructure:"default_currency"`
}

func defaults() map[string]any {
	return map[string]any{
		"database.path":           filepath.Join(os.Getenv("HOME"), ".local", "share", "wizflow", "wizflow.db"),
		"log.level":               "info",
		"log.format":              "text",
		"locale.timezone":         "Local",
		"locale.default_currency": "USD",
	}
}

// File is the config file location: $WIZFLOW_CONFIG, else ~/.config/wizflow/config.toml.
func File() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "wizflow", "config.toml")
}

// Load reads configuration from an optional .env file, the config file and env, in
// increasing precedence. A missing file is not an error; a malformed one is.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(File())
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(File()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", File(), err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Locale.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Locale.DefaultCurrency))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	return c, c.Validate()
}

// Validate rejects values the application cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path is empty")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q: want text or json", c.Log.Format)
	}
	if len(c.Locale.DefaultCurrency) != 3 {
		return fmt.Errorf("config: locale.default_currency %q: want a 3-letter code", c.Locale.DefaultCurrency)
	}
	if tz := c.Locale.Timezone; tz != "" && tz != "Local" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("config: locale.timezone: %w", err)
		}
	}
	return nil
}

// Save writes cfg to File(), creating its directory if needed.
func Save(cfg Config) error {
	path := File()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	for k, val := range map[string]string{
		"database.path":           cfg.Database.Path,
		"log.level":               cfg.Log.Level,
		"log.format":              cfg.Log.Format,
		"locale.timezone":         cfg.Locale.Timezone,
		"locale.default_currency": cfg.Locale.DefaultCurrency,
	} {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

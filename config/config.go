// Package config loads settings from config.yaml, .env and the environment.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Screener   ScreenerConfig `yaml:"screener" mapstructure:"screener"`
	Sheets     SheetsConfig   `yaml:"sheets" mapstructure:"sheets"`
	Watchlists []Watchlist    `yaml:"watchlists" mapstructure:"watchlists"`
	Scrape     ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Output     OutputConfig   `yaml:"output" mapstructure:"output"`
	Redis      RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Server     ServerConfig   `yaml:"server" mapstructure:"server"`
	Log        LogConfig      `yaml:"log" mapstructure:"log"`
}

// ScreenerConfig holds the data site login.
type ScreenerConfig struct {
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// SheetsConfig configures the Google Sheets sync.
type SheetsConfig struct {
	Enabled           bool   `yaml:"enabled" mapstructure:"enabled"`
	SpreadsheetID     string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	CredentialsBase64 string `yaml:"credentials_base64" mapstructure:"credentials_base64"`
	ClearRange        string `yaml:"clear_range" mapstructure:"clear_range"`
	WriteRange        string `yaml:"write_range" mapstructure:"write_range"`
}

// Watchlist is a named listing page; an empty URL disables it.
type Watchlist struct {
	Name string `yaml:"name" mapstructure:"name"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// ScrapeConfig holds the browser timings.
type ScrapeConfig struct {
	PaceDelay   time.Duration `yaml:"pace_delay" mapstructure:"pace_delay"`
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	ListTimeout time.Duration `yaml:"list_timeout" mapstructure:"list_timeout"`
	LoginSettle time.Duration `yaml:"login_settle" mapstructure:"login_settle"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// OutputConfig configures the workbook output.
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Workbook bool   `yaml:"workbook" mapstructure:"workbook"`
}

// RedisConfig configures the snapshot store. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default watchlists, filled from MY_STONKS_WATCHLIST_URL and
// CORE_WATCHLIST_URL when config.yaml lists none.
var defaultWatchlists = []struct{ name, key string }{
	{"My Stonks", "watchlist.my_stonks_url"},
	{"Core Watchlist", "watchlist.core_url"},
}

var envBindings = map[string]string{
	"screener.username":         "SCREENER_USERNAME",
	"screener.password":         "SCREENER_PASSWORD",
	"screener.login_url":        "SCREENER_LOGIN_URL",
	"sheets.spreadsheet_id":     "GOOGLE_SHEET_ID",
	"sheets.credentials_base64": "GOOGLE_CREDENTIALS_BASE64",
	"watchlist.my_stonks_url":   "MY_STONKS_WATCHLIST_URL",
	"watchlist.core_url":        "CORE_WATCHLIST_URL",
	"scrape.pace_delay":         "SCRAPE_PACE_DELAY",
	"scrape.settle_delay":       "SCRAPE_SETTLE_DELAY",
	"output.dir":                "OUTPUT_DIR",
	"redis.addr":                "REDIS_ADDR",
	"redis.password":            "REDIS_PASSWORD",
	"server.port":               "PORT",
	"log.level":                 "LOG_LEVEL",
	"log.format":                "LOG_FORMAT",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("screener.login_url", "https://www.screener.in/login/")
	v.SetDefault("sheets.enabled", true)
	v.SetDefault("sheets.clear_range", "Sheet1!A1:Z1000")
	v.SetDefault("sheets.write_range", "Sheet1!A1")
	v.SetDefault("scrape.pace_delay", "1s")
	v.SetDefault("scrape.settle_delay", "2s")
	v.SetDefault("scrape.list_timeout", "10s")
	v.SetDefault("scrape.login_settle", "3s")
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.workbook", true)
	v.SetDefault("redis.ttl", "168h")
	v.SetDefault("server.port", 8000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if len(cfg.Watchlists) == 0 {
		for _, wl := range defaultWatchlists {
			cfg.Watchlists = append(cfg.Watchlists, Watchlist{Name: wl.name, URL: v.GetString(wl.key)})
		}
	}

	return &cfg, nil
}

// ActiveWatchlists returns the watchlists that have a URL, in order.
func (c *Config) ActiveWatchlists() []Watchlist {
	var out []Watchlist
	for _, wl := range c.Watchlists {
		if strings.TrimSpace(wl.URL) != "" {
			out = append(out, wl)
		}
	}
	return out
}

// Validate checks the settings a command needs before it starts.
func (c *Config) Validate(mode string) error {
	var missing []string
	require := func(val, key string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key+" is required")
		}
	}

	switch mode {
	case "run":
		require(c.Screener.Username, "screener.username (SCREENER_USERNAME)")
		require(c.Screener.Password, "screener.password (SCREENER_PASSWORD)")
		if c.Sheets.Enabled {
			require(c.Sheets.SpreadsheetID, "sheets.spreadsheet_id (GOOGLE_SHEET_ID)")
			require(c.Sheets.CredentialsBase64, "sheets.credentials_base64 (GOOGLE_CREDENTIALS_BASE64)")
		}
	case "serve":
		require(c.Redis.Addr, "redis.addr (REDIS_ADDR)")
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// inTempDir runs the test from an empty directory so no config.yaml or .env is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.screener.in/login/", cfg.Screener.LoginURL)
	assert.True(t, cfg.Sheets.Enabled)
	assert.Equal(t, "Sheet1!A1:Z1000", cfg.Sheets.ClearRange)
	assert.Equal(t, "Sheet1!A1", cfg.Sheets.WriteRange)
	assert.Equal(t, time.Second, cfg.Scrape.PaceDelay)
	assert.Equal(t, 2*time.Second, cfg.Scrape.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Scrape.ListTimeout)
	assert.Equal(t, 3*time.Second, cfg.Scrape.LoginSettle)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.True(t, cfg.Output.Workbook)
	assert.Equal(t, 168*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	require.Len(t, cfg.Watchlists, 2)
	assert.Equal(t, "My Stonks", cfg.Watchlists[0].Name)
	assert.Equal(t, "Core Watchlist", cfg.Watchlists[1].Name)
	assert.Empty(t, cfg.ActiveWatchlists())
}

func TestLoadFromEnv(t *testing.T) {
	inTempDir(t)
	clearEnv(t)
	t.Setenv("SCREENER_USERNAME", "me@example.com")
	t.Setenv("SCREENER_PASSWORD", "hunter2")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-123")
	t.Setenv("CORE_WATCHLIST_URL", "https://www.screener.in/watchlist/9/")
	t.Setenv("SCRAPE_PACE_DELAY", "0s")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.Screener.Username)
	assert.Equal(t, "hunter2", cfg.Screener.Password)
	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, time.Duration(0), cfg.Scrape.PaceDelay)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []Watchlist{{Name: "Core Watchlist", URL: "https://www.screener.in/watchlist/9/"}}, cfg.ActiveWatchlists())
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SCREENER_USERNAME=from-dotenv\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("SCREENER_USERNAME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Screener.Username)
}

func TestLoadWatchlistsFromYAML(t *testing.T) {
	dir := inTempDir(t)
	clearEnv(t)
	t.Setenv("MY_STONKS_WATCHLIST_URL", "https://ignored.example/")

	yaml := `
watchlists:
  - name: Banks
    url: https://www.screener.in/watchlist/1/
  - name: Disabled
    url: ""
  - name: Pharma
    url: https://www.screener.in/watchlist/2/
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Len(t, cfg.Watchlists, 3)
	active := cfg.ActiveWatchlists()
	require.Len(t, active, 2)
	assert.Equal(t, "Banks", active[0].Name)
	assert.Equal(t, "Pharma", active[1].Name)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func validRun() *Config {
	cfg := &Config{}
	cfg.Screener.Username = "user"
	cfg.Screener.Password = "pass"
	cfg.Sheets.Enabled = true
	cfg.Sheets.SpreadsheetID = "sheet"
	cfg.Sheets.CredentialsBase64 = "e30="
	cfg.Server.Port = 8000
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validRun().Validate("run"))
}

func TestValidateRun_MissingFields(t *testing.T) {
	cfg := &Config{}
	cfg.Sheets.Enabled = true

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCREENER_USERNAME")
	assert.Contains(t, err.Error(), "SCREENER_PASSWORD")
	assert.Contains(t, err.Error(), "GOOGLE_SHEET_ID")
	assert.Contains(t, err.Error(), "GOOGLE_CREDENTIALS_BASE64")
}

func TestValidateRun_SheetsDisabled(t *testing.T) {
	cfg := validRun()
	cfg.Sheets.Enabled = false
	cfg.Sheets.SpreadsheetID = ""
	cfg.Sheets.CredentialsBase64 = ""

	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateServe(t *testing.T) {
	cfg := validRun()
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")

	cfg.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	assert.Error(t, validRun().Validate("bogus"))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotes-export/internal/model"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, `
service:
  address: /data/recordings
  login: "42"
export:
  symbols: EURUSD|GBPUSD
  request: level2
  format: parquet
  from: "2024-01-01"
  to: "2024-01-08"
  chunk_size: 256
run:
  parallel: 4
  heartbeat: 10s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/recordings", cfg.Service.Address)
	assert.Equal(t, "42", cfg.Service.Login)
	assert.Equal(t, "EURUSD|GBPUSD", cfg.Export.Symbols)
	assert.Equal(t, "level2", cfg.Export.Request)
	assert.Equal(t, 256, cfg.Export.ChunkSize)
	assert.Equal(t, 4, cfg.Run.Parallel)
	assert.Equal(t, 10*time.Second, cfg.Run.Heartbeat)
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_QD_PASSWORD", "secret123")
	path := writeTempFile(t, `
service:
  password: ${TEST_QD_PASSWORD}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret123", cfg.Service.Password)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeTempFile(t, `
export:
  format: parquet
  dir: from-file
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("QD_EXPORT_FORMAT", "zip")
	t.Setenv("QD_RUN_PARALLEL", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "zip", cfg.Export.Format)
	assert.Equal(t, "from-file", cfg.Export.Dir)
	assert.Equal(t, 3, cfg.Run.Parallel)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeTempFile(t, "{}\n"))
	t.Setenv("QD_EXPORT_FORMAT", "hdf5")
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.format")
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2024, 3, 20, 15, 30, 0, 0, time.UTC)
	var cfg Config
	cfg.applyDefaults(now)

	assert.Equal(t, DefaultSymbols, cfg.Export.Symbols)
	assert.Equal(t, "ticks", cfg.Export.Request)
	assert.Equal(t, "H1", cfg.Export.Period)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, "2024-03-13", cfg.Export.To)
	assert.Equal(t, "2024-03-06", cfg.Export.From)
	assert.Equal(t, "-16..16", cfg.Export.VWAPExponents)
	assert.Equal(t, 128, cfg.Export.ChunkSize)
	assert.Equal(t, 100, cfg.Export.VWAPBatch)
	assert.Equal(t, 3, cfg.Export.MaxRetries)
	assert.Equal(t, time.Second, cfg.Export.RetryDelay)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults_KeepsSetValues(t *testing.T) {
	cfg := Config{Export: ExportConfig{From: "2024-01-01", To: "2024-02-01", MaxRetries: -1}}
	cfg.applyDefaults(time.Now())
	assert.Equal(t, "2024-01-01", cfg.Export.From)
	assert.Equal(t, "2024-02-01", cfg.Export.To)
	assert.Equal(t, -1, cfg.Export.MaxRetries)
}

func validConfig() Config {
	var cfg Config
	cfg.applyDefaults(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"missing address", func(c *Config) { c.Service.Address = "" }, "service.address is required"},
		{"negative rps", func(c *Config) { c.Service.RateLimit.RPS = -1 }, "service.rate_limit.rps"},
		{"unknown request", func(c *Config) { c.Export.Request = "trades" }, "export.request"},
		{"bad period", func(c *Config) { c.Export.Request = "bids"; c.Export.Period = "H2" }, "export.period"},
		{"bad format", func(c *Config) { c.Export.Format = "xlsx" }, "export.format"},
		{"bad from", func(c *Config) { c.Export.From = "yesterday" }, "export.from"},
		{"empty range", func(c *Config) { c.Export.From = c.Export.To }, "must be before export.to"},
		{"bad exponents", func(c *Config) { c.Export.Request = "vwap"; c.Export.VWAPExponents = "3..1" }, "export.vwap_exponents"},
		{"negative levels", func(c *Config) { c.Export.Levels = -2 }, "export.levels"},
		{"negative parallel", func(c *Config) { c.Run.Parallel = -1 }, "run.parallel"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_PeriodIgnoredForQuotes(t *testing.T) {
	cfg := validConfig()
	cfg.Export.Period = "H2"
	assert.NoError(t, cfg.Validate())
}

func TestParseExponents(t *testing.T) {
	got, err := parseExponents("-2..2")
	require.NoError(t, err)
	assert.Equal(t, []int{-2, -1, 0, 1, 2}, got)

	got, err = parseExponents("-16..16")
	require.NoError(t, err)
	assert.Len(t, got, 33)

	got, err = parseExponents("-5, 0,12")
	require.NoError(t, err)
	assert.Equal(t, []int{-5, 0, 12}, got)

	_, err = parseExponents("a..3")
	assert.Error(t, err)
	_, err = parseExponents("1,x")
	assert.Error(t, err)
}

func TestRequests(t *testing.T) {
	cfg := validConfig()
	cfg.Export.Request = "asks"
	cfg.Export.Period = "m5"
	cfg.Export.Format = "ZIP"

	reqs, err := cfg.Requests([]string{"EURUSD", "GBPUSD"}, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, model.SeriesBars, r.Series)
		assert.Equal(t, model.SideAsk, r.Side)
		assert.Equal(t, model.BarPeriod("M5"), r.Period)
		assert.Equal(t, model.FormatZip, r.Format)
		assert.NoError(t, r.Validate())
	}
	assert.Equal(t, "GBPUSD", reqs[1].Symbol)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), reqs[0].From)
}

func TestRequests_VWAP(t *testing.T) {
	cfg := validConfig()
	cfg.Export.Request = "vwap"
	cfg.Export.Format = "zip"

	reqs, err := cfg.Requests([]string{"EURUSD"}, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].VWAPExponents, 33)
	assert.NoError(t, reqs[0].Validate())
}

func TestRequests_Resume(t *testing.T) {
	cfg := validConfig()
	cfg.Export.From = "2024-01-01"
	cfg.Export.To = "2024-01-31"
	cfg.Export.Resume = true
	progress := map[string]string{
		"EURUSD ticks csv": "2024-01-10",
		"GBPUSD ticks csv": "2024-01-31",
		"USDJPY ticks csv": "2023-12-01",
	}

	reqs, err := cfg.Requests([]string{"EURUSD", "GBPUSD", "USDJPY"}, progress)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "EURUSD", reqs[0].Symbol)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), reqs[0].From)
	assert.Equal(t, "USDJPY", reqs[1].Symbol)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), reqs[1].From)
}

func TestProgressAndReportPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Export.Dir = "out"
	assert.Equal(t, filepath.Join("out", ".lastday.json"), cfg.ProgressPath())
	assert.Equal(t, "out", cfg.ReportDir())

	cfg.Run.ProgressPath = "ledger.json"
	cfg.Run.NoReport = true
	assert.Equal(t, "ledger.json", cfg.ProgressPath())
	assert.Empty(t, cfg.ReportDir())
}

package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration: a YAML file with ${VAR}
// expansion, overridden by QD_* environment variables.
type Config struct {
	Service ServiceConfig `yaml:"service" envconfig:"SERVICE"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
	Run     RunConfig     `yaml:"run" envconfig:"RUN"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
}

// ServiceConfig is the quote service session.
type ServiceConfig struct {
	Address        string          `yaml:"address" envconfig:"ADDRESS"` // recording root for the replay service
	Login          string          `yaml:"login" envconfig:"LOGIN"`
	Password       string          `yaml:"password" envconfig:"PASSWORD"`
	ConnectTimeout time.Duration   `yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig throttles stream opens. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" envconfig:"RPS"`
	Burst int     `yaml:"burst" envconfig:"BURST"`
}

// ExportConfig describes what to export. One request is built per symbol.
type ExportConfig struct {
	Symbols       string        `yaml:"symbols" envconfig:"SYMBOLS"`           // "EURUSD|GBPUSD", or "*" for every symbol the service lists
	SymbolsFile   string        `yaml:"symbols_file" envconfig:"SYMBOLS_FILE"` // .txt or .json, overrides Symbols
	Request       string        `yaml:"request" envconfig:"REQUEST"`           // bids | asks | ticks | level2 | vwap
	Period        string        `yaml:"period" envconfig:"PERIOD"`
	Format        string        `yaml:"format" envconfig:"FORMAT"` // csv | parquet | zip
	From          string        `yaml:"from" envconfig:"FROM"`
	To            string        `yaml:"to" envconfig:"TO"`
	Dir           string        `yaml:"dir" envconfig:"DIR"`
	VWAPExponents string        `yaml:"vwap_exponents" envconfig:"VWAP_EXPONENTS"` // "-16..16" or "-2,0,3"
	Levels        int           `yaml:"levels" envconfig:"LEVELS"`
	MaxBatch      int           `yaml:"max_batch" envconfig:"MAX_BATCH"`
	VWAPBatch     int           `yaml:"vwap_batch" envconfig:"VWAP_BATCH"`
	ChunkSize     int           `yaml:"chunk_size" envconfig:"CHUNK_SIZE"`
	StreamTimeout time.Duration `yaml:"stream_timeout" envconfig:"STREAM_TIMEOUT"`
	MaxRetries    int           `yaml:"max_retries" envconfig:"MAX_RETRIES"` // < 0 disables retries
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
	Resume        bool          `yaml:"resume" envconfig:"RESUME"` // start from the progress ledger date when later than From
}

// RunConfig tunes the runner.
type RunConfig struct {
	Parallel     int           `yaml:"parallel" envconfig:"PARALLEL"` // 0 runs every job at once
	Heartbeat    time.Duration `yaml:"heartbeat" envconfig:"HEARTBEAT"`
	ProgressPath string        `yaml:"progress_path" envconfig:"PROGRESS_PATH"`
	NoReport     bool          `yaml:"no_report" envconfig:"NO_REPORT"`
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL"` // debug | info | warn | error
}

// MetricsConfig: Textfile is a node-exporter textfile written after the run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" envconfig:"TEXTFILE"`
}

const (
	envConfigPath     = "CONFIG_PATH"
	envPrefix         = "QD"
	DefaultConfigPath = "configs/quotes-export.yaml"
)

// LoadConfig loads the file named by CONFIG_PATH (the default path may be
// absent), applies QD_* overrides and defaults, and validates the result.
func LoadConfig() (*Config, error) {
	path, explicit := os.LookupEnv(envConfigPath)
	if !explicit || path == "" {
		path = DefaultConfigPath
	}
	cfg, err := Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	cfg.applyDefaults(time.Now())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML config file and expands ${VAR} environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return &cfg, nil
}

// ProgressPath returns the progress ledger path, .lastday.json in the
// output directory unless configured.
func (c *Config) ProgressPath() string {
	if c.Run.ProgressPath != "" {
		return c.Run.ProgressPath
	}
	return filepath.Join(c.Export.Dir, ".lastday.json")
}

// ReportDir is where the run report goes, "" when disabled.
func (c *Config) ReportDir() string {
	if c.Run.NoReport {
		return ""
	}
	return c.Export.Dir
}

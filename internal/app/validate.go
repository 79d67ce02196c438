package app

import (
	"errors"
	"fmt"
	"strings"

	"quotes-export/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Service.Address == "" {
		return errors.New("service.address is required")
	}
	if c.Service.Login == "" {
		return errors.New("service.login is required")
	}
	if c.Service.RateLimit.RPS < 0 {
		return fmt.Errorf("service.rate_limit.rps must be >= 0, got %g", c.Service.RateLimit.RPS)
	}
	if c.Service.RateLimit.RPS > 0 && c.Service.RateLimit.Burst < 1 {
		return errors.New("service.rate_limit.burst must be >= 1")
	}

	if err := c.Export.validate("export"); err != nil {
		return err
	}

	if c.Run.Parallel < 0 {
		return errors.New("run.parallel must be >= 0")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

func (e *ExportConfig) validate(prefix string) error {
	series, _, err := model.ParseRequestKind(e.Request)
	if err != nil {
		return fmt.Errorf("%s.request: %w", prefix, err)
	}
	if series == model.SeriesBars {
		if _, err := model.ParseBarPeriod(e.Period); err != nil {
			return fmt.Errorf("%s.period: %w", prefix, err)
		}
	}
	switch model.Format(strings.ToLower(e.Format)) {
	case model.FormatCSV, model.FormatParquet, model.FormatZip:
	default:
		return fmt.Errorf("%s.format must be one of csv, parquet, zip, got %q", prefix, e.Format)
	}
	from, err := parseDate(e.From)
	if err != nil {
		return fmt.Errorf("%s.from: %w", prefix, err)
	}
	to, err := parseDate(e.To)
	if err != nil {
		return fmt.Errorf("%s.to: %w", prefix, err)
	}
	if !to.After(from) {
		return fmt.Errorf("%s.from (%s) must be before %s.to (%s)", prefix, e.From, prefix, e.To)
	}
	if e.Dir == "" {
		return fmt.Errorf("%s.dir is required", prefix)
	}
	if series == model.SeriesVWAP {
		exps, err := parseExponents(e.VWAPExponents)
		if err != nil {
			return fmt.Errorf("%s.vwap_exponents: %w", prefix, err)
		}
		if len(exps) == 0 {
			return fmt.Errorf("%s.vwap_exponents is empty", prefix)
		}
	}
	if e.Levels < 0 {
		return fmt.Errorf("%s.levels must be >= 0", prefix)
	}
	if e.ChunkSize < 1 {
		return fmt.Errorf("%s.chunk_size must be >= 1", prefix)
	}
	if e.VWAPBatch < 1 {
		return fmt.Errorf("%s.vwap_batch must be >= 1", prefix)
	}
	if e.StreamTimeout < 0 {
		return fmt.Errorf("%s.stream_timeout must be >= 0", prefix)
	}
	return nil
}

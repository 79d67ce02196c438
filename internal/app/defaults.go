package app

import (
	"time"

	"quotes-export/internal/chunked"
	"quotes-export/internal/encoder"
	"quotes-export/internal/export"
)

// Default values for optional configuration fields.
const (
	DefaultAddress        = "recordings"
	DefaultLogin          = "100"
	DefaultConnectTimeout = 30 * time.Second
	DefaultSymbols        = "EURUSD"
	DefaultRequest        = "ticks"
	DefaultPeriod         = "H1"
	DefaultFormat         = "csv"
	DefaultDir            = "quotes"
	DefaultVWAPExponents  = "-16..16"
	DefaultStreamTimeout  = time.Minute
	DefaultHeartbeat      = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultRateBurst      = 1
)

func (c *Config) applyDefaults(now time.Time) {
	// Service defaults
	if c.Service.Address == "" {
		c.Service.Address = DefaultAddress
	}
	if c.Service.Login == "" {
		c.Service.Login = DefaultLogin
	}
	if c.Service.ConnectTimeout == 0 {
		c.Service.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Service.RateLimit.RPS > 0 && c.Service.RateLimit.Burst == 0 {
		c.Service.RateLimit.Burst = DefaultRateBurst
	}

	// Export defaults
	if c.Export.Symbols == "" {
		c.Export.Symbols = DefaultSymbols
	}
	if c.Export.Request == "" {
		c.Export.Request = DefaultRequest
	}
	if c.Export.Period == "" {
		c.Export.Period = DefaultPeriod
	}
	if c.Export.Format == "" {
		c.Export.Format = DefaultFormat
	}
	if c.Export.To == "" {
		c.Export.To = defaultTo(now).Format(dateLayout)
	}
	if c.Export.From == "" {
		if to, err := parseDate(c.Export.To); err == nil {
			c.Export.From = to.AddDate(0, 0, -7).Format(dateLayout)
		}
	}
	if c.Export.Dir == "" {
		c.Export.Dir = DefaultDir
	}
	if c.Export.VWAPExponents == "" {
		c.Export.VWAPExponents = DefaultVWAPExponents
	}
	if c.Export.VWAPBatch == 0 {
		c.Export.VWAPBatch = encoder.DefaultVWAPBatch
	}
	if c.Export.ChunkSize == 0 {
		c.Export.ChunkSize = chunked.DefaultChunkSize
	}
	if c.Export.StreamTimeout == 0 {
		c.Export.StreamTimeout = DefaultStreamTimeout
	}
	if c.Export.MaxRetries == 0 {
		c.Export.MaxRetries = export.DefaultMaxRetries
	}
	if c.Export.RetryDelay == 0 {
		c.Export.RetryDelay = export.DefaultRetryDelay
	}

	// Run defaults
	if c.Run.Heartbeat == 0 {
		c.Run.Heartbeat = DefaultHeartbeat
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// defaultTo is midnight UTC seven days before now; the default range is
// the week ending there.
func defaultTo(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
}

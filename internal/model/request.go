package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Format selects the output encoding of an export.
type Format string

const (
	FormatCSV     Format = "csv"     // delimited text
	FormatParquet Format = "parquet" // chunked array container
	FormatZip     Format = "zip"     // compressed text archive
)

// Series selects which record stream an export pulls.
type Series string

const (
	SeriesTicks  Series = "ticks"
	SeriesLevel2 Series = "level2"
	SeriesVWAP   Series = "vwap"
	SeriesBars   Series = "bars"
)

// ParseRequestKind maps the console request names (bids, asks, ticks, level2,
// vwap) onto a series and, for bars, the price side.
func ParseRequestKind(s string) (Series, Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bids", "bid":
		return SeriesBars, SideBid, nil
	case "asks", "ask":
		return SeriesBars, SideAsk, nil
	case "ticks":
		return SeriesTicks, SideBid, nil
	case "level2":
		return SeriesLevel2, SideBid, nil
	case "vwap":
		return SeriesVWAP, SideBid, nil
	default:
		return "", SideBid, fmt.Errorf("unknown request type: %s", s)
	}
}

// ExportRequest describes one export: a symbol, a half-open time range
// [From, To) and the series and format to produce.
type ExportRequest struct {
	Symbol        string    `validate:"required"`
	From          time.Time `validate:"required"`
	To            time.Time `validate:"required,gtfield=From"`
	Format        Format    `validate:"oneof=csv parquet zip"`
	Dir           string    `validate:"required"`
	Series        Series    `validate:"oneof=ticks level2 vwap bars"`
	Side          Side      `validate:"gte=0,lte=1"`
	Period        BarPeriod `validate:"required_if=Series bars"`
	VWAPExponents []int
	Levels        int `validate:"gte=0"` // fixed level-2 slot count; 0 takes it from the first record
	MaxBatch      int // upstream batch size hint, <= 0 lets the service decide
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the request fields.
func (r ExportRequest) Validate() error {
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid export request for %q: %w", r.Symbol, err)
	}
	if r.Series == SeriesVWAP && len(r.VWAPExponents) == 0 {
		return fmt.Errorf("invalid export request for %q: vwap needs at least one depth exponent", r.Symbol)
	}
	return nil
}

// Level2 reports whether full book depth is requested.
func (r ExportRequest) Level2() bool { return r.Series == SeriesLevel2 }

const fileDate = "20060102"

// FileName returns the artifact base name for ext (without dot).
//
//	quotes: {symbol}[ level2] {from} {to}.ext
//	bars:   {symbol} {side} {period} {from} {to}.ext
//	zip:    {symbol}_{series}_{from}_{to}.zip
func (r ExportRequest) FileName(ext string) string {
	from, to := r.From.UTC().Format(fileDate), r.To.UTC().Format(fileDate)
	if r.Format == FormatZip {
		series := string(r.Series)
		if r.Series == SeriesBars {
			series += "_" + string(r.Period)
		}
		return fmt.Sprintf("%s_%s_%s_%s.%s", r.Symbol, series, from, to, ext)
	}
	if r.Series == SeriesBars {
		return fmt.Sprintf("%s %s %s %s %s.%s", r.Symbol, r.Side, r.Period, from, to, ext)
	}
	level := ""
	if r.Level2() {
		level = " level2"
	}
	return fmt.Sprintf("%s%s %s %s.%s", r.Symbol, level, from, to, ext)
}

// EntryName names the archive entry holding a quote series or one bar side.
func (r ExportRequest) EntryName(side Side) string {
	if r.Series == SeriesBars {
		return fmt.Sprintf("%s_%s_%s.csv", r.Symbol, side, r.Period)
	}
	return fmt.Sprintf("%s_%s.csv", r.Symbol, r.Series)
}

// VWAPEntryName names the archive entry of one depth exponent, e.g. EURUSD_vwap_-05.csv.
func (r ExportRequest) VWAPEntryName(exponent int) string {
	return fmt.Sprintf("%s_vwap_%+03d.csv", r.Symbol, exponent)
}

// ExponentRange returns the inclusive range [lo, hi].
func ExponentRange(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for e := lo; e <= hi; e++ {
		out = append(out, e)
	}
	return out
}

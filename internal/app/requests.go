package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quotes-export/internal/export"
	"quotes-export/internal/model"
)

const dateLayout = "2006-01-02"

// parseDate accepts a date (UTC midnight) or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use %s or RFC 3339)", s, dateLayout)
	}
	return t.UTC(), nil
}

// parseExponents reads "lo..hi" or a comma separated list.
func parseExponents(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if lo, hi, ok := strings.Cut(s, ".."); ok {
		l, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid exponent range %q", s)
		}
		h, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil || h < l {
			return nil, fmt.Errorf("invalid exponent range %q", s)
		}
		return model.ExponentRange(l, h), nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		e, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exponent %q", p)
		}
		out = append(out, e)
	}
	return out, nil
}

// Requests builds one export request per symbol. With Resume set, a symbol
// whose ledger date lies inside the range starts from that date; one already
// exported up to To is dropped.
func (c *Config) Requests(symbols []string, progress map[string]string) ([]model.ExportRequest, error) {
	e := c.Export
	series, side, err := model.ParseRequestKind(e.Request)
	if err != nil {
		return nil, err
	}
	from, err := parseDate(e.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(e.To)
	if err != nil {
		return nil, err
	}
	tmpl := model.ExportRequest{
		From:     from,
		To:       to,
		Format:   model.Format(strings.ToLower(e.Format)),
		Dir:      e.Dir,
		Series:   series,
		Side:     side,
		Levels:   e.Levels,
		MaxBatch: e.MaxBatch,
	}
	if series == model.SeriesBars {
		if tmpl.Period, err = model.ParseBarPeriod(e.Period); err != nil {
			return nil, err
		}
	}
	if series == model.SeriesVWAP {
		if tmpl.VWAPExponents, err = parseExponents(e.VWAPExponents); err != nil {
			return nil, err
		}
	}

	reqs := make([]model.ExportRequest, 0, len(symbols))
	for _, sym := range symbols {
		req := tmpl
		req.Symbol = sym
		if e.Resume {
			if last, ok := progress[export.ProgressKey(req)]; ok {
				d, err := time.Parse(dateLayout, last)
				if err == nil && !d.Before(req.To) {
					continue
				}
				if err == nil && d.After(req.From) {
					req.From = d
				}
			}
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

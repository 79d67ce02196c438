package export

import (
	"encoding/json"
	"log/slog"
	"os"

	"quotes-export/internal/model"
)

// ProgressUpdate records the end of the last range exported for a series.
type ProgressUpdate struct {
	Key  string // "{symbol} {series} {format}"
	Date string
}

// ProgressKey is the ledger key of a request.
func ProgressKey(req model.ExportRequest) string {
	return req.Symbol + " " + string(req.Series) + " " + string(req.Format)
}

// LoadProgress reads the progress ledger. A missing or corrupt file is empty.
func LoadProgress(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return make(map[string]string)
	}
	return m
}

// RunProgressWriter receives updates and persists to file (run as goroutine)
func RunProgressWriter(path string, updates <-chan ProgressUpdate) {
	m := LoadProgress(path)
	for u := range updates {
		if prev, ok := m[u.Key]; ok && prev > u.Date {
			continue
		}
		m[u.Key] = u.Date
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			slog.Warn("progress marshal error", "error", err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			slog.Warn("progress write error", "error", err)
		}
	}
}

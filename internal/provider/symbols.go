package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseSymbols splits a console symbol list such as "EURUSD|GBPUSD".
// Commas are accepted as separators too.
func ParseSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	return uniqueSymbols(fields)
}

// LoadSymbolsFromFile reads a list of symbols from a file.
// Supported formats:
//   - .txt  : one symbol per line, '#' lines are treated as comments
//   - .json : JSON array of strings
func LoadSymbolsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var symbols []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &symbols); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case ".txt":
		symbols = parseSymbolsFromText(string(content))
	default:
		return nil, fmt.Errorf("unsupported symbol file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	unique := uniqueSymbols(symbols)
	slog.Info("loaded symbols from file", "count", len(unique), "path", path)
	return unique, nil
}

// parseSymbolsFromText parses one symbol per non-empty, non-comment line.
func parseSymbolsFromText(s string) []string {
	var symbols []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			symbols = append(symbols, line)
		}
	}
	return symbols
}

// uniqueSymbols trims, upper-cases and drops empty and repeated symbols,
// keeping first-seen order.
func uniqueSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

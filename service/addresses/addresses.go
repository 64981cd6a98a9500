// Package addresses supplies the wallet address list for a fetch run.
package addresses

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// ReadFile reads wallet addresses from a CSV file. Every cell of every
// row is considered an address token; cells are trimmed and empty ones
// dropped. The result is deduplicated preserving first-seen order.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open address file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Address files are loose: rows may have any number of columns.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse address file %s: %w", path, err)
	}

	var addrs []string
	for _, row := range records {
		for _, cell := range row {
			if addr := strings.TrimSpace(cell); addr != "" {
				addrs = append(addrs, addr)
			}
		}
	}

	return Dedupe(addrs), nil
}

// Dedupe removes duplicate addresses while preserving the order of
// first appearance.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	ordered := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		ordered = append(ordered, item)
	}
	return ordered
}

// Package export handles the artifacts on either side of the
// conversion pipeline: the JSON transaction corpus and the accounting
// CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/brojonat/soltally/service/ledger"
)

// WriteRows writes the accounting CSV to w. The header row is always
// present, even with zero data rows.
func WriteRows(w io.Writer, rows []ledger.Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ledger.CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteRowsFile writes the accounting CSV to path, creating parent
// directories as needed.
func WriteRowsFile(path string, rows []ledger.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := WriteRows(f, rows); err != nil {
		return err
	}
	return f.Close()
}

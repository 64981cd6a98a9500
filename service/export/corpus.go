package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brojonat/soltally/service/ledger"
)

// WriteCorpus persists the fetched transaction corpus as an indented
// JSON artifact, creating parent directories as needed.
func WriteCorpus(path string, corpus ledger.Corpus) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(corpus, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}
	return nil
}

// ReadCorpus loads a corpus artifact written by WriteCorpus.
func ReadCorpus(path string) (ledger.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var corpus ledger.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to decode corpus file %s: %w", path, err)
	}
	return corpus, nil
}

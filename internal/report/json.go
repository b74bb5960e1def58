package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"call-audit-go/internal/domain"
)

// WriteCallJSON writes one result document per call into dir, named after
// the source recording. Returns the written paths.
func WriteCallJSON(dir string, batch *domain.BatchResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output dir: %w", err)
	}
	var paths []string
	for _, r := range batch.Results {
		name := strings.TrimSuffix(r.Call.Filename, filepath.Ext(r.Call.Filename))
		path := filepath.Join(dir, name+".audit.json")
		if err := writeJSON(path, r); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteBatchJSON writes the aggregated batch document.
func WriteBatchJSON(dir string, batch *domain.BatchResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("batch-%s.json", batch.BatchID))
	return path, writeJSON(path, batch)
}

func writeJSON(path string, v any) error {
	doc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

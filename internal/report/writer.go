package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileWriter writes finished reports to timestamped JSON files in a
// directory, in the indented, diffable shape downstream tools expect.
type FileWriter struct {
	dir string
}

// NewFileWriter creates a FileWriter rooted at dir. The directory is created
// on first write if needed.
func NewFileWriter(dir string) *FileWriter {
	if dir == "" {
		dir = "."
	}
	return &FileWriter{dir: dir}
}

// Write persists the report to "prices-<unix-millis>.json" under the writer's
// directory and returns the written path.
func (w *FileWriter) Write(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("prices-%d.json", time.Now().UnixMilli()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// ReadFile parses a previously written report file.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: parse %s: %w", path, err)
	}
	return &r, nil
}

// package formatter provides functions to export fetched datasets to files (JSON, CSV) and write download manifests
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/desertthunder/irx/internal/shared"
)

// ExportToCSV converts a slice of records to CSV.
//
// Columns are the sorted keys of the first record. Records missing a key get
// an empty cell; nested values (objects, arrays) are JSON-encoded into their
// cell. Chunked result sets are tabular, so non-object records are an error.
func ExportToCSV(records []any) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if len(records) == 0 {
		writer.Flush()
		return buf.Bytes(), writer.Error()
	}

	first, ok := records[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record 0 is not an object, cannot derive columns")
	}

	columns := make([]string, 0, len(first))
	for key := range first {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, record := range records {
		obj, ok := record.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is not an object", i)
		}

		row := make([]string, len(columns))
		for j, column := range columns {
			value, found := obj[column]
			if !found || value == nil {
				continue
			}
			cell, err := formatCell(value)
			if err != nil {
				return nil, fmt.Errorf("record %d column %s: %w", i, column, err)
			}
			row[j] = cell
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// formatCell renders a single CSV cell. Scalars print plainly, everything
// else round-trips through JSON.
func formatCell(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		// JSON numbers decode as float64; print integers without the point.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), nil
		}
		return fmt.Sprintf("%g", v), nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode nested value: %w", err)
		}
		return string(data), nil
	}
}

// ExportToJSON converts a payload to pretty-printed JSON with a trailing
// newline.
func ExportToJSON(v any) ([]byte, error) {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteCSVExport writes records to a CSV file at path.
func WriteCSVExport(records []any, path string) (string, error) {
	data, err := ExportToCSV(records)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes a payload to a JSON file at path.
func WriteJSONExport(v any, path string) (string, error) {
	data, err := ExportToJSON(v)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}

// Manifest summarizes a bulk download run.
type Manifest struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	OutputDirectory string          `json:"output_directory"`
	Format          string          `json:"format"`
	TotalPaths      int             `json:"total_paths"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	Entries         []ManifestEntry `json:"entries"`
}

// ManifestEntry records the outcome for one API path.
type ManifestEntry struct {
	Path         string   `json:"path"`
	Files        []string `json:"files,omitempty"`
	Records      int      `json:"records,omitempty"`
	Chunked      bool     `json:"chunked,omitempty"`
	LinkFollowed bool     `json:"link_followed,omitempty"`
	DurationMS   int64    `json:"duration_ms,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// WriteManifest writes a manifest JSON file at path.
func WriteManifest(manifest *Manifest, path string) error {
	if manifest == nil {
		return fmt.Errorf("nil manifest")
	}

	if _, err := WriteJSONExport(manifest, path); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

package formatter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExportToCSV(t *testing.T) {
	t.Run("Columns From Sorted Keys Of First Record", func(t *testing.T) {
		records := []any{
			map[string]any{"track": "Okayama", "car_id": float64(42), "laps": float64(21)},
			map[string]any{"track": "Suzuka", "car_id": float64(7), "laps": float64(18)},
		}

		data, err := ExportToCSV(records)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(rows) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(rows))
		}
		wantHeader := []string{"car_id", "laps", "track"}
		for i, col := range wantHeader {
			if rows[0][i] != col {
				t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
			}
		}
		if rows[1][0] != "42" || rows[1][2] != "Okayama" {
			t.Errorf("row 1 = %v", rows[1])
		}
	})

	t.Run("Missing Keys Get Empty Cells", func(t *testing.T) {
		records := []any{
			map[string]any{"name": "a", "value": float64(1)},
			map[string]any{"name": "b"},
		}

		data, err := ExportToCSV(records)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, _ := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if rows[2][1] != "" {
			t.Errorf("missing key cell = %q, want empty", rows[2][1])
		}
	})

	t.Run("Nested Values Are JSON Encoded", func(t *testing.T) {
		records := []any{
			map[string]any{
				"name":    "event",
				"drivers": []any{"a", "b"},
				"meta":    map[string]any{"laps": float64(10)},
			},
		}

		data, err := ExportToCSV(records)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, _ := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		// Columns sort to drivers, meta, name.
		if rows[1][0] != `["a","b"]` {
			t.Errorf("drivers cell = %q, want JSON array", rows[1][0])
		}
		if rows[1][1] != `{"laps":10}` {
			t.Errorf("meta cell = %q, want JSON object", rows[1][1])
		}
	})

	t.Run("Scalar Formatting", func(t *testing.T) {
		records := []any{
			map[string]any{"flag": true, "avg": 1.5, "count": float64(3)},
		}

		data, err := ExportToCSV(records)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, _ := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		// Columns sort to avg, count, flag.
		if rows[1][0] != "1.5" {
			t.Errorf("avg = %q, want 1.5", rows[1][0])
		}
		if rows[1][1] != "3" {
			t.Errorf("count = %q, want 3 without a decimal point", rows[1][1])
		}
		if rows[1][2] != "true" {
			t.Errorf("flag = %q, want true", rows[1][2])
		}
	})

	t.Run("Empty Records", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if len(data) != 0 {
			t.Errorf("expected empty output, got %q", string(data))
		}
	})

	t.Run("Non Object Records Fail", func(t *testing.T) {
		if _, err := ExportToCSV([]any{"just a string"}); err == nil {
			t.Error("expected an error for a non-object record")
		}

		records := []any{map[string]any{"a": float64(1)}, float64(2)}
		if _, err := ExportToCSV(records); err == nil {
			t.Error("expected an error for a mixed record set")
		}
	})
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(map[string]any{"name": "irx"})
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	if !strings.HasSuffix(string(data), "\n") {
		t.Error("expected a trailing newline")
	}
	if !strings.Contains(string(data), "  \"name\"") {
		t.Errorf("expected indented output, got %q", string(data))
	}
}

func TestFileWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		records := []any{map[string]any{"a": float64(1)}}

		written, err := WriteCSVExport(records, path)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if written != path {
			t.Errorf("returned path = %q, want %q", written, path)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("CSV file not created at %s", path)
		}
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")

		if _, err := WriteJSONExport(map[string]any{"a": 1}, path); err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(content, &decoded); err != nil {
			t.Errorf("output is not valid JSON: %v", err)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		manifest := &Manifest{
			GeneratedAt:     time.Now(),
			OutputDirectory: "exports",
			Format:          "json",
			TotalPaths:      2,
			Successful:      1,
			Failed:          1,
			Entries: []ManifestEntry{
				{Path: "/data/car/assets", Files: []string{"car_assets.json"}, Records: 12},
				{Path: "/data/member/info", Error: "status 404"},
			},
		}

		if err := WriteManifest(manifest, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}

		var decoded Manifest
		if err := json.Unmarshal(content, &decoded); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if decoded.TotalPaths != 2 || decoded.Failed != 1 {
			t.Errorf("decoded manifest = %+v", decoded)
		}
		if decoded.Entries[1].Error != "status 404" {
			t.Errorf("entry error = %q", decoded.Entries[1].Error)
		}
	})

	t.Run("Nil Manifest Fails", func(t *testing.T) {
		if err := WriteManifest(nil, filepath.Join(t.TempDir(), "m.json")); err == nil {
			t.Error("expected an error for a nil manifest")
		}
	})
}

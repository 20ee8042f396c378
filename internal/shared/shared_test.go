package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()

	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateID() returned invalid UUID %q: %v", id, err)
	}

	if GenerateID() == id {
		t.Error("GenerateID() returned the same value twice")
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "irx.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error: %v", err)
	}

	logger.Info("hello")

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file should exist: %v", err)
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("In Memory", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase(:memory:) error: %v", err)
		}
		defer db.Close()

		ConfigureDatabase(db, 5, 2)

		if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
			t.Errorf("exec on in-memory database failed: %v", err)
		}
	})

	t.Run("File Backed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "irx.db")

		db, err := NewDatabase(path)
		if err != nil {
			t.Fatalf("NewDatabase(%s) error: %v", path, err)
		}
		defer db.Close()

		if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
			t.Fatalf("exec on file database failed: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("database file should exist: %v", err)
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"laps": 12}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if string(compact) != `{"laps":12}` {
		t.Errorf("compact output = %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("MarshalJSON(pretty) error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") || !strings.Contains(string(pretty), `"laps": 12`) {
		t.Errorf("pretty output = %s", pretty)
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("BROWSER Override", func(t *testing.T) {
		t.Setenv("BROWSER", "true")

		if err := OpenBrowser("http://example.com"); err != nil {
			t.Errorf("OpenBrowser() with BROWSER override error: %v", err)
		}
	})

	t.Run("Unsupported Platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")

		original := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = original }()

		err := OpenBrowser("http://example.com")
		if err == nil {
			t.Fatal("expected an error on an unsupported platform")
		}
		if !strings.Contains(err.Error(), "unsupported platform") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

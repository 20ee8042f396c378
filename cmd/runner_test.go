package main

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/irx/api"
	"github.com/desertthunder/irx/auth"
	"github.com/desertthunder/irx/internal/shared"
	tu "github.com/desertthunder/irx/internal/testing"
)

func memoryConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Credentials.ClientID = "test_client"
	config.Credentials.RedirectURI = "http://localhost:3000/callback"
	config.Database.Path = ":memory:"
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient builds one with the config timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.TimeoutSeconds = 7

			runner := NewRunner(RunnerOpts{
				Config:     config,
				HTTPClient: nil,
			})

			if runner.httpClient == nil {
				t.Fatal("expected a default httpClient")
			}
			if runner.httpClient.Timeout != config.API.Timeout() {
				t.Errorf("expected timeout %s, got %s", config.API.Timeout(), runner.httpClient.Timeout)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Fatal("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "data", "bulk", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("session", func(t *testing.T) {
		t.Run("builds lazily and caches", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: memoryConfig()})
			defer runner.Close()

			session, err := runner.session()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if session == nil {
				t.Fatal("expected an authenticator")
			}

			again, err := runner.session()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if again != session {
				t.Error("expected the cached authenticator on the second call")
			}
		})

		t.Run("returns the injected authenticator", func(t *testing.T) {
			injected, err := auth.New(auth.Config{ClientID: "id", RedirectURI: "http://localhost/cb"}, auth.Opts{})
			if err != nil {
				t.Fatalf("failed to build authenticator: %v", err)
			}

			runner := NewRunner(RunnerOpts{Auth: injected})

			session, err := runner.session()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if session != injected {
				t.Error("expected the injected authenticator")
			}
		})
	})

	t.Run("dataClient", func(t *testing.T) {
		t.Run("builds lazily and caches", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: memoryConfig()})
			defer runner.Close()

			client, err := runner.dataClient()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if client == nil {
				t.Fatal("expected a client")
			}

			again, err := runner.dataClient()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if again != client {
				t.Error("expected the cached client on the second call")
			}
		})

		t.Run("returns the injected client", func(t *testing.T) {
			injected := api.NewClient("http://example.com", nil, api.Opts{})
			runner := NewRunner(RunnerOpts{API: injected})

			client, err := runner.dataClient()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if client != injected {
				t.Error("expected the injected client")
			}
		})
	})

	t.Run("Close", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: memoryConfig()})

		if _, err := runner.database(); err != nil {
			t.Fatalf("failed to open database: %v", err)
		}

		runner.Close()
		if runner.db != nil {
			t.Error("expected the database handle to be released")
		}

		// Closing again is a no-op
		runner.Close()
	})
}

package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./irx.db" {
			t.Errorf("expected database path ./irx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.ClientID != "your_client_id" {
			t.Errorf("expected client_id your_client_id, got %s", config.Credentials.ClientID)
		}

		if config.Credentials.Scope != "iracing.auth" {
			t.Errorf("expected scope iracing.auth, got %s", config.Credentials.Scope)
		}

		if config.API.BaseURL != "https://members-ng.iracing.com" {
			t.Errorf("expected API base https://members-ng.iracing.com, got %s", config.API.BaseURL)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials]
client_id = "test_client_id"
redirect_uri = "http://localhost:3000/callback"
scope = "iracing.auth"
auth_url = "https://oauth.example.com/oauth2"

[api]
base_url = "https://api.example.com"
file_proxy_url = "http://localhost:8080/passthrough"
timeout_seconds = 15

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 9090
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 9090 {
			t.Errorf("expected server port 9090, got %d", config.Server.Port)
		}

		if config.Credentials.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Credentials.ClientID)
		}

		if config.API.Timeout() != 15*time.Second {
			t.Errorf("expected 15s timeout, got %s", config.API.Timeout())
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Timeout Default", func(t *testing.T) {
		var api APIConfig
		if api.Timeout() != 30*time.Second {
			t.Errorf("expected 30s default timeout, got %s", api.Timeout())
		}
	})

	t.Run("Server Addr", func(t *testing.T) {
		s := ServerConfig{Host: "127.0.0.1", Port: 8080}
		if s.Addr() != "127.0.0.1:8080" {
			t.Errorf("expected 127.0.0.1:8080, got %s", s.Addr())
		}
	})
}

package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains the OAuth client registration values.
//
// No client secret: the authorization flow is PKCE only.
type CredentialsConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
	Scope       string `toml:"scope"`
	AuthURL     string `toml:"auth_url"`
}

// APIConfig contains the data API endpoints and request settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	FileProxyURL   string `toml:"file_proxy_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the configured request timeout as a [time.Duration],
// defaulting to 30 seconds when unset.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains token database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local demo proxy server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port address the proxy server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

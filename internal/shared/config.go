package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	// PlaceholderToken and PlaceholderUsername are the compiled-in values that must be overridden.
	PlaceholderToken    = "YOUR_DISCOGS_TOKEN"
	PlaceholderUsername = "YOUR_DISCOGS_USERNAME"

	EnvToken    = "DISCOGS_TOKEN"
	EnvUsername = "DISCOGS_USER"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Discogs DiscogsConfig `toml:"discogs"`
	Export  ExportConfig  `toml:"export"`
	Server  ServerConfig  `toml:"server"`
}

// DiscogsConfig contains Discogs API credentials.
type DiscogsConfig struct {
	Token     string `toml:"token"`
	Username  string `toml:"username"`
	UserAgent string `toml:"user_agent"`
	BaseURL   string `toml:"base_url"`
}

// ExportConfig contains collection export settings.
type ExportConfig struct {
	Output  string   `toml:"output"`
	Folder  string   `toml:"folder"`
	PerPage int      `toml:"per_page"`
	Pace    Duration `toml:"pace"`
}

// ServerConfig contains local relay server settings.
type ServerConfig struct {
	Host      string   `toml:"host"`
	Port      int      `toml:"port"`
	Root      string   `toml:"root"`
	Upstream  string   `toml:"upstream"`
	Prefix    string   `toml:"prefix"`
	UserAgent string   `toml:"user_agent"`
	Timeout   Duration `toml:"timeout"`
}

// Addr returns the listen address for the server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Duration is a [time.Duration] that decodes from strings like "1.1s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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

// LoadDotEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ValidateDiscogs reports whether the Discogs credentials have been configured.
//
// Empty values and the compiled-in placeholders are both rejected.
func (c *Config) ValidateDiscogs() error {
	token, user := c.Discogs.Token, c.Discogs.Username
	switch {
	case token == "" || token == PlaceholderToken:
		return fmt.Errorf("%w: set %s or discogs.token", ErrMissingCredentials, EnvToken)
	case user == "" || user == PlaceholderUsername:
		return fmt.Errorf("%w: set %s or discogs.username", ErrMissingCredentials, EnvUsername)
	}
	return nil
}

package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Client    ClientConfig    `toml:"client"`
	Match     MatchConfig     `toml:"match"`
	Database  DatabaseConfig  `toml:"database"`
	Navidrome NavidromeConfig `toml:"navidrome"`
	Serve     ServeConfig     `toml:"serve"`
	Log       LogConfig       `toml:"log"`
}

// ClientConfig points the matcher at an ndx server.
type ClientConfig struct {
	ServerURL string `toml:"server_url"`
	Timeout   int    `toml:"timeout"`
}

// MatchConfig controls how multiple-candidate results are resolved.
type MatchConfig struct {
	AutoSelect      bool   `toml:"auto_select"`
	Policy          string `toml:"policy"`
	RememberChoices bool   `toml:"remember_choices"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// NavidromeConfig contains the Subsonic endpoint and credentials used by the server.
type NavidromeConfig struct {
	URL       string  `toml:"url"`
	User      string  `toml:"user"`
	Password  string  `toml:"password"`
	SongCount int     `toml:"song_count"`
	RateLimit float64 `toml:"rate_limit"`
}

// ServeConfig contains HTTP server settings.
type ServeConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	WebDir         string   `toml:"web_dir"`
}

// LogConfig selects the log level and an optional log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Addr joins host and port into a listen address.
func (s ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// ApplyEnv overrides values with the environment variables understood by the server:
// NAVI_URL, NAVI_USER, NAVI_PASS, PORT and WEB_DIR.
//
// PORT accepts both "8080" and ":8080".
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("NAVI_URL"); v != "" {
		c.Navidrome.URL = v
	}
	if v := getenv("NAVI_USER"); v != "" {
		c.Navidrome.User = v
	}
	if v := getenv("NAVI_PASS"); v != "" {
		c.Navidrome.Password = v
	}
	if v := getenv("WEB_DIR"); v != "" {
		c.Serve.WebDir = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(strings.TrimPrefix(v, ":"))
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		c.Serve.Port = port
	}
	return nil
}

// ValidateNavidrome reports whether the server has enough to reach Subsonic.
func (c *Config) ValidateNavidrome() error {
	var missing []string
	if c.Navidrome.URL == "" {
		missing = append(missing, "url")
	}
	if c.Navidrome.User == "" {
		missing = append(missing, "user")
	}
	if c.Navidrome.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: navidrome %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Package config loads the YAML configuration file that selects and
// locates the database.
//
//	database:
//	  type: sqlite3          # or mysql / mariadb / sqlite
//	  database: ./app.db     # sqlite path or mysql schema
//	  host: localhost
//	  port: 3306
//	  username: root
//	  password: secret
//	log:
//	  level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the parsed configuration file.
type Config struct {
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`

	raw map[string]any
}

// Database locates the database.
type Database struct {
	Type         string `yaml:"type"`
	Database     string `yaml:"database"`
	DSN          string `yaml:"dsn,omitempty"`
	Host         string `yaml:"host,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	Username     string `yaml:"username,omitempty"`
	Password     string `yaml:"password,omitempty"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `yaml:"max_idle_conns,omitempty"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given: a SQLite
// database in the working directory.
func Default() *Config {
	c := &Config{
		Database: Database{Type: "sqlite3", Database: "rowmodel.db"},
		Log:      Log{Level: "info"},
	}
	c.raw = map[string]any{
		"database": map[string]any{"type": c.Database.Type, "database": c.Database.Database},
		"log":      map[string]any{"level": c.Log.Level},
	}
	return c
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if c.Database.Database == "" && c.Database.DSN == "" {
		return fmt.Errorf("database.database or database.dsn is required")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d out of range", c.Database.Port)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Get looks up a dotted key (e.g. "database.type") in the raw document.
// Scalars are rendered with fmt; missing keys and non-scalar values report
// false.
func (c *Config) Get(key string) (string, bool) {
	var node any = c.raw
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		if node, ok = m[part]; !ok {
			return "", false
		}
	}
	switch v := node.(type) {
	case nil, map[string]any, []any:
		return "", false
	case string:
		return v, true
	default:
		return fmt.Sprint(v), true
	}
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", name)
}

// File path: internal/postgres/config.go
package postgres

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config describes how to reach the PostgreSQL database holding the ARGO
// profile rows.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`

	ConnectTimeout       time.Duration `json:"-"`
	ConnectTimeoutString string        `json:"connect_timeout"`
}

// Merge overlays non-zero fields from the override onto the base config.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Host) != "" {
		result.Host = strings.TrimSpace(override.Host)
	}
	if override.Port > 0 {
		result.Port = override.Port
	}
	if strings.TrimSpace(override.User) != "" {
		result.User = strings.TrimSpace(override.User)
	}
	if override.Password != "" {
		result.Password = override.Password
	}
	if strings.TrimSpace(override.Database) != "" {
		result.Database = strings.TrimSpace(override.Database)
	}
	if strings.TrimSpace(override.SSLMode) != "" {
		result.SSLMode = strings.TrimSpace(override.SSLMode)
	}
	if override.ConnectTimeout > 0 {
		result.ConnectTimeout = override.ConnectTimeout
	}
	if strings.TrimSpace(override.ConnectTimeoutString) != "" {
		result.ConnectTimeoutString = strings.TrimSpace(override.ConnectTimeoutString)
	}
	return result
}

// LoadConfig assembles the database configuration from an optional JSON
// file named by FLOATCHAT_DB_CONFIG_FILE, overlaid with FLOATCHAT_DB_*
// environment variables, and applies defaults.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("FLOATCHAT_DB_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read db config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse db config: %w", err)
	}
	if err := cfg.resolveDurations(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{
		Host:     strings.TrimSpace(os.Getenv("FLOATCHAT_DB_HOST")),
		User:     strings.TrimSpace(os.Getenv("FLOATCHAT_DB_USER")),
		Password: os.Getenv("FLOATCHAT_DB_PASSWORD"),
		Database: strings.TrimSpace(os.Getenv("FLOATCHAT_DB_NAME")),
		SSLMode:  strings.TrimSpace(os.Getenv("FLOATCHAT_DB_SSLMODE")),

		ConnectTimeoutString: strings.TrimSpace(os.Getenv("FLOATCHAT_DB_CONNECT_TIMEOUT")),
	}
	if raw := strings.TrimSpace(os.Getenv("FLOATCHAT_DB_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse FLOATCHAT_DB_PORT: %w", err)
		}
		cfg.Port = port
	}
	if err := cfg.resolveDurations(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolveDurations() error {
	if raw := strings.TrimSpace(c.ConnectTimeoutString); raw != "" {
		dur, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse connect timeout %q: %w", raw, err)
		}
		c.ConnectTimeout = dur
	}
	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = "localhost"
	}
	if c.Port <= 0 {
		c.Port = 5432
	}
	if strings.TrimSpace(c.User) == "" {
		c.User = "floatchat"
	}
	if strings.TrimSpace(c.Database) == "" {
		c.Database = "floatchat"
	}
	if strings.TrimSpace(c.SSLMode) == "" {
		c.SSLMode = "disable"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// DSN renders the configuration as a PostgreSQL connection URL understood
// by both pgx and the database/sql pgx driver.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout/time.Second)))
	u.RawQuery = q.Encode()
	return u.String()
}

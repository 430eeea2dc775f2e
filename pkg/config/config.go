package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the AVL import service.
// Values come from an optional YAML file; environment variables always
// override them. The database password is read from the environment only.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	BindAddr       string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port           string `yaml:"port" env:"PORT" env-default:"8080"`
	Env            string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"33554432"`
}

// Addr is the listen address.
func (c *ServerConfig) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// DatabaseConfig holds PostgreSQL settings. When Enabled is false the
// service keeps the AVL in memory.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" env:"PGENABLED" env-default:"false"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"avl"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"avl"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
}

// ConnectionString returns a postgres:// URL. Credentials and the database
// name are escaped, so any character is allowed in them.
func (c *DatabaseConfig) ConnectionString() string {
	user := url.User(c.User)
	if c.Password != "" {
		user = url.UserPassword(c.User, c.Password)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// ImportConfig controls how uploads are read and previewed.
type ImportConfig struct {
	// SampleSize is how many sample values are shown per source column.
	SampleSize int `yaml:"sample_size" env:"IMPORT_SAMPLE_SIZE" env-default:"3"`
	// SampleWidth is the rune width at which sample values are truncated.
	SampleWidth int `yaml:"sample_width" env:"IMPORT_SAMPLE_WIDTH" env-default:"30"`
	// Sheet is the XLSX sheet to read; empty means the first sheet.
	Sheet string `yaml:"sheet" env:"IMPORT_SHEET" env-default:""`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error; defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Import.SampleSize <= 0 {
		return fmt.Errorf("import.sample_size must be positive, got %d", c.Import.SampleSize)
	}
	if c.Import.SampleWidth <= 3 {
		return fmt.Errorf("import.sample_width must be greater than 3, got %d", c.Import.SampleWidth)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}

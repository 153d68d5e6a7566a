// Package config loads service settings from a config file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "REDDITCLONE"

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageREST     = "rest"
)

type Config struct {
	HTTP       HTTP       `mapstructure:"http"`
	Storage    Storage    `mapstructure:"storage"`
	Database   Database   `mapstructure:"database"`
	Backend    Backend    `mapstructure:"backend"`
	Auth       Auth       `mapstructure:"auth"`
	Comments   Comments   `mapstructure:"comments"`
	Votes      Votes      `mapstructure:"votes"`
	Log        Log        `mapstructure:"log"`
	Migrations Migrations `mapstructure:"migrations"`
}

type HTTP struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type Storage struct {
	Type string `mapstructure:"type"`
}

type Database struct {
	URL string `mapstructure:"url"`
}

// Backend is the hosted REST backend (PostgREST-compatible)
type Backend struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type Comments struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// MaxAge bounds how stale a comment read may be; keep it below PollInterval
	MaxAge   time.Duration `mapstructure:"max_age"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type Votes struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Migrations struct {
	Dir string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("database.url", "")
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("comments.poll_interval", 5*time.Second)
	v.SetDefault("comments.max_age", time.Second)
	v.SetDefault("comments.cache_ttl", 30*time.Second)
	v.SetDefault("votes.poll_interval", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("migrations.dir", "migrations")
}

// Load reads path (optional), then .env in the working directory, then the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// names used by earlier deployments
	_ = v.BindEnv("storage.type", EnvPrefix+"_STORAGE_TYPE", "STORAGE_TYPE")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Storage.Type == "in-memory" {
		cfg.Storage.Type = StorageMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected storage backend is fully configured
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for postgres storage")
		}
	case StorageREST:
		if c.Backend.URL == "" || c.Backend.APIKey == "" {
			return errors.New("backend.url and backend.api_key are required for rest storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Comments.PollInterval <= 0 || c.Votes.PollInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.Comments.CacheTTL <= 0 {
		return errors.New("comments.cache_ttl must be positive")
	}
	if c.Comments.MaxAge < 0 || c.Comments.MaxAge > c.Comments.PollInterval {
		return errors.New("comments.max_age must be between 0 and comments.poll_interval")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env               string        `yaml:"env"`
	ListenAddr        string        `yaml:"listen_addr"`
	DatabaseURL       string        `yaml:"database_url"`
	RunMigrations     bool          `yaml:"run_migrations"`
	RecomputeInterval time.Duration `yaml:"recompute_interval"`
	RecomputeOnStart  bool          `yaml:"recompute_on_start"`
}

// Load builds the configuration from the environment. When CONFIG_FILE
// points at a YAML file, keys present in the file override the environment.
func Load() (Config, error) {
	cfg := Config{
		Env:               getenv("APP_ENV", "development"),
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RunMigrations:     getenvBool("RUN_MIGRATIONS", false),
		RecomputeInterval: getenvDuration("RECOMPUTE_INTERVAL", 24*time.Hour),
		RecomputeOnStart:  getenvBool("RECOMPUTE_ON_START", false),
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if cfg.RecomputeInterval <= 0 {
		return cfg, fmt.Errorf("config: recompute interval must be positive")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
)

type Config struct {
	Env      string
	LogLevel string
	Addr     string

	StorageBackend string // file, sqlite or postgres
	PostgresDSN    string
	SQLitePath     string
	DataFile       string
	DataDir        string

	AuthToken      string
	AuthServiceURL string

	// Sunrise/sunset lookup for the chart annotations.
	Latitude  float64
	Longitude float64
	Timezone  string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = loadDotEnv()
		cfg = &Config{
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Addr:           getEnv("LISTEN_ADDR", ":8088"),
			StorageBackend: getEnv("STORAGE_BACKEND", "file"),
			PostgresDSN:    getEnv("POSTGRES_DSN", ""),
			SQLitePath:     getEnv("SQLITE_PATH", "data/snoozydozy.db"),
			DataFile:       getEnv("DATA_FILE", "data/sleep_data.json"),
			DataDir:        getEnv("DATA_DIR", "data"),
			AuthToken:      getEnv("AUTH_TOKEN", "MOCK-TOKEN"),
			AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
			Latitude:       getEnvFloat("SUN_LATITUDE", 49.015429),
			Longitude:      getEnvFloat("SUN_LONGITUDE", 8.0977275),
			Timezone:       getEnv("SUN_TIMEZONE", "Europe/Berlin"),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "file":
		if c.DataFile == "" {
			return errors.New("File storage requires DATA_FILE to be set")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, sqlite, postgres")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		data, err := os.ReadFile(".env")
		if err != nil {
			return err
		}
		for _, l := range splitLines(string(data)) {
			if len(l) == 0 || l[0] == '#' {
				continue
			}
			kv := splitKV(l)
			if len(kv) == 2 {
				os.Setenv(kv[0], kv[1])
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' || c == '\r' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitKV(s string) []string {
	for i, c := range s {
		if c == '=' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}

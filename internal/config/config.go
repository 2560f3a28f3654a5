// Package config provides application configuration management with support for environment variables and .env files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Journal JournalConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	UploadRPS    float64       // Upload rate limit per client (default: 2)
	UploadBurst  int           // Upload burst per client (default: 5)
}

// StorageConfig holds data storage configuration.
type StorageConfig struct {
	// BasePath is the root data directory. The document database lives in
	// {BasePath}/db and picture blobs in {BasePath}/pictures.
	BasePath string
}

// JournalConfig holds journal-domain configuration.
type JournalConfig struct {
	// People maps a person's name to their birth date, used for
	// age-relative timeline navigation ("show the picture from when
	// <name> was N years old").
	People map[string]time.Time
	// FeedSize is the default number of pictures in the recent feed.
	FeedSize int
}

// Options allows callers (tests, seed tool) to override load behavior.
type Options struct {
	EnvFile string
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables.
// 2. .env file.
// 3. Default values (lowest priority).
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	people, err := parsePeople(envValue("JOURNAL_PEOPLE", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Environment: envValue("ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: envValue("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:         envValue("SERVER_PORT", "8080"),
			ReadTimeout:  durationValue("READ_TIMEOUT", 15*time.Second),
			WriteTimeout: durationValue("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  durationValue("IDLE_TIMEOUT", 60*time.Second),
			UploadRPS:    floatValue("UPLOAD_RPS", 2),
			UploadBurst:  intValue("UPLOAD_BURST", 5),
		},
		Storage: StorageConfig{
			BasePath: envValue("DATA_PATH", ""),
		},
		Journal: JournalConfig{
			People:   people,
			FeedSize: intValue("FEED_SIZE", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Storage.BasePath == "" {
		return fmt.Errorf("DATA_PATH is required")
	}
	if c.Journal.FeedSize <= 0 {
		return fmt.Errorf("FEED_SIZE must be positive, got %d", c.Journal.FeedSize)
	}
	return nil
}

// parsePeople parses "name=YYYY-MM-DD" pairs separated by commas.
// Example: "miri=2007-10-26,julia=2010-04-21".
func parsePeople(raw string) (map[string]time.Time, error) {
	people := make(map[string]time.Time)
	if strings.TrimSpace(raw) == "" {
		return people, nil
	}

	for pair := range strings.SplitSeq(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, dateStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid JOURNAL_PEOPLE entry %q (want name=YYYY-MM-DD)", pair)
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
		if err != nil {
			return nil, fmt.Errorf("invalid birth date in JOURNAL_PEOPLE entry %q: %w", pair, err)
		}
		people[strings.ToLower(strings.TrimSpace(name))] = date.UTC()
	}

	return people, nil
}

// envValue returns the environment variable value or a default.
func envValue(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// durationValue parses a duration environment variable with a default.
func durationValue(envKey string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(envKey)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

// intValue parses an integer environment variable with a default.
func intValue(envKey string, defaultValue int) int {
	raw := os.Getenv(envKey)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// floatValue parses a float environment variable with a default.
func floatValue(envKey string, defaultValue float64) float64 {
	raw := os.Getenv(envKey)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// loadEnvFile loads KEY=VALUE pairs from a file into the process
// environment. Existing environment variables take precedence.
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

// Package config loads server configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Config is the fully resolved server configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Store     StoreConfig
	Search    SearchConfig
	Import    ImportConfig
	Posters   PostersConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string        // Human-readable name shown in discovery
	Port          string        // Listen port, 8080 unless overridden
	ReadTimeout   time.Duration // 15s unless overridden
	WriteTimeout  time.Duration // 15s unless overridden
	IdleTimeout   time.Duration // 60s unless overridden
	AdvertiseMDNS bool          // LAN discovery advertisement, on by default
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	// Backend selects the store implementation: badger, mongo or sqlite.
	Backend string
	// DataPath is the base directory for everything the server persists
	// locally (default: ~/CineLog/data).
	DataPath string
	// MongoURI is required when the backend is mongo.
	MongoURI string
	// MongoDatabase is the database name on the mongo backend.
	MongoDatabase string
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	// Enabled turns the Bleve index and the search endpoint on (default: true).
	Enabled bool
}

// ImportConfig holds drop-directory import configuration.
type ImportConfig struct {
	// Enabled turns the drop-directory watcher on (default: true).
	Enabled bool
	// Path is the watched directory (default: {data}/import).
	Path string
	// Settle is how long a dropped file must stay unchanged before it is
	// picked up (default: 2s).
	Settle time.Duration
}

// PostersConfig holds poster pipeline configuration.
type PostersConfig struct {
	// Enabled turns poster downloading and blurhash placeholders on
	// (default: true).
	Enabled bool
}

// RateLimitConfig holds per-client request throttling configuration.
type RateLimitConfig struct {
	Enabled bool
	// RPS is the sustained request rate allowed per client IP.
	RPS float64
	// Burst is how many requests a client may fire at once.
	Burst int
}

// BadgerPath is the badger database directory under the data path.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Store.DataPath, "catalog.db")
}

// SQLitePath is the sqlite database file under the data path.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Store.DataPath, "catalog.sqlite")
}

// SearchPath is the Bleve index directory under the data path.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Store.DataPath, "search")
}

// LoadConfig resolves every setting from, in order of precedence,
// command-line flags, environment variables, the .env file and built-in
// defaults, then validates the result.
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "runtime environment: development, staging or production")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	dataPath := flag.String("data-path", "", "base directory for everything the server persists")
	serverName := flag.String("server-name", "", "name advertised to clients")

	// HTTP server
	serverPort := flag.String("port", "", "HTTP listen port (8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "advertise the server over mDNS (true)")

	envFile := flag.String("env-file", ".env", "path to an env file with KEY=value lines")

	// Document store
	storeBackend := flag.String("store-backend", "", "store backend: badger, mongo or sqlite (badger)")
	mongoURI := flag.String("mongo-uri", "", "MongoDB connection string, mongo backend only")
	mongoDatabase := flag.String("mongo-database", "", "MongoDB database name (cinelog)")

	// Features
	searchEnabled := flag.String("search-enabled", "", "full-text search index and endpoint (true)")
	importEnabled := flag.String("import-enabled", "", "drop-directory importer (true)")
	importPath := flag.String("import-path", "", "watched import directory ({data}/import)")
	importSettle := flag.String("import-settle", "", "quiet period before a dropped file is imported (2s)")
	postersEnabled := flag.String("posters-enabled", "", "poster downloads and blurhash placeholders (true)")

	// Throttling
	rateLimitEnabled := flag.String("ratelimit-enabled", "", "per-client rate limiting (true)")
	rateLimitRPS := flag.String("ratelimit-rps", "", "sustained requests per second per client (25)")
	rateLimitBurst := flag.String("ratelimit-burst", "", "burst size per client (50)")

	flag.Parse()

	// A missing .env file is not an error; anything set explicitly wins
	// over its entries anyway.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "CineLog Server"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		Store: StoreConfig{
			Backend:       getConfigValue(*storeBackend, "STORE_BACKEND", BackendBadger),
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			MongoURI:      getConfigValue(*mongoURI, "MONGO_URI", ""),
			MongoDatabase: getConfigValue(*mongoDatabase, "MONGO_DATABASE", "cinelog"),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
		Import: ImportConfig{
			Enabled: getBoolConfigValue(*importEnabled, "IMPORT_ENABLED", true),
			Path:    getConfigValue(*importPath, "IMPORT_PATH", ""),
		},
		Posters: PostersConfig{
			Enabled: getBoolConfigValue(*postersEnabled, "POSTERS_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolConfigValue(*rateLimitEnabled, "RATE_LIMIT_ENABLED", true),
			RPS:     getFloatConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", 25),
			Burst:   getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 50),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Import.Settle, err = getDurationConfigValue(*importSettle, "IMPORT_SETTLE", "2s"); err != nil {
		return nil, fmt.Errorf("invalid import settle: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandImportPath(); err != nil {
		return nil, fmt.Errorf("invalid import path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the resolved configuration for values the server
// cannot start with.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Store.Backend {
	case BackendBadger, BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger, mongo, or sqlite)", c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.MongoURI == "" {
		return errors.New("MONGO_URI is required when the store backend is mongo")
	}
	if c.Store.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid rate limit rps: %v (must be positive)", c.RateLimit.RPS)
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid rate limit burst: %d (must be positive)", c.RateLimit.Burst)
		}
	}

	if c.Import.Enabled && c.Import.Settle <= 0 {
		return fmt.Errorf("invalid import settle: %v (must be positive)", c.Import.Settle)
	}

	return nil
}

// expandPath resolves path to an absolute, cleaned form, expanding a
// leading ~/ to the user's home directory. An empty path falls back to
// defaultPath, which must already be absolute.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if after, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, after)
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path: %w", err)
		}
		path = abs
	}

	return filepath.Clean(path), nil
}

// expandDataPath resolves the data path, defaulting to ~/CineLog/data.
func (c *Config) expandDataPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	expanded, err := expandPath(c.Store.DataPath, filepath.Join(home, "CineLog", "data"))
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// expandImportPath resolves the import path, defaulting to
// {data}/import. Must run after expandDataPath.
func (c *Config) expandImportPath() error {
	expanded, err := expandPath(c.Import.Path, filepath.Join(c.Store.DataPath, "import"))
	if err != nil {
		return err
	}
	c.Import.Path = expanded
	return nil
}

// getConfigValue returns the flag value when set, then the environment
// value, then the default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// getBoolConfigValue reads a boolean with the same precedence as
// getConfigValue. "true", "1" and "yes" in any case mean true; any other
// explicit value means false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// getIntConfigValue reads an integer; values that do not parse fall back
// to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// getFloatConfigValue reads a float; values that do not parse fall back
// to the default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getDurationConfigValue reads a duration with the same precedence. The
// default must itself be a valid duration string.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration: %w", raw, err)
	}
	return d, nil
}

// loadEnvFile reads KEY=value pairs from path into the process
// environment. Blank lines and #-comments are skipped, surrounding
// quotes are stripped, and variables that are already set win over the
// file's entries.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- the path comes from the operator's own flag
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	return scanner.Err()
}

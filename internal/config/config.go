// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

// DefaultDataSourceURL hosts the published datasets, one directory per game.
const DefaultDataSourceURL = "https://dp4p6x0xfi5o9.cloudfront.net"

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Catalog CatalogConfig
	Storage StorageConfig
	Draw    DrawConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// CatalogConfig holds dataset source configuration.
type CatalogConfig struct {
	// DataSourceURL is the base every site's dataSourceUrl is built from.
	DataSourceURL string
	// Games restricts the registry to these game codes; empty keeps every known game.
	Games []string
	// DataDir, when set, serves <DataDir>/<game>/data.json before the remote source and is watched for changes.
	DataDir string
	// CacheTTL keeps fetched payloads in memory (default: 10m, 0 disables).
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	// FetchRate limits requests per second to one data host (default: 2).
	FetchRate float64
	// Preload loads every game at startup instead of on first request.
	Preload bool
}

// StorageConfig holds BadgerDB configuration.
type StorageConfig struct {
	Path string
}

// DrawConfig holds draw session configuration.
type DrawConfig struct {
	SessionTTL    time.Duration // Idle draw sessions expire after this (default: 30m)
	RatePerMinute int           // Draws created per client IP per minute (default: 30, 0 disables)
	Burst         int           // Draw creation burst (default: 10)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 0, event streams stay open)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: any)
}

// knownSites is the built-in site registry, in display order.
var knownSites = []domain.Site{
	{GameCode: "maimai", GameTitle: "maimai", Color: "#1976d2"},
	{GameCode: "wacca", GameTitle: "WACCA", Color: "#e50065"},
	{GameCode: "chunithm", GameTitle: "CHUNITHM", Color: "#f3a607"},
	{GameCode: "sdvx", GameTitle: "SOUND VOLTEX", Color: "#404040"},
	{GameCode: "jubeat", GameTitle: "jubeat", Color: "#134c43"},
	{GameCode: "taiko", GameTitle: "太鼓の達人", Color: "#f50000"},
	{GameCode: "ongeki", GameTitle: "オンゲキ", Color: "#32b9cc"},
	{GameCode: "gc", GameTitle: "GROOVE COASTER", Color: "#22125b"},
	{GameCode: "diva", GameTitle: "Project DIVA Arcade", Color: "#6d8c8d"},
}

// KnownGameCodes returns the game codes of the built-in registry.
func KnownGameCodes() []string {
	codes := make([]string, len(knownSites))
	for i, site := range knownSites {
		codes[i] = site.GameCode
	}
	return codes
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return loadConfig(flag.CommandLine, os.Args[1:])
}

func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	// Define command-line flags.
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Catalog flags
	dataSourceURL := fs.String("data-source-url", "", "Base URL of the published datasets")
	games := fs.String("games", "", "Comma-separated game codes to serve (default: all)")
	dataDir := fs.String("data-dir", "", "Local dataset directory, one subdirectory per game")
	cacheTTL := fs.String("cache-ttl", "", "Fetched payload cache lifetime (default: 10m)")
	fetchTimeout := fs.String("fetch-timeout", "", "Dataset fetch timeout (default: 30s)")
	fetchRate := fs.String("fetch-rate", "", "Requests per second to a data host (default: 2)")
	preload := fs.String("preload", "", "Load every game at startup (default: false)")

	storagePath := fs.String("storage-path", "", "BadgerDB directory (default: ~/ArcadeSongs/db)")

	// Draw flags
	drawTTL := fs.String("draw-session-ttl", "", "Idle draw session lifetime (default: 30m)")
	drawRate := fs.String("draw-rate", "", "Draws per client IP per minute (default: 30)")
	drawBurst := fs.String("draw-burst", "", "Draw creation burst (default: 10)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: any)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Catalog: CatalogConfig{
			DataSourceURL: strings.TrimRight(getConfigValue(*dataSourceURL, "DATA_SOURCE_URL", DefaultDataSourceURL), "/"),
			Games:         splitList(getConfigValue(*games, "GAMES", "")),
			DataDir:       getConfigValue(*dataDir, "DATA_DIR", ""),
			Preload:       getBoolConfigValue(*preload, "PRELOAD", false),
		},
		Storage: StorageConfig{
			Path: getConfigValue(*storagePath, "STORAGE_PATH", ""),
		},
		Draw: DrawConfig{
			RatePerMinute: getIntConfigValue(*drawRate, "DRAW_RATE_PER_MINUTE", 30),
			Burst:         getIntConfigValue(*drawBurst, "DRAW_BURST", 10),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
		},
	}

	rate, err := strconv.ParseFloat(getConfigValue(*fetchRate, "FETCH_RATE", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch rate: %w", err)
	}
	cfg.Catalog.FetchRate = rate

	durations := []struct {
		flagValue, envKey, def string
		target                 *time.Duration
	}{
		{*cacheTTL, "CACHE_TTL", "10m", &cfg.Catalog.CacheTTL},
		{*fetchTimeout, "FETCH_TIMEOUT", "30s", &cfg.Catalog.FetchTimeout},
		{*drawTTL, "DRAW_SESSION_TTL", "30m", &cfg.Draw.SessionTTL},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		value, err := getDurationConfigValue(d.flagValue, d.envKey, d.def)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	if err := cfg.expandStoragePath(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}
	if err := cfg.expandDataDir(); err != nil {
		return nil, fmt.Errorf("invalid data dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.Path == "" {
		return errors.New("storage path cannot be empty after expansion")
	}

	u, err := url.Parse(c.Catalog.DataSourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid data source URL: %q", c.Catalog.DataSourceURL)
	}

	known := KnownGameCodes()
	for _, code := range c.Catalog.Games {
		if !slices.Contains(known, code) {
			return fmt.Errorf("unknown game %q (known: %s)", code, strings.Join(known, ", "))
		}
	}

	if c.Catalog.FetchRate < 0 {
		return errors.New("fetch rate cannot be negative")
	}
	if c.Draw.RatePerMinute < 0 || c.Draw.Burst < 0 {
		return errors.New("draw rate limits cannot be negative")
	}
	if c.Draw.SessionTTL <= 0 {
		return errors.New("draw session TTL must be positive")
	}

	return nil
}

// Sites returns the configured site registry with data source URLs filled in.
func (c *Config) Sites() []domain.Site {
	sites := make([]domain.Site, 0, len(knownSites))
	for _, site := range knownSites {
		if len(c.Catalog.Games) > 0 && !slices.Contains(c.Catalog.Games, site.GameCode) {
			continue
		}
		site.DataSourceURL = c.Catalog.DataSourceURL + "/" + site.GameCode
		sites = append(sites, site)
	}
	return sites
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandStoragePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ArcadeSongs", "db")

	expanded, err := expandPath(c.Storage.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.Path = expanded
	return nil
}

// expandDataDir leaves an empty data dir empty: remote datasets only.
func (c *Config) expandDataDir() error {
	if c.Catalog.DataDir == "" {
		return nil
	}
	expanded, err := expandPath(c.Catalog.DataDir, "")
	if err != nil {
		return err
	}
	c.Catalog.DataDir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

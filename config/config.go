package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"restaurantfinder/models"
)

const (
	DefaultPort                = 3003
	DefaultBackendURL          = "http://localhost:8080"
	DefaultBackendTimeout      = 10 * time.Second
	DefaultGeocodeRegion       = "Copenhagen Denmark"
	DefaultSessionTTL          = 30 * time.Minute
	DefaultCacheTTL            = 5 * time.Minute
	DefaultPrefetchInterval    = 10 * time.Minute
	DefaultPrefetchConcurrency = 4
	DefaultLocale              = "da"
	DefaultLogLevel            = "info"
)

// DefaultCORSOrigins are the local dev servers allowed when CORS_ORIGINS is
// unset.
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"}

// Config holds all application configuration. Values come from an optional
// YAML file named by FINDER_CONFIG, overridden by environment variables.
type Config struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`

	DatabaseURL string `yaml:"database_url"`

	GoogleMapsAPIKey string   `yaml:"google_maps_api_key"`
	GeocodeRegion    string   `yaml:"geocode_region"`
	DefaultLat       *float64 `yaml:"default_lat"`
	DefaultLng       *float64 `yaml:"default_lng"`

	SessionTTL          time.Duration `yaml:"session_ttl"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
	PrefetchInterval    time.Duration `yaml:"prefetch_interval"`
	PrefetchConcurrency int           `yaml:"prefetch_concurrency"`

	Locale   string `yaml:"locale"`
	LogLevel string `yaml:"log_level"`
}

// New returns a Config with every default filled in.
func New() *Config {
	return &Config{
		Port:                DefaultPort,
		BackendURL:          DefaultBackendURL,
		BackendTimeout:      DefaultBackendTimeout,
		CORSOrigins:         DefaultCORSOrigins,
		GeocodeRegion:       DefaultGeocodeRegion,
		SessionTTL:          DefaultSessionTTL,
		CacheTTL:            DefaultCacheTTL,
		PrefetchInterval:    DefaultPrefetchInterval,
		PrefetchConcurrency: DefaultPrefetchConcurrency,
		Locale:              DefaultLocale,
		LogLevel:            DefaultLogLevel,
	}
}

// Load reads .env, the optional YAML file and the environment, and validates
// the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, falling back to system env vars")
	}

	cfg := New()
	if path := os.Getenv("FINDER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Port = getEnvInt("PORT", c.Port)
	c.Host = getEnv("HOST", c.Host)
	c.BackendURL = getEnv("BACKEND_URL", c.BackendURL)
	c.BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", c.BackendTimeout)
	c.CORSOrigins = getEnvSlice("CORS_ORIGINS", c.CORSOrigins)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.GoogleMapsAPIKey = getEnv("GOOGLE_MAPS_API_KEY", c.GoogleMapsAPIKey)
	c.GeocodeRegion = getEnv("GEOCODE_REGION", c.GeocodeRegion)
	c.DefaultLat = getEnvFloat("DEFAULT_LAT", c.DefaultLat)
	c.DefaultLng = getEnvFloat("DEFAULT_LNG", c.DefaultLng)

	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)
	c.PrefetchInterval = getEnvDuration("PREFETCH_INTERVAL", c.PrefetchInterval)
	c.PrefetchConcurrency = getEnvInt("PREFETCH_CONCURRENCY", c.PrefetchConcurrency)

	c.Locale = getEnv("LOCALE", c.Locale)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if u, err := url.Parse(c.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL %q is not an http(s) URL", c.BackendURL))
	}
	if (c.DefaultLat == nil) != (c.DefaultLng == nil) {
		errs = append(errs, errors.New("DEFAULT_LAT and DEFAULT_LNG must be set together"))
	}
	for name, d := range map[string]time.Duration{
		"BACKEND_TIMEOUT":   c.BackendTimeout,
		"SESSION_TTL":       c.SessionTTL,
		"CACHE_TTL":         c.CacheTTL,
		"PREFETCH_INTERVAL": c.PrefetchInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.PrefetchConcurrency <= 0 {
		errs = append(errs, errors.New("PREFETCH_CONCURRENCY must be positive"))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("LOCALE %q: %w", c.Locale, err))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Level is the parsed LOG_LEVEL.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(c.LogLevel))
	return lvl
}

// Tag is the parsed LOCALE.
func (c *Config) Tag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// DefaultLocation is the configured fallback user position, if any.
func (c *Config) DefaultLocation() (models.Location, bool) {
	if c.DefaultLat == nil || c.DefaultLng == nil {
		return models.Location{}, false
	}
	return models.Location{Lat: *c.DefaultLat, Lng: *c.DefaultLng}, true
}

// HistoryEnabled reports whether a database is configured.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback *float64) *float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return &f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort       string `mapstructure:"APP_PORT"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes int    `mapstructure:"JWT_TTL_MINUTES"`
	// Database
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseURI string `mapstructure:"DATABASE_URI"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	// Redis for login limiting, feed cache and token revocation
	RedisEnabled  bool   `mapstructure:"REDIS_ENABLED"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     int    `mapstructure:"REDIS_PORT"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// Rate limiting
	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	LoginMaxAttempts   int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginWindowMinutes int `mapstructure:"LOGIN_WINDOW_MINUTES"`
	// Feed cache lifetime, 0 disables caching
	FeedCacheSeconds int      `mapstructure:"FEED_CACHE_SECONDS"`
	AllowedOrigins   []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// Gin framework configuration
	GinMode string `mapstructure:"GIN_MODE"`
	GinPath string `mapstructure:"GIN_PATH"`
	// Logging configuration
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`
}

// Supported values for DBDriver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var defaults = map[string]any{
	"APP_PORT":              "8081",
	"JWT_SECRET":            "",
	"JWT_TTL_MINUTES":       60,
	"DB_DRIVER":             DriverMySQL,
	"DATABASE_URI":          "",
	"DB_HOST":               "127.0.0.1",
	"DB_PORT":               "3306",
	"DB_USER":               "root",
	"DB_PASSWORD":           "",
	"DB_NAME":               "socialboard",
	"REDIS_ENABLED":         false,
	"REDIS_HOST":            "127.0.0.1",
	"REDIS_PORT":            6379,
	"REDIS_DB":              0,
	"REDIS_PASSWORD":        "",
	"RATE_LIMIT_PER_MINUTE": 60,
	"LOGIN_MAX_ATTEMPTS":    100,
	"LOGIN_WINDOW_MINUTES":  5,
	"FEED_CACHE_SECONDS":    30,
	"CORS_ALLOWED_ORIGINS":  []string{"http://localhost:3000", "http://localhost:8080", "http://localhost:8081"},
	"GIN_MODE":              "release",
	"GIN_PATH":              "logs/go_gin.log",
	"LOG_LEVEL":             "info",
	"LOG_PATH":              "",
	"LOG_MAX_SIZE_MB":       100,
	"LOG_MAX_BACKUPS":       3,
	"LOG_MAX_AGE_DAYS":      7,
	"LOG_COMPRESS":          false,
}

// Load reads configuration with precedence: environment (including .env) -> config/config.json -> defaults.
func Load() (AppConfig, error) {
	// .env is optional; real environment variables always win over it.
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	v.SetConfigFile(filepath.Join("config", "config.json"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.AllowedOrigins = splitAndTrim(cfg.AllowedOrigins)
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in environment variables")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.LoginMaxAttempts <= 0 || c.LoginWindowMinutes <= 0 {
		return errors.New("login rate limit must be positive")
	}
	return nil
}

// JWTTTL is the lifetime of issued bearer tokens.
func (c AppConfig) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// LoginWindow is the fixed window used by the login limiter.
func (c AppConfig) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}

// FeedCacheTTL is how long a rendered latest-posts page stays cached.
func (c AppConfig) FeedCacheTTL() time.Duration {
	return time.Duration(c.FeedCacheSeconds) * time.Second
}

func isMissingFile(err error) bool {
	// SetConfigFile reports a missing file as a plain fs error rather than ConfigFileNotFoundError
	return strings.Contains(err.Error(), "no such file or directory") ||
		strings.Contains(err.Error(), "cannot find the file")
}

// splitAndTrim accepts both real lists and a single comma separated env value.
func splitAndTrim(raw []string) []string {
	items := []string{}
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}

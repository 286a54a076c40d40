// Package config loads application settings from an optional .env file and
// the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port string `mapstructure:"PORT"`

	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `mapstructure:"AUTO_MIGRATE"`
	MigrationsPath  string        `mapstructure:"MIGRATIONS_PATH"`

	RedisURL      string        `mapstructure:"REDIS_URL"`
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookie string        `mapstructure:"SESSION_COOKIE"`
	CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`

	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	StaticDir   string `mapstructure:"STATIC_DIR"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	GinMode   string `mapstructure:"GIN_MODE"`
}

// Load reads configuration from a .env file in dir (if present) and
// environment variables, which take precedence.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5001")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("MIGRATIONS_PATH", "file://db/migrations")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_SECRET", "change-me")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_COOKIE", "gotimer_session")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("STATIC_DIR", "static")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("GIN_MODE", "release")
}

// Origins splits CORS_ORIGINS on commas. An empty result allows any origin.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// UseDatabase reports whether a Postgres DSN is configured.
func (c *Config) UseDatabase() bool { return c.DatabaseURL != "" }

// UseRedis reports whether sessions go to Redis.
func (c *Config) UseRedis() bool { return c.RedisURL != "" }

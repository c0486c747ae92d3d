package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Detection DetectionConfig `mapstructure:"detection"`
	Export    ExportConfig    `mapstructure:"export"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig enables the body-weight cache when Addr is set
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AuthConfig enables device bearer tokens when JWTSecret is set
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

type LoggingConfig struct {
	Level  slog.Level `mapstructure:"-"`
	Format string     `mapstructure:"format"` // json, text
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DetectionConfig holds the activity detector thresholds and timers
type DetectionConfig struct {
	ConfidenceThreshold  int           `mapstructure:"confidence_threshold"`
	MinSteps             int           `mapstructure:"min_steps"`
	StationaryTimeout    time.Duration `mapstructure:"stationary_timeout"`
	BufferWindow         time.Duration `mapstructure:"buffer_window"`
	MovementWindow       time.Duration `mapstructure:"movement_window"`
	TickInterval         time.Duration `mapstructure:"tick_interval"`
	LocationInterval     time.Duration `mapstructure:"location_interval"`
	DistanceFilterMeters float64       `mapstructure:"distance_filter_meters"`
	MaxClockSkew         time.Duration `mapstructure:"max_clock_skew"` // samples further ahead are dropped
	AutoStart            bool          `mapstructure:"auto_start"`
	AutoStop             bool          `mapstructure:"auto_stop"`
	DefaultWeightKg      float64       `mapstructure:"default_weight_kg"`
	SaveTimeout          time.Duration `mapstructure:"save_timeout"`
}

// ExportConfig controls the FIT session recorder
type ExportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Load 加载配置: defaults, then ./config/config.yaml, then ACTIVITY_* env vars
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ACTIVITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	level, err := parseLevel(v.GetString("logging.level"))
	if err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	cfg.Logging.Level = level

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s") // SSE streams stay open
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/activity.db")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "1h")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", "720h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limit.requests", 600)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("detection.confidence_threshold", 70)
	v.SetDefault("detection.min_steps", 20)
	v.SetDefault("detection.stationary_timeout", "300s")
	v.SetDefault("detection.buffer_window", "60s")
	v.SetDefault("detection.movement_window", "30s")
	v.SetDefault("detection.tick_interval", "10s")
	v.SetDefault("detection.location_interval", "3s")
	v.SetDefault("detection.distance_filter_meters", 1.0)
	v.SetDefault("detection.max_clock_skew", "5s")
	v.SetDefault("detection.auto_start", true)
	v.SetDefault("detection.auto_stop", true)
	v.SetDefault("detection.default_weight_kg", 70.0)
	v.SetDefault("detection.save_timeout", "10s")

	v.SetDefault("export.enabled", false)
	v.SetDefault("export.dir", "./data/fit")
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q", cfg.Logging.Format)
	}

	d := cfg.Detection
	if d.ConfidenceThreshold <= 0 || d.ConfidenceThreshold > 100 {
		return fmt.Errorf("detection confidence threshold must be in (0,100], got %d", d.ConfidenceThreshold)
	}
	if d.MinSteps <= 0 {
		return fmt.Errorf("detection min steps must be positive")
	}
	if d.TickInterval <= 0 || d.LocationInterval <= 0 {
		return fmt.Errorf("detection intervals must be positive")
	}
	if d.StationaryTimeout <= 0 || d.BufferWindow <= 0 || d.MovementWindow <= 0 {
		return fmt.Errorf("detection windows must be positive")
	}
	if d.MaxClockSkew <= 0 {
		return fmt.Errorf("detection max clock skew must be positive")
	}
	if d.MovementWindow > d.BufferWindow {
		return fmt.Errorf("movement window %v exceeds buffer window %v", d.MovementWindow, d.BufferWindow)
	}
	if d.DefaultWeightKg <= 0 {
		return fmt.Errorf("default weight must be positive")
	}

	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if cfg.Export.Enabled && cfg.Export.Dir == "" {
		return fmt.Errorf("export dir is required when export is enabled")
	}
	return nil
}

// Package config loads service configuration from an optional .env file, an optional
// config file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// TrustedProxies lists the addresses or CIDR ranges whose forwarding headers are believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// AdminUsername and AdminPassword, when both set, bootstrap an admin account at startup.
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	Strikes int           `mapstructure:"strikes"`
	Ban     time.Duration `mapstructure:"ban"`
}

// AnalyticsConfig carries the tunables of the replenishment analytics engine.
type AnalyticsConfig struct {
	DefaultWindowDays     int     `mapstructure:"default_window_days"`
	MaxWindowDays         int     `mapstructure:"max_window_days"`
	LeadTimeDays          int     `mapstructure:"lead_time_days"`
	FallbackDailyVelocity float64 `mapstructure:"fallback_daily_velocity"`
	DeadStockWindowDays   int     `mapstructure:"dead_stock_window_days"`
	HeatmapWindowDays     int     `mapstructure:"heatmap_window_days"`
	TrendDays             int     `mapstructure:"trend_days"`
	TopN                  int     `mapstructure:"top_n"`
	LowStockLevel         int     `mapstructure:"low_stock_level"`
}

const devSecret = "dev-only-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("database.url", "")
	v.SetDefault("database.timeout", 3*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 15*time.Minute)
	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("ratelimit.strikes", 5)
	v.SetDefault("ratelimit.ban", 15*time.Minute)
	v.SetDefault("analytics.default_window_days", 7)
	v.SetDefault("analytics.max_window_days", 365)
	v.SetDefault("analytics.lead_time_days", 3)
	v.SetDefault("analytics.fallback_daily_velocity", 0.1)
	v.SetDefault("analytics.dead_stock_window_days", 30)
	v.SetDefault("analytics.heatmap_window_days", 30)
	v.SetDefault("analytics.trend_days", 7)
	v.SetDefault("analytics.top_n", 5)
	v.SetDefault("analytics.low_stock_level", 5)
}

// Load reads .env (if present), config.yaml or CONFIG_FILE (if present) and the environment.
// Environment keys use underscores for nesting: ANALYTICS_LEAD_TIME_DAYS, DATABASE_URL.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = devSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, "development")
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ratelimit.rps and ratelimit.burst must be positive"))
	}

	for _, p := range c.Server.TrustedProxies {
		if !validProxy(p) {
			errs = append(errs, fmt.Errorf("server.trusted_proxies: %q is not an address or CIDR range", p))
		}
	}

	a := c.Analytics
	for name, days := range map[string]int{
		"analytics.default_window_days":    a.DefaultWindowDays,
		"analytics.max_window_days":        a.MaxWindowDays,
		"analytics.dead_stock_window_days": a.DeadStockWindowDays,
		"analytics.heatmap_window_days":    a.HeatmapWindowDays,
		"analytics.trend_days":             a.TrendDays,
		"analytics.top_n":                  a.TopN,
	} {
		if days <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, days))
		}
	}
	if a.DefaultWindowDays > a.MaxWindowDays {
		errs = append(errs, errors.New("analytics.default_window_days exceeds analytics.max_window_days"))
	}
	if a.LeadTimeDays < 0 {
		errs = append(errs, fmt.Errorf("analytics.lead_time_days cannot be negative, got %d", a.LeadTimeDays))
	}
	if a.LowStockLevel < 0 {
		errs = append(errs, fmt.Errorf("analytics.low_stock_level cannot be negative, got %d", a.LowStockLevel))
	}
	if a.FallbackDailyVelocity <= 0 {
		errs = append(errs, fmt.Errorf("analytics.fallback_daily_velocity must be positive, got %v", a.FallbackDailyVelocity))
	}

	return errors.Join(errs...)
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	Host string `mapstructure:"host"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSL      string `mapstructure:"ssl"`
}

type SecurityConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpiration      time.Duration `mapstructure:"jwt_expiration"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
	EnableAuth         bool          `mapstructure:"enable_auth"`
	AdminRole          string        `mapstructure:"admin_role"`
	EnableRateLimit    bool          `mapstructure:"enable_rate_limit"`
	MasterKey          string        `mapstructure:"master_key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FetcherConfig controls the shared HTTP transport used to load sources
type FetcherConfig struct {
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout"`
	Parallelism     int           `mapstructure:"parallelism"`
	UserAgent       string        `mapstructure:"user_agent"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig points span export at an OTLP collector
type TracingConfig struct {
	Enabled      bool              `mapstructure:"enabled"`
	ServiceName  string            `mapstructure:"service_name"`
	HTTPEndpoint string            `mapstructure:"http_endpoint"`
	GRPCEndpoint string            `mapstructure:"grpc_endpoint"`
	Headers      map[string]string `mapstructure:"headers"`
	SampleRatio  float64           `mapstructure:"sample_ratio"`
}

// Load reads config.yaml from ./configs or the working directory and
// overlays environment variables (server.port -> SERVER_PORT)
func Load() (*Config, error) {
	return LoadFrom(viper.New(), "./configs", ".")
}

// LoadFrom reads configuration with v, searching the given paths
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.host", "0.0.0.0")

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.database", "dataframe_gateway")
	v.SetDefault("database.username", "gateway_user")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl", "false")

	// Security defaults
	v.SetDefault("security.jwt_secret", "your-secret-key")
	v.SetDefault("security.jwt_expiration", "24h")
	v.SetDefault("security.rate_limit_per_minute", 60)
	v.SetDefault("security.rate_limit_burst", 10)
	v.SetDefault("security.enable_auth", false)
	v.SetDefault("security.admin_role", "admin")
	v.SetDefault("security.enable_rate_limit", true)
	v.SetDefault("security.master_key", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Fetcher defaults
	v.SetDefault("fetcher.default_timeout", "30s")
	v.SetDefault("fetcher.max_idle_conns", 100)
	v.SetDefault("fetcher.idle_conn_timeout", "90s")
	v.SetDefault("fetcher.parallelism", 1)
	v.SetDefault("fetcher.user_agent", "dataframe-gateway/1.0")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "dataframe-gateway")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

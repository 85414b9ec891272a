package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// APIConfig holds REST API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout (default), file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// AuthConfig holds session authentication configuration.
type AuthConfig struct {
	// SessionCookie is the name of the cookie carrying the opaque session token.
	SessionCookie string `mapstructure:"session_cookie"`
	// SuperuserEmail is seeded as a tenantless superuser account on startup.
	SuperuserEmail string `mapstructure:"superuser_email"`
}

// DispatchConfig holds bulk dispatch pipeline configuration.
type DispatchConfig struct {
	// WorkerCount bounds per-recipient send concurrency within one dispatch.
	WorkerCount int `mapstructure:"worker_count"`
	// DefaultSender is used when a dispatch request carries no sender address.
	DefaultSender string `mapstructure:"default_sender"`
	// TrackingBaseURL is the externally reachable base URL for open/click links.
	TrackingBaseURL string `mapstructure:"tracking_base_url"`
	// KeepaliveInterval is how often idle progress streams emit a keep-alive.
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`
	// GatewayURL is the outbound email gateway endpoint. Empty selects the
	// stdout gateway (development).
	GatewayURL string `mapstructure:"gateway_url"`
	// GatewayAPIKey authenticates calls to the outbound gateway.
	GatewayAPIKey string `mapstructure:"gateway_api_key"`
	// GatewayTimeout bounds a single outbound gateway call.
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`
}

// RedisConfig holds the optional Redis progress bus configuration.
// When Addr is empty the in-memory progress broker is used.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix CRM_DISPATCH_ override file values.
// For example, CRM_DISPATCH_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("CRM_DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for values that are safe to omit from the
// config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("auth.session_cookie", "crm_session")
	v.SetDefault("auth.superuser_email", "admin@localhost")
	v.SetDefault("dispatch.worker_count", 4)
	v.SetDefault("dispatch.keepalive_interval", 30*time.Second)
	v.SetDefault("dispatch.gateway_timeout", 15*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
}

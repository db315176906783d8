package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Generation GenerationConfig `mapstructure:"generation"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPClientConfig holds outbound HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	KeepAlive           time.Duration `mapstructure:"keep_alive"`
}

// AuthConfig holds session verification and route guard configuration.
type AuthConfig struct {
	// SessionSecret verifies HS256 session tokens.
	SessionSecret string `mapstructure:"session_secret"`
	// SessionPublicKey is a PEM encoded RSA public key for RS256 session tokens.
	SessionPublicKey string `mapstructure:"session_public_key"`
	// Issuer is checked against the iss claim when set.
	Issuer string `mapstructure:"issuer"`
	// SessionCookie is read when no Authorization header is present.
	SessionCookie string `mapstructure:"session_cookie"`
	// PublicRoutes bypass the session requirement.
	PublicRoutes []string `mapstructure:"public_routes"`
}

// Quota backends.
const (
	QuotaBackendMemory   = "memory"
	QuotaBackendRedis    = "redis"
	QuotaBackendPostgres = "postgres"
)

// QuotaConfig holds free-trial usage configuration.
type QuotaConfig struct {
	// FreeLimit is the number of free generations per user.
	FreeLimit int `mapstructure:"free_limit"`
	// Backend selects the usage counter store: memory, redis or postgres.
	Backend string `mapstructure:"backend"`
	// ProBypass exempts users with an active subscription from FreeLimit.
	ProBypass bool `mapstructure:"pro_bypass"`
}

// GenerationConfig holds hosted image generation configuration.
type GenerationConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIToken     string        `mapstructure:"api_token"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig configures the optional provider circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// StripeConfig holds Stripe configuration for the subscription webhook.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/pixelgate")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	v.SetEnvPrefix("PIXELGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applySecretEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applySecretEnv overrides sensitive values from the environment.
func applySecretEnv(cfg *Config) {
	if token := os.Getenv("REPLICATE_API_TOKEN"); token != "" && cfg.Generation.APIToken == "" {
		cfg.Generation.APIToken = token
	}
	if token := os.Getenv("PIXELGATE_REPLICATE_API_TOKEN"); token != "" {
		cfg.Generation.APIToken = token
	}
	if secret := os.Getenv("PIXELGATE_SESSION_SECRET"); secret != "" {
		cfg.Auth.SessionSecret = secret
	}
	if key := os.Getenv("PIXELGATE_SESSION_PUBLIC_KEY"); key != "" {
		cfg.Auth.SessionPublicKey = key
	}
	if password := os.Getenv("PIXELGATE_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("PIXELGATE_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("PIXELGATE_STRIPE_SECRET_KEY"); key != "" {
		cfg.Stripe.SecretKey = key
	}
	if secret := os.Getenv("PIXELGATE_STRIPE_WEBHOOK_SECRET"); secret != "" {
		cfg.Stripe.WebhookSecret = secret
	}
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	if c.Quota.FreeLimit <= 0 {
		return fmt.Errorf("quota.free_limit must be positive, got %d", c.Quota.FreeLimit)
	}

	switch c.Quota.Backend {
	case QuotaBackendMemory:
	case QuotaBackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("quota.backend %q requires redis.address", c.Quota.Backend)
		}
	case QuotaBackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("quota.backend %q requires database.host", c.Quota.Backend)
		}
	default:
		return fmt.Errorf("unknown quota.backend %q", c.Quota.Backend)
	}

	if c.Auth.SessionSecret == "" && c.Auth.SessionPublicKey == "" {
		return fmt.Errorf("auth.session_secret or auth.session_public_key is required")
	}

	if c.Generation.BaseURL == "" {
		return fmt.Errorf("generation.base_url is required")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "pixelgate")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 10)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Auth defaults
	v.SetDefault("auth.session_cookie", "__session")
	v.SetDefault("auth.public_routes", []string{"/", "/api/webhook"})

	// Quota defaults
	v.SetDefault("quota.free_limit", 5)
	v.SetDefault("quota.backend", QuotaBackendMemory)
	v.SetDefault("quota.pro_bypass", false)

	// Generation defaults
	v.SetDefault("generation.base_url", "https://api.replicate.com")
	v.SetDefault("generation.model", "stability-ai/sdxl:39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b")
	v.SetDefault("generation.timeout", 0)
	v.SetDefault("generation.poll_interval", time.Second)
	v.SetDefault("generation.circuit_breaker.enabled", false)
	v.SetDefault("generation.circuit_breaker.failure_threshold", 5)
	v.SetDefault("generation.circuit_breaker.timeout", 60*time.Second)

	// CORS defaults
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	// AllowOrigins restricts CORS; empty allows every origin
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// GatewayConfig holds the external payment gateway configuration
type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxRetryFor time.Duration `mapstructure:"max_retry_for"`
}

// MonetizationConfig holds the marketplace pricing and earnings split.
// OwnerSharePercent and the implied platform fee always sum to 100.
type MonetizationConfig struct {
	WalletPriceZEC    float64 `mapstructure:"wallet_price_zec"`
	OwnerSharePercent float64 `mapstructure:"owner_share_percent"`
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	DashboardTTL  time.Duration `mapstructure:"dashboard_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// BatchConfig holds batch processing configuration
type BatchConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

// ComparisonConfig holds the overall-position classification cut points and
// the gap severity thresholds (absolute gap percentage)
type ComparisonConfig struct {
	TopPerformerMin  float64 `mapstructure:"top_performer_min"`
	AverageMin       float64 `mapstructure:"average_min"`
	GapHighPercent   float64 `mapstructure:"gap_high_percent"`
	GapMediumPercent float64 `mapstructure:"gap_medium_percent"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// ResyncConfig holds the throttled resync worker configuration
type ResyncConfig struct {
	Interval  time.Duration `mapstructure:"interval"` // minimum gap between resyncs per wallet set
	Timeout   time.Duration `mapstructure:"timeout"`  // per-resync time bound
	PoolSize  int           `mapstructure:"pool_size"`
	QueueSize int           `mapstructure:"queue_size"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Gateway      GatewayConfig      `mapstructure:"gateway"`
	Monetization MonetizationConfig `mapstructure:"monetization"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Batch        BatchConfig        `mapstructure:"batch"`
	Comparison   ComparisonConfig   `mapstructure:"comparison"`
}

// ResyncBridgeConfig holds configuration for the resync bridge
type ResyncBridgeConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Resync     ResyncConfig   `mapstructure:"resync"`
	Batch      BatchConfig    `mapstructure:"batch"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("gateway.http_timeout", "10s")
	v.SetDefault("gateway.max_retry_for", "30s")
	v.SetDefault("monetization.wallet_price_zec", 0.1)
	v.SetDefault("monetization.owner_share_percent", 80.0)
	v.SetDefault("cache.dashboard_ttl", "5m")
	v.SetDefault("cache.sweep_interval", "1m")
	v.SetDefault("batch.chunk_size", 100)
	v.SetDefault("batch.pool_size", 10)
	v.SetDefault("batch.queue_size", 1024)
	v.SetDefault("comparison.top_performer_min", 4.0)
	v.SetDefault("comparison.average_min", 2.5)
	v.SetDefault("comparison.gap_high_percent", 50.0)
	v.SetDefault("comparison.gap_medium_percent", 10.0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Monetization.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadResyncBridgeConfig loads configuration for the resync bridge
func LoadResyncBridgeConfig(configFile string, envPath string) (*ResyncBridgeConfig, error) {
	v := configureViper("resync-bridge", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "INDEXER_EVENTS")
	v.SetDefault("nats.consumer_name", "resync-bridge")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 3)
	v.SetDefault("resync.interval", "5m")
	v.SetDefault("resync.timeout", "30s")
	v.SetDefault("resync.pool_size", 10)
	v.SetDefault("resync.queue_size", 1024)
	v.SetDefault("batch.chunk_size", 100)
	v.SetDefault("batch.pool_size", 10)
	v.SetDefault("batch.queue_size", 1024)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg ResyncBridgeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the earnings split is a sane percentage
func (c *MonetizationConfig) Validate() error {
	if c.OwnerSharePercent < 0 || c.OwnerSharePercent > 100 {
		return fmt.Errorf("monetization.owner_share_percent must be within [0,100], got %v", c.OwnerSharePercent)
	}
	if c.WalletPriceZEC <= 0 {
		return fmt.Errorf("monetization.wallet_price_zec must be positive, got %v", c.WalletPriceZEC)
	}
	return nil
}

// PlatformFeePercent is the platform's share of each data-access payment
func (c *MonetizationConfig) PlatformFeePercent() float64 {
	return 100 - c.OwnerSharePercent
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("WALLET_INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// Required for viper to map env vars to config struct fields when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Gateway
		"gateway.base_url",
		"gateway.api_key",
		"gateway.http_timeout",
		"gateway.max_retry_for",
		// Monetization
		"monetization.wallet_price_zec",
		"monetization.owner_share_percent",
		// Cache
		"cache.dashboard_ttl",
		"cache.sweep_interval",
		// Batch
		"batch.chunk_size",
		"batch.pool_size",
		"batch.queue_size",
		// Comparison
		"comparison.top_performer_min",
		"comparison.average_min",
		"comparison.gap_high_percent",
		"comparison.gap_medium_percent",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Resync
		"resync.interval",
		"resync.timeout",
		"resync.pool_size",
		"resync.queue_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

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

	"github.com/feral-file/nft-registry/internal/domain"
)

// Storage backends of the node
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
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
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables the event stream.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// LedgerConfig holds the simulated host ledger configuration
type LedgerConfig struct {
	ChainID        string        `mapstructure:"chain_id"`
	Backend        string        `mapstructure:"backend"` // memory, postgres or redis
	BlockInterval  time.Duration `mapstructure:"block_interval"`
	MaxTxsPerBlock int           `mapstructure:"max_txs_per_block"`
	MempoolSize    int           `mapstructure:"mempool_size"`
}

// ProgramFeeConfig holds the registry-wide fee charged on sale transfers
type ProgramFeeConfig struct {
	Collector   string `mapstructure:"collector"`
	BasisPoints uint16 `mapstructure:"basis_points"`
}

// LimitsConfig bounds token record sizes. Zero means the built-in default.
type LimitsConfig struct {
	MaxMetadataEntries int `mapstructure:"max_metadata_entries"`
	MaxKeyLength       int `mapstructure:"max_key_length"`
	MaxValueSize       int `mapstructure:"max_value_size"`
	MaxMetadataSize    int `mapstructure:"max_metadata_size"`
	MaxViewList        int `mapstructure:"max_view_list"`
	MaxRoyaltySplits   int `mapstructure:"max_royalty_splits"`
}

// RegistryConfig holds the registry policy
type RegistryConfig struct {
	Permissionless bool             `mapstructure:"permissionless"`
	Minters        []string         `mapstructure:"minters"`
	MintersPath    string           `mapstructure:"minters_path"`
	ProgramFee     ProgramFeeConfig `mapstructure:"program_fee"`
	Limits         LimitsConfig     `mapstructure:"limits"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout    int      `mapstructure:"idle_timeout"`  // in seconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string `mapstructure:"jwt_public_key"`
	Issuer       string `mapstructure:"issuer"`
}

// RateLimitConfig holds per-signer submission throttling
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

// WebhooksConfig holds webhook delivery configuration
type WebhooksConfig struct {
	URLs            []string      `mapstructure:"urls"`
	Secret          string        `mapstructure:"secret"`
	EventTypes      []string      `mapstructure:"event_types"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxWorkers      int           `mapstructure:"max_workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

// NodeConfig holds configuration for registry-node
type NodeConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Redis      RedisConfig     `mapstructure:"redis"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Ledger     LedgerConfig    `mapstructure:"ledger"`
	Registry   RegistryConfig  `mapstructure:"registry"`
	Auth       AuthConfig      `mapstructure:"auth"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Webhooks   WebhooksConfig  `mapstructure:"webhooks"`
}

// AgentConfig holds configuration for nft-agent
type AgentConfig struct {
	BaseConfig          `mapstructure:",squash"`
	NodeURL             string        `mapstructure:"node_url"`
	ChainID             string        `mapstructure:"chain_id"`
	PrivateKey          string        `mapstructure:"private_key"` // hex, with or without 0x
	AccessToken         string        `mapstructure:"access_token"`
	ExplorerURL         string        `mapstructure:"explorer_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	PollInitialInterval time.Duration `mapstructure:"poll_initial_interval"`
	PollMaxInterval     time.Duration `mapstructure:"poll_max_interval"`
	NATS                NATSConfig    `mapstructure:"nats"`
}

// LoadNodeConfig loads configuration for registry-node
func LoadNodeConfig(configFile string, envPath string) (*NodeConfig, error) {
	v := configureViper("registry-node", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.namespace", "nft-registry")
	v.SetDefault("nats.stream_name", "REGISTRY_EVENTS")
	v.SetDefault("nats.subject_prefix", "registry.events")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "registry-node")
	v.SetDefault("ledger.chain_id", domain.DEFAULT_CHAIN_ID)
	v.SetDefault("ledger.backend", BackendMemory)
	v.SetDefault("ledger.block_interval", "1s")
	v.SetDefault("ledger.max_txs_per_block", 100)
	v.SetDefault("ledger.mempool_size", 10000)
	v.SetDefault("registry.permissionless", false)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.idle_ttl", "10m")
	v.SetDefault("webhooks.timeout", "10s")
	v.SetDefault("webhooks.max_workers", 8)
	v.SetDefault("webhooks.queue_size", 1024)
	v.SetDefault("webhooks.initial_interval", "500ms")
	v.SetDefault("webhooks.max_interval", "30s")
	v.SetDefault("webhooks.max_elapsed_time", "5m")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config NodeConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the node configuration
func (c *NodeConfig) Validate() error {
	switch c.Ledger.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	if c.Ledger.ChainID == "" {
		return fmt.Errorf("ledger.chain_id is required")
	}
	if c.Registry.ProgramFee.BasisPoints > domain.MaxBasisPoints {
		return fmt.Errorf("registry.program_fee.basis_points must be at most %d", domain.MaxBasisPoints)
	}
	if len(c.Webhooks.URLs) > 0 && c.Webhooks.Secret == "" {
		return fmt.Errorf("webhooks.secret is required when webhooks.urls is set")
	}
	return nil
}

// LoadAgentConfig loads configuration for nft-agent
func LoadAgentConfig(configFile string, envPath string) (*AgentConfig, error) {
	v := configureViper("nft-agent", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("node_url", "http://localhost:8080")
	v.SetDefault("explorer_url", "http://localhost:8080/explorer")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("receipt_timeout", "30s")
	v.SetDefault("poll_initial_interval", "250ms")
	v.SetDefault("poll_max_interval", "2s")
	v.SetDefault("nats.stream_name", "REGISTRY_EVENTS")
	v.SetDefault("nats.subject_prefix", "registry.events")
	v.SetDefault("nats.consumer_name", "nft-agent")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "nft-agent")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 3)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config AgentConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// readConfig reads the config file. A missing file falls back to defaults and environment variables.
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

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
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/registry-node/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("NFT_REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
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
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.namespace",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Ledger
		"ledger.chain_id",
		"ledger.backend",
		"ledger.block_interval",
		"ledger.max_txs_per_block",
		"ledger.mempool_size",
		// Registry
		"registry.permissionless",
		"registry.minters",
		"registry.minters_path",
		"registry.program_fee.collector",
		"registry.program_fee.basis_points",
		"registry.limits.max_metadata_entries",
		"registry.limits.max_key_length",
		"registry.limits.max_value_size",
		"registry.limits.max_metadata_size",
		"registry.limits.max_view_list",
		"registry.limits.max_royalty_splits",
		// Auth
		"auth.jwt_public_key",
		"auth.issuer",
		// Rate limit
		"rate_limit.requests_per_second",
		"rate_limit.burst",
		"rate_limit.idle_ttl",
		// Webhooks
		"webhooks.urls",
		"webhooks.secret",
		"webhooks.event_types",
		"webhooks.timeout",
		"webhooks.max_workers",
		"webhooks.queue_size",
		"webhooks.initial_interval",
		"webhooks.max_interval",
		"webhooks.max_elapsed_time",
		// Agent
		"node_url",
		"chain_id",
		"private_key",
		"access_token",
		"explorer_url",
		"request_timeout",
		"receipt_timeout",
		"poll_initial_interval",
		"poll_max_interval",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
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

// MinterAddresses parses the configured minter addresses
func (c *RegistryConfig) MinterAddresses() ([]domain.Address, error) {
	addrs := make([]domain.Address, 0, len(c.Minters))
	for i, raw := range c.Minters {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid minter at index %d: %w", i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

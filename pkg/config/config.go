package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration shared by the API server
// and the standalone sync daemon.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Chain       ChainConfig       `mapstructure:"chain"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Governance  GovernanceConfig  `mapstructure:"governance"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains Postgres connection settings for the mirror
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ChainConfig contains RPC and contract settings
type ChainConfig struct {
	RPCURL           string        `mapstructure:"rpc_url"`
	ChainID          int64         `mapstructure:"chain_id"`
	RegistryContract string        `mapstructure:"registry_contract"`
	GovernorContract string        `mapstructure:"governor_contract"`
	TimelockContract string        `mapstructure:"timelock_contract"`
	TokenContract    string        `mapstructure:"token_contract"`
	SignerPrivateKey string        `mapstructure:"signer_private_key"`
	GasLimit         uint64        `mapstructure:"gas_limit"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	// Confirmations holds back the sync upper bound from the reported head.
	// 0 trusts the head as-is.
	Confirmations uint64 `mapstructure:"confirmations"`
}

// AuthConfig contains DID challenge/session settings
type AuthConfig struct {
	Domain       string        `mapstructure:"domain"`
	URI          string        `mapstructure:"uri"`
	ChallengeTTL time.Duration `mapstructure:"challenge_ttl"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

// CredentialsConfig contains verifiable-credential acceptance policy.
// Empty lists mean no restriction on that axis.
type CredentialsConfig struct {
	AllowedIssuers []string `mapstructure:"allowed_issuers"`
	AcceptedTypes  []string `mapstructure:"accepted_types"`
}

// GovernanceConfig mirrors the Governor/Timelock timing parameters.
// The mirror does not recompute quorum; these values are carried for
// display and for sanity checks on recorded windows.
type GovernanceConfig struct {
	VotingDelayBlocks  int64 `mapstructure:"voting_delay_blocks"`
	VotingPeriodBlocks int64 `mapstructure:"voting_period_blocks"`
	QuorumFraction     int64 `mapstructure:"quorum_fraction"`
	TimelockDelay      int64 `mapstructure:"timelock_delay_seconds"`
}

// SyncConfig contains event-sync scheduler settings
type SyncConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	FloorBlock uint64        `mapstructure:"floor_block"`
	Source     string        `mapstructure:"source"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "academia_mirror")

	// Chain defaults
	viper.SetDefault("chain.chain_id", 80002)
	viper.SetDefault("chain.gas_limit", 500000)
	viper.SetDefault("chain.request_timeout", "30s")
	viper.SetDefault("chain.confirmations", 0)

	// Auth defaults
	viper.SetDefault("auth.domain", "localhost")
	viper.SetDefault("auth.uri", "http://localhost")
	viper.SetDefault("auth.challenge_ttl", "10m")
	viper.SetDefault("auth.session_ttl", "24h")

	// Governance defaults (matches the testnet Governor deployment)
	viper.SetDefault("governance.voting_delay_blocks", 1)
	viper.SetDefault("governance.voting_period_blocks", 45818)
	viper.SetDefault("governance.quorum_fraction", 4)
	viper.SetDefault("governance.timelock_delay_seconds", 172800)

	// Sync defaults
	viper.SetDefault("sync.enabled", true)
	viper.SetDefault("sync.interval", "30s")
	viper.SetDefault("sync.floor_block", 0)
	viper.SetDefault("sync.source", "artifactRegistry")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_port", 9090)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if config.Sync.Enabled && config.Chain.RegistryContract == "" {
		return fmt.Errorf("chain.registry_contract is required when sync is enabled")
	}
	if config.Auth.ChallengeTTL < time.Minute {
		return fmt.Errorf("auth.challenge_ttl must be at least 1m")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

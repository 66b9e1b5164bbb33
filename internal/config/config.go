// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chains    []ChainConfig   `mapstructure:"chains"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ChainConfig declares one chain in the registry.
type ChainConfig struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	EVMChainID uint64 `mapstructure:"evm_chain_id"` // 0 = not EVM
}

// VenuesConfig groups per-venue connection settings.
type VenuesConfig struct {
	AMM        AMMVenueConfig        `mapstructure:"amm"`
	Crosschain CrosschainVenueConfig `mapstructure:"crosschain"`
	Stream     StreamVenueConfig     `mapstructure:"stream"`
}

// AMMVenueConfig holds settings for the EVM AMM venue adapter.
type AMMVenueConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ChainID        string `mapstructure:"chain_id"`
	HTTPURL        string `mapstructure:"http_url"`
	QuoterAddress  string `mapstructure:"quoter_address"`
	RouterAddress  string `mapstructure:"router_address"`
	DefaultFeeBps  int    `mapstructure:"default_fee_bps"`
	RequestsPerMin int    `mapstructure:"requests_per_min"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *AMMVenueConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// RouterAddressHex returns the swap router address as common.Address.
func (c *AMMVenueConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// CrosschainVenueConfig holds settings for the cross-chain transfer venue.
type CrosschainVenueConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RequestsPerMin int           `mapstructure:"requests_per_min"`
}

// StreamVenueConfig holds settings for the streaming edge-feed venue.
type StreamVenueConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	StaleTimeout   time.Duration `mapstructure:"stale_timeout"`
}

// RoutingConfig holds route selection parameters.
type RoutingConfig struct {
	MaxQuotePaths      int           `mapstructure:"max_quote_paths"`
	WeightEqualityDiv  int64         `mapstructure:"weight_equality_divisor"`
	DefaultSlippageBps int64         `mapstructure:"default_slippage_bps"`
	RebuildDebounce    time.Duration `mapstructure:"rebuild_debounce"`
}

// DefaultSlippage returns the default slippage as a decimal fraction.
func (c *RoutingConfig) DefaultSlippage() decimal.Decimal {
	return decimal.New(c.DefaultSlippageBps, -4)
}

// WalletConfig describes the wallet the router executes for.
type WalletConfig struct {
	// Chains the wallet has an account on.
	AccountChains []string `mapstructure:"account_chains"`
	// Chains where the wallet executes calls with a delay (multisig/proxy).
	DelayedExecutionChains []string `mapstructure:"delayed_execution_chains"`
	// Non-native assets ("chain:asset") that can pay transaction fees.
	FeePaymentAssets []string `mapstructure:"fee_payment_assets"`
	// Hex-encoded private key used to sign EVM transactions.
	SignerKey string `mapstructure:"signer_key"`
}

// PricingConfig holds price feed settings for path cost estimation.
type PricingConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RefreshEvery   time.Duration `mapstructure:"refresh_every"`
	RequestsPerMin int           `mapstructure:"requests_per_min"`
	USDAnchorAsset string        `mapstructure:"usd_anchor_asset"` // price id of the USD-quoted reference asset
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ROUTER")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Config file is optional, env vars may carry everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ROUTER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ROUTER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ROUTER_LOG_LEVEL", "LOG_LEVEL")

	// Venues
	v.BindEnv("venues.amm.http_url", "ROUTER_AMM_HTTP_URL")
	v.BindEnv("venues.amm.quoter_address", "ROUTER_AMM_QUOTER")
	v.BindEnv("venues.crosschain.base_url", "ROUTER_CROSSCHAIN_URL")
	v.BindEnv("venues.stream.websocket_url", "ROUTER_STREAM_WS_URL")

	// Routing
	v.BindEnv("routing.max_quote_paths", "ROUTER_MAX_QUOTE_PATHS")
	v.BindEnv("routing.default_slippage_bps", "ROUTER_SLIPPAGE_BPS")

	// Wallet
	v.BindEnv("wallet.signer_key", "ROUTER_SIGNER_KEY")

	// Pricing
	v.BindEnv("pricing.base_url", "ROUTER_PRICING_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ROUTER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ROUTER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ROUTER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "exchange-router")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Venue defaults
	v.SetDefault("venues.amm.enabled", false)
	v.SetDefault("venues.amm.chain_id", "ethereum")
	v.SetDefault("venues.amm.default_fee_bps", 30)
	v.SetDefault("venues.amm.requests_per_min", 300)
	v.SetDefault("venues.crosschain.enabled", false)
	v.SetDefault("venues.crosschain.request_timeout", "10s")
	v.SetDefault("venues.crosschain.requests_per_min", 120)
	v.SetDefault("venues.stream.enabled", false)
	v.SetDefault("venues.stream.initial_backoff", "1s")
	v.SetDefault("venues.stream.max_backoff", "30s")
	v.SetDefault("venues.stream.stale_timeout", "1m")

	// Routing defaults
	v.SetDefault("routing.max_quote_paths", 4)
	v.SetDefault("routing.weight_equality_divisor", 10)
	v.SetDefault("routing.default_slippage_bps", 50)
	v.SetDefault("routing.rebuild_debounce", "500ms")

	// Pricing defaults
	v.SetDefault("pricing.refresh_every", "1m")
	v.SetDefault("pricing.requests_per_min", 50)
	v.SetDefault("pricing.usd_anchor_asset", "tether")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "exchange-router")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Routing.MaxQuotePaths <= 0 {
		return fmt.Errorf("routing.max_quote_paths must be positive")
	}
	if c.Routing.WeightEqualityDiv <= 0 {
		return fmt.Errorf("routing.weight_equality_divisor must be positive")
	}
	if c.Venues.AMM.Enabled {
		if c.Venues.AMM.HTTPURL == "" {
			return fmt.Errorf("venues.amm.http_url is required when the amm venue is enabled")
		}
		if !common.IsHexAddress(c.Venues.AMM.QuoterAddress) {
			return fmt.Errorf("invalid venues.amm.quoter_address: %s", c.Venues.AMM.QuoterAddress)
		}
		if !common.IsHexAddress(c.Venues.AMM.RouterAddress) {
			return fmt.Errorf("invalid venues.amm.router_address: %s", c.Venues.AMM.RouterAddress)
		}
	}
	if c.Venues.Crosschain.Enabled && c.Venues.Crosschain.BaseURL == "" {
		return fmt.Errorf("venues.crosschain.base_url is required when the crosschain venue is enabled")
	}
	if c.Venues.Stream.Enabled && c.Venues.Stream.WebSocketURL == "" {
		return fmt.Errorf("venues.stream.websocket_url is required when the stream venue is enabled")
	}
	return nil
}

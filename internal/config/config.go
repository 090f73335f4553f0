// Package config defines the top-level configuration for the velox client
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by VELOX_* environment variables.
type Config struct {
	Wallet   WalletConfig   `toml:"wallet"`
	Exchange ExchangeConfig `toml:"exchange"`
	Node     NodeConfig     `toml:"node"`
	Send     SendConfig     `toml:"send"`
	Database DatabaseConfig `toml:"database"`
	LogLevel string         `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ExchangeConfig holds the exchange API endpoints and credentials.
type ExchangeConfig struct {
	APIHost      string   `toml:"api_host"`
	WSHost       string   `toml:"ws_host"`
	APIAuth      string   `toml:"api_auth"`
	APITimeout   duration `toml:"api_timeout"`
	BlockchainID int64    `toml:"blockchain_id"`
}

// NodeConfig holds the Ethereum node connection parameters.
type NodeConfig struct {
	RPCURL string `toml:"rpc_url"`
}

// SendConfig holds transaction submission defaults. A non-zero gas_limit
// pins the limit and skips estimation; a non-zero gas_price pins the fee in
// wei and skips the oracle. Zero values keep the dynamic behavior.
type SendConfig struct {
	GasLimit      uint64  `toml:"gas_limit"`
	GasMultiplier float64 `toml:"gas_multiplier"`
	GasPrice      int64   `toml:"gas_price"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the optional
// submission audit store. An empty DSN disables the store.
type DatabaseConfig struct {
	DSN          string `toml:"dsn"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "3s", "500ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "3s" or "500ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			APIHost:    "https://api.velox.exchange",
			WSHost:     "wss://api.velox.exchange/stream",
			APITimeout: duration{3 * time.Second},
		},
		Send: SendConfig{
			GasMultiplier: 1.5,
		},
		Database: DatabaseConfig{
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet — read-only use is fine without a key, but an encrypted key
	// file is unusable without its password.
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Exchange endpoints
	if c.Exchange.APIHost == "" {
		errs = append(errs, "exchange: api_host must not be empty")
	}
	if c.Exchange.BlockchainID <= 0 {
		errs = append(errs, "exchange: blockchain_id must be positive")
	}
	if c.Exchange.APITimeout.Duration < 0 {
		errs = append(errs, "exchange: api_timeout must not be negative")
	}

	// Node
	if c.Node.RPCURL == "" {
		errs = append(errs, "node: rpc_url must not be empty")
	}

	// Send
	if c.Send.GasMultiplier < 0 {
		errs = append(errs, "send: gas_multiplier must not be negative")
	}
	if c.Send.GasPrice < 0 {
		errs = append(errs, "send: gas_price must not be negative")
	}

	// Database — only checked when the audit store is enabled.
	if strings.TrimSpace(c.Database.DSN) != "" {
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies VELOX_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known VELOX_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "VELOX_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "VELOX_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "VELOX_WALLET_KEY_PASSWORD")

	// ── Exchange ──
	setStr(&cfg.Exchange.APIHost, "VELOX_EXCHANGE_API_HOST")
	setStr(&cfg.Exchange.WSHost, "VELOX_EXCHANGE_WS_HOST")
	setStr(&cfg.Exchange.APIAuth, "VELOX_EXCHANGE_API_AUTH")
	setDuration(&cfg.Exchange.APITimeout, "VELOX_EXCHANGE_API_TIMEOUT")
	setInt64(&cfg.Exchange.BlockchainID, "VELOX_EXCHANGE_BLOCKCHAIN_ID")

	// ── Node ──
	setStr(&cfg.Node.RPCURL, "VELOX_NODE_RPC_URL")

	// ── Send ──
	setUint64(&cfg.Send.GasLimit, "VELOX_SEND_GAS_LIMIT")
	setFloat64(&cfg.Send.GasMultiplier, "VELOX_SEND_GAS_MULTIPLIER")
	setInt64(&cfg.Send.GasPrice, "VELOX_SEND_GAS_PRICE")

	// ── Database ──
	setStr(&cfg.Database.DSN, "VELOX_DATABASE_DSN")
	setInt(&cfg.Database.PoolMaxConns, "VELOX_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "VELOX_DATABASE_POOL_MIN_CONNS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "VELOX_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

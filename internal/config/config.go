package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Chain        string `mapstructure:"chain"` // "solana" or "evm"
	RPCURL       string `mapstructure:"rpc_url"`
	PrivateKey   string `mapstructure:"private_key"`
	PostgresURL  string `mapstructure:"postgres_url"`
	MinLockValue uint64 `mapstructure:"min_lock_value"`
	EventBuffer  int    `mapstructure:"event_buffer"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`

	// Solana-only: subscribe to the program's logs over websocket and feed
	// decoded events into the bus.
	WatchEvents bool   `mapstructure:"watch_events"`
	WSURL       string `mapstructure:"ws_url"`

	// EVM-only settings, ignored for the solana chain.
	EVMDeployer     string `mapstructure:"evm_deployer"`
	EVMInitCodeHash string `mapstructure:"evm_init_code_hash"`
	EVMLocker       string `mapstructure:"evm_locker"`
}

const (
	DefaultChain        = "solana"
	DefaultMinLockValue = 1
	DefaultEventBuffer  = 100
	DefaultLogFile      = "twoside.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"chain":          DefaultChain,
		"min_lock_value": DefaultMinLockValue,
		"event_buffer":   DefaultEventBuffer,
		"log_file":       DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	switch cfg.Chain {
	case "solana":
	case "evm":
		if cfg.EVMDeployer == "" || cfg.EVMInitCodeHash == "" || cfg.EVMLocker == "" {
			return errors.New("evm chain requires evm_deployer, evm_init_code_hash and evm_locker")
		}
	default:
		return errors.New("chain must be solana or evm")
	}
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.PrivateKey == "" {
		return errors.New("missing private_key in configuration")
	}
	if cfg.MinLockValue == 0 {
		return errors.New("min_lock_value must be positive")
	}
	if cfg.WatchEvents {
		if cfg.Chain != "solana" {
			return errors.New("watch_events is only supported on the solana chain")
		}
		if err := validateURLWithCache(cfg.WSURL, "ws"); err != nil {
			return errors.New("watch_events requires a valid ws_url")
		}
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer size")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	key := protocol + "|" + rawURL
	if _, ok := urlCache.Load(key); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(key, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("TWOSIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envKey := v.GetString("PRIVATE_KEY"); envKey != "" {
		cfg.PrivateKey = envKey
	}
	if envRPC := v.GetString("RPC_URL"); envRPC != "" {
		cfg.RPCURL = envRPC
	}
	if envPostgres := v.GetString("POSTGRES_URL"); envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}
}

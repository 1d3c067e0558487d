// Package node holds the gateway's configuration (TOML load, DVRPC_*
// environment overrides, validation) and the LifecycleManager that starts
// and stops registered services in order. The components themselves are
// wired together in cmd/dvrpc-gateway.
package node

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Network identifies one of the well-known Ethereum networks this
// gateway can be pointed at. Each maps to a fixed EIP-155 chain ID.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkSepolia Network = "sepolia"
	NetworkHolesky Network = "holesky"
)

// ChainID returns the network's canonical chain ID, or 0 if unknown.
func (n Network) ChainID() uint64 {
	switch n {
	case NetworkMainnet:
		return 1
	case NetworkSepolia:
		return 11155111
	case NetworkHolesky:
		return 17000
	default:
		return 0
	}
}

// Config holds the full gateway configuration, loaded from a TOML file
// and then overridden by DVRPC_* environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Ethereum  EthereumConfig  `toml:"ethereum"`
	Consensus ConsensusConfig `toml:"consensus"`
	Proof     ProofConfig     `toml:"proof"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig controls the HTTP JSON-RPC listener.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           uint16 `toml:"port"`
	MaxConnections int    `toml:"max_connections"`
}

// EthereumConfig names the upstream execution and consensus RPC
// endpoints this gateway verifies proofs against.
type EthereumConfig struct {
	Network      Network `toml:"network"`
	ExecutionRPC string  `toml:"execution_rpc"`
	ConsensusRPC string  `toml:"consensus_rpc"`
	ChainID      uint64  `toml:"chain_id"`
}

// ConsensusConfig controls the light-client head tracker (C7).
type ConsensusConfig struct {
	Enabled    bool   `toml:"enabled"`
	Checkpoint string `toml:"checkpoint"`
	DataDir    string `toml:"data_dir"`
}

// ProofConfig is accepted for forward compatibility. CacheSize is parsed
// but unused: this gateway holds no persistent proof cache (Non-goals).
type ProofConfig struct {
	Enabled   bool `toml:"enabled"`
	CacheSize int  `toml:"cache_size"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Default returns a Config with the same defaults as the original
// proof-gateway's config.rs.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8545,
			MaxConnections: 100,
		},
		Ethereum: EthereumConfig{
			Network: NetworkMainnet,
			ChainID: 1,
		},
		Consensus: ConsensusConfig{
			Enabled: true,
			DataDir: "./data/consensus",
		},
		Proof: ProofConfig{
			Enabled:   true,
			CacheSize: 128,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// Load reads and parses a TOML config file at path, applies DVRPC_*
// environment overrides, and validates the result. An empty path
// returns the defaults with env overrides and validation still applied.
func Load(path string) (Config, error) {
	cfg := Default()

	chainIDSet := false
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		chainIDSet = meta.IsDefined("ethereum", "chain_id")
	}
	if !chainIDSet {
		if id := cfg.Ethereum.Network.ChainID(); id != 0 {
			cfg.Ethereum.ChainID = id
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("DVRPC_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := os.LookupEnv("DVRPC_PORT"); ok {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.Server.Port = uint16(n)
		}
	}
	if v, ok := os.LookupEnv("DVRPC_NETWORK"); ok {
		cfg.Ethereum.Network = Network(strings.ToLower(v))
	}
	if v, ok := os.LookupEnv("DVRPC_EXECUTION_RPC"); ok {
		cfg.Ethereum.ExecutionRPC = v
	}
	if v, ok := os.LookupEnv("DVRPC_CONSENSUS_RPC"); ok {
		cfg.Ethereum.ConsensusRPC = v
	}
	if v, ok := os.LookupEnv("DVRPC_CHAIN_ID"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Ethereum.ChainID = n
		}
	}
	if v, ok := os.LookupEnv("DVRPC_CONSENSUS_ENABLED"); ok {
		cfg.Consensus.Enabled = v == "true" || v == "1"
	}
	if v, ok := os.LookupEnv("DVRPC_CHECKPOINT"); ok {
		cfg.Consensus.Checkpoint = v
	}
}

// Validate checks the configuration for correctness, matching the
// original gateway's validation rules.
func (c *Config) Validate() error {
	if c.Ethereum.ExecutionRPC == "" {
		return errors.New("config: execution_rpc must be configured")
	}
	if c.Consensus.Enabled && c.Ethereum.ConsensusRPC == "" {
		return errors.New("config: consensus_rpc must be configured when consensus is enabled")
	}
	switch c.Ethereum.Network {
	case NetworkMainnet, NetworkSepolia, NetworkHolesky:
	default:
		return fmt.Errorf("config: unknown network %q", c.Ethereum.Network)
	}
	if c.Server.Port == 0 {
		return errors.New("config: server.port must be nonzero")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	return nil
}

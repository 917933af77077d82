// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Genesis: the asset set, allocations and owners, immutable after
//     first start
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds node-specific runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Gossip networking
	Gossip GossipConfig

	// RPC server
	RPC RPCConfig

	// Wallet
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// GossipConfig holds event gossip network settings.
type GossipConfig struct {
	Enabled    bool     `conf:"gossip.enabled"`
	ListenAddr string   `conf:"gossip.listen"`
	Port       int      `conf:"gossip.port"`
	Seeds      []string `conf:"gossip.seeds"`
	MaxPeers   int      `conf:"gossip.maxpeers"`
	NoDiscover bool     `conf:"gossip.nodiscover"`
	DHTServer  bool     `conf:"gossip.dhtserver"` // Run DHT in server mode (for seed nodes)
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// WalletConfig holds wallet settings.
type WalletConfig struct {
	Enabled bool `conf:"wallet.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.rpsx
//	macOS:   ~/Library/Application Support/RPSX
//	Windows: %APPDATA%\RPSX
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rpsx"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "RPSX")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "RPSX")
		}
		return filepath.Join(home, "AppData", "Roaming", "RPSX")
	default:
		return filepath.Join(home, ".rpsx")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the ledger state database directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.NetworkDataDir(), "state")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "rpsx.conf")
}

// GenesisFile returns the genesis file path.
func (c *Config) GenesisFile() string {
	return filepath.Join(c.NetworkDataDir(), "genesis.json")
}

package config

import "fmt"

var logLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for inconsistencies and fills in
// values that may be left empty.
func (c *Config) Validate() error {
	switch c.Network {
	case Mainnet, Testnet:
	default:
		return fmt.Errorf("invalid network %q", c.Network)
	}

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}

	if c.Gossip.Port < 0 || c.Gossip.Port > 65535 {
		return fmt.Errorf("invalid gossip port %d", c.Gossip.Port)
	}
	if c.Gossip.MaxPeers < 0 {
		return fmt.Errorf("invalid gossip maxpeers %d", c.Gossip.MaxPeers)
	}
	if c.Gossip.Enabled && c.Gossip.ListenAddr == "" {
		c.Gossip.ListenAddr = "0.0.0.0"
	}

	if c.RPC.Port < 0 || c.RPC.Port > 65535 {
		return fmt.Errorf("invalid rpc port %d", c.RPC.Port)
	}
	if c.RPC.Enabled && c.RPC.Addr == "" {
		c.RPC.Addr = "127.0.0.1"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if !logLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

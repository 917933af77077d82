package config

// Default ports per network.
const (
	MainnetGossipPort = 30403
	MainnetRPCPort    = 8640

	TestnetGossipPort = 31403
	TestnetRPCPort    = 18640
)

// DefaultMainnet returns the default mainnet configuration.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Gossip: GossipConfig{
			Enabled:    true,
			ListenAddr: "0.0.0.0",
			Port:       MainnetGossipPort,
			MaxPeers:   50,
		},
		RPC: RPCConfig{
			Enabled:     true,
			Addr:        "127.0.0.1",
			Port:        MainnetRPCPort,
			AllowedIPs:  []string{"127.0.0.1", "::1"},
			CORSOrigins: []string{},
		},
		Wallet: WalletConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultTestnet returns the default testnet configuration.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Gossip.Port = TestnetGossipPort
	cfg.RPC.Port = TestnetRPCPort
	cfg.Log.Level = "debug"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	if network == Testnet {
		return DefaultTestnet()
	}
	return DefaultMainnet()
}

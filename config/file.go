package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile reads a config file in "key = value" format. Lines starting
// with # are comments. A missing file is not an error; it returns an
// empty map.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("config line %d: missing '='", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		// Strip optional quotes around the value.
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return values, nil
}

// ApplyFileConfig overlays values from a config file onto cfg.
// Unknown keys are an error so typos do not silently no-op.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		switch NetworkType(value) {
		case Mainnet, Testnet:
			cfg.Network = NetworkType(value)
		default:
			return fmt.Errorf("config: unknown network %q", value)
		}
	case "datadir":
		cfg.DataDir = value
	case "gossip.enabled":
		return parseBool(value, key, &cfg.Gossip.Enabled)
	case "gossip.listen":
		cfg.Gossip.ListenAddr = value
	case "gossip.port":
		return parseInt(value, key, &cfg.Gossip.Port)
	case "gossip.seeds":
		cfg.Gossip.Seeds = parseStringList(value)
	case "gossip.maxpeers":
		return parseInt(value, key, &cfg.Gossip.MaxPeers)
	case "gossip.nodiscover":
		return parseBool(value, key, &cfg.Gossip.NoDiscover)
	case "gossip.dhtserver":
		return parseBool(value, key, &cfg.Gossip.DHTServer)
	case "rpc.enabled":
		return parseBool(value, key, &cfg.RPC.Enabled)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		return parseInt(value, key, &cfg.RPC.Port)
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)
	case "wallet.enabled":
		return parseBool(value, key, &cfg.Wallet.Enabled)
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		return parseBool(value, key, &cfg.Log.JSON)
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}
	return nil
}

func parseBool(value, key string, dst *bool) error {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("config: %s: invalid boolean %q", key, value)
	}
	return nil
}

func parseInt(value, key string, dst *int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s: invalid number %q", key, value)
	}
	*dst = n
	return nil
}

// parseStringList splits a comma-separated list, trimming whitespace
// and dropping empty items.
func parseStringList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

const defaultConfigTemplate = `# rpsx node configuration
# Lines starting with # are comments. Format: key = value

# Network to join: mainnet or testnet
network = %s

# Data directory (state, keystore, logs)
# datadir = %s

# --- Gossip networking ---
gossip.enabled = %t
gossip.listen = %s
gossip.port = %d
# Comma-separated seed multiaddrs
# gossip.seeds =
gossip.maxpeers = %d
# gossip.nodiscover = false
# gossip.dhtserver = false

# --- RPC server ---
rpc.enabled = %t
rpc.addr = %s
rpc.port = %d
# Comma-separated client IPs allowed to call the RPC server
rpc.allowed = %s
# rpc.cors =

# --- Wallet ---
wallet.enabled = %t

# --- Logging ---
# Levels: trace, debug, info, warn, error
log.level = %s
# log.file =
# log.json = false
`

// WriteDefaultConfig writes a commented config file with the defaults
// for cfg's network. Existing files are left untouched.
func WriteDefaultConfig(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := fmt.Sprintf(defaultConfigTemplate,
		cfg.Network,
		cfg.DataDir,
		cfg.Gossip.Enabled,
		cfg.Gossip.ListenAddr,
		cfg.Gossip.Port,
		cfg.Gossip.MaxPeers,
		cfg.RPC.Enabled,
		cfg.RPC.Addr,
		cfg.RPC.Port,
		strings.Join(cfg.RPC.AllowedIPs, ","),
		cfg.Wallet.Enabled,
		cfg.Log.Level,
	)
	return os.WriteFile(path, []byte(content), 0644)
}

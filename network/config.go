package network

import "fmt"

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "LINKEDLIST_RPC_URL"
	EnvRPCUser = "LINKEDLIST_RPC_USER"
	EnvRPCPass = "LINKEDLIST_RPC_PASS"
)

// RPCConfig holds the connection parameters of a ledger gateway's JSON-RPC
// interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// NetworkPresets contains default RPC configurations for the test networks.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"preview": {URL: "http://localhost:8090"},
	"preprod": {URL: "http://localhost:8091"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing
// priority:
//  1. CLI flags
//  2. Environment variables (LINKEDLIST_RPC_URL, LINKEDLIST_RPC_USER, LINKEDLIST_RPC_PASS)
//  3. Network presets (preview and preprod only)
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v := env[EnvRPCURL]; v != "" {
			result.URL = v
		}
		if v := env[EnvRPCUser]; v != "" {
			result.User = v
		}
		if v := env[EnvRPCPass]; v != "" {
			result.Password = v
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %s requires explicit RPC configuration (set --rpc, %s, or the config file)",
			ErrNoEndpoint, network, EnvRPCURL)
	}
	return &result, nil
}

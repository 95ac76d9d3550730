package config

import (
	"fmt"
	"os"
)

const (
	EnvLocal   = "local"
	EnvDevnet  = "devnet"
	EnvTestnet = "testnet"

	// EnvVarNodeRPCURL overrides the node endpoint of every environment.
	EnvVarNodeRPCURL = "IMPEX_NODE_RPC_URL"
)

type NetworkConfig struct {
	Moniker    string
	NodeRPCURL string
	SS58Prefix uint16
}

func NetworkConfigForEnv(env string) (*NetworkConfig, error) {
	var config *NetworkConfig
	switch env {
	case EnvLocal:
		config = &NetworkConfig{
			Moniker:    EnvLocal,
			NodeRPCURL: LocalNodeRPCURL,
			SS58Prefix: LocalSS58Prefix,
		}
	case EnvDevnet:
		config = &NetworkConfig{
			Moniker:    EnvDevnet,
			NodeRPCURL: DevnetNodeRPCURL,
			SS58Prefix: DevnetSS58Prefix,
		}
	case EnvTestnet:
		config = &NetworkConfig{
			Moniker:    EnvTestnet,
			NodeRPCURL: TestnetNodeRPCURL,
			SS58Prefix: TestnetSS58Prefix,
		}
	default:
		return nil, fmt.Errorf("invalid environment %q, must be one of: %s, %s, %s", env, EnvLocal, EnvDevnet, EnvTestnet)
	}

	nodeRPCURL := os.Getenv(EnvVarNodeRPCURL)
	if nodeRPCURL != "" {
		config.NodeRPCURL = nodeRPCURL
	}

	return config, nil
}

package config

const (
	// Local node constants.
	LocalNodeRPCURL = "http://127.0.0.1:9944"
	LocalSS58Prefix = 42

	// Devnet constants.
	DevnetNodeRPCURL = "https://devnet-rpc.finalbiome.net"
	DevnetSS58Prefix = 42

	// Testnet constants.
	TestnetNodeRPCURL = "https://testnet-rpc.finalbiome.net"
	TestnetSS58Prefix = 42
)

package config

// Sui network names
const (
	NetworkMainnet  = "mainnet"
	NetworkTestnet  = "testnet"
	NetworkDevnet   = "devnet"
	NetworkLocalnet = "localnet"
)

// Sui fullnode JSON-RPC endpoints
const (
	SuiMainnetRPC  = "https://fullnode.mainnet.sui.io:443"
	SuiTestnetRPC  = "https://fullnode.testnet.sui.io:443"
	SuiDevnetRPC   = "https://fullnode.devnet.sui.io:443"
	SuiLocalnetRPC = "http://127.0.0.1:9000"
)

// Request defaults
const (
	DefaultRPCTimeoutSec = 30
	DefaultGasBudget     = 10_000_000 // MIST
	DefaultMetricsPort   = 9184

	// Execution request types accepted by sui_executeTransactionBlock
	RequestWaitForEffectsCert    = "WaitForEffectsCert"
	RequestWaitForLocalExecution = "WaitForLocalExecution"
)

var rpcEndpoints = map[string]string{
	NetworkMainnet:  SuiMainnetRPC,
	NetworkTestnet:  SuiTestnetRPC,
	NetworkDevnet:   SuiDevnetRPC,
	NetworkLocalnet: SuiLocalnetRPC,
}

// GetRPCEndpoint returns the default fullnode URL for network, empty if unknown
func GetRPCEndpoint(network string) string {
	return rpcEndpoints[network]
}

// IsKnownNetwork reports whether network has a default endpoint
func IsKnownNetwork(network string) bool {
	_, ok := rpcEndpoints[network]
	return ok
}

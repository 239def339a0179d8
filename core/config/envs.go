package config

import "math/big"

var (
	MainnetChainID     = big.NewInt(1)
	SepoliaChainID     = big.NewInt(11155111)
	BaseChainID        = big.NewInt(8453)
	BaseSepoliaChainID = big.NewInt(84532)
)

var chainNames = map[int64]string{
	1:        "ethereum",
	11155111: "sepolia",
	8453:     "base",
	84532:    "base-sepolia",
}

// ChainName returns a readable name for the chains the EntryPoint v0.6 is
// commonly used on, or "unknown".
func ChainName(chainID *big.Int) string {
	if chainID == nil || !chainID.IsInt64() {
		return "unknown"
	}
	if name, ok := chainNames[chainID.Int64()]; ok {
		return name
	}
	return "unknown"
}

func IsMainnet(chainID *big.Int) bool {
	return chainID != nil && (chainID.Cmp(MainnetChainID) == 0 || chainID.Cmp(BaseChainID) == 0)
}

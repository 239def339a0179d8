package aa

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	// EntrypointAddressHex is the canonical EntryPoint v0.6 deployment. It is
	// the verifying contract of every user operation hash produced here and
	// cannot be changed at runtime.
	EntrypointAddressHex = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"

	// DefaultFactoryAddressHex is the SimpleAccount factory used when no
	// factory is configured.
	DefaultFactoryAddressHex = "0x29adA1b5217242DEaBB142BC3b1bCfFdd56008e7"
)

var (
	entrypointAddress     = common.HexToAddress(EntrypointAddressHex)
	defaultFactoryAddress = common.HexToAddress(DefaultFactoryAddressHex)
)

// EntrypointAddress returns the EntryPoint v0.6 address.
func EntrypointAddress() common.Address {
	return entrypointAddress
}

// DefaultFactoryAddress returns the SimpleAccount factory address.
func DefaultFactoryAddress() common.Address {
	return defaultFactoryAddress
}

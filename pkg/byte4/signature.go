package byte4

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Selector returns the 4-byte function selector that starts calldata.
func Selector(calldata []byte) ([]byte, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("invalid selector length: %d", len(calldata))
	}
	return calldata[:4], nil
}

// GetMethodFromCalldata resolves the method of parsedABI that a selector or
// full calldata calls.
func GetMethodFromCalldata(parsedABI abi.ABI, calldata []byte) (*abi.Method, error) {
	selector, err := Selector(calldata)
	if err != nil {
		return nil, err
	}

	method, err := parsedABI.MethodById(selector)
	if err != nil {
		return nil, fmt.Errorf("no matching method found for selector: 0x%x", selector)
	}
	return method, nil
}

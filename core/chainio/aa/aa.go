package aa

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/userop-digest/pkg/byte4"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

const (
	simpleFactoryABIJSON = `[
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"uint256","name":"salt","type":"uint256"}],"name":"createAccount","outputs":[{"internalType":"contract SimpleAccount","name":"ret","type":"address"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"uint256","name":"salt","type":"uint256"}],"name":"getAddress","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

	simpleAccountABIJSON = `[
	{"inputs":[{"internalType":"address","name":"dest","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"func","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address[]","name":"dest","type":"address[]"},{"internalType":"bytes[]","name":"func","type":"bytes[]"}],"name":"executeBatch","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`
)

var (
	factoryABI       = mustParseABI("factory", simpleFactoryABIJSON)
	simpleAccountABI = mustParseABI("simple account", simpleAccountABIJSON)

	defaultSalt = big.NewInt(0)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Errorf("Invalid %s ABI: %w", name, err))
	}
	return parsed
}

// GetInitCode returns the initCode deploying a SimpleAccount for owner
// through factory: the factory address followed by createAccount(owner, salt).
// A nil salt means salt 0.
func GetInitCode(factory common.Address, owner common.Address, salt *big.Int) ([]byte, error) {
	if salt == nil {
		salt = defaultSalt
	}
	if salt.Sign() < 0 {
		return nil, aaerr.NewMalformedInputError("salt", "must not be negative")
	}

	calldata, err := factoryABI.Pack("createAccount", owner, salt)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, common.AddressLength+len(calldata))
	data = append(data, factory.Bytes()...)
	data = append(data, calldata...)

	return data, nil
}

// SplitInitCode separates initCode into the factory address and the call
// data the EntryPoint forwards to it.
func SplitInitCode(initCode []byte) (common.Address, []byte, error) {
	if len(initCode) < common.AddressLength {
		return common.Address{}, nil, aaerr.NewMalformedInputError(
			"initCode",
			fmt.Sprintf("must start with a %d byte factory address, got %d bytes", common.AddressLength, len(initCode)),
		)
	}

	return common.BytesToAddress(initCode[:common.AddressLength]), initCode[common.AddressLength:], nil
}

// PackExecute generates the callData of a SimpleAccount execute(dest, value, func) call.
func PackExecute(targetAddress common.Address, ethValue *big.Int, calldata []byte) ([]byte, error) {
	if ethValue == nil {
		ethValue = big.NewInt(0)
	}
	return simpleAccountABI.Pack("execute", targetAddress, ethValue, calldata)
}

// PackExecuteBatch generates the callData of a SimpleAccount executeBatch(dest[], func[]) call.
func PackExecuteBatch(targets []common.Address, calldatas [][]byte) ([]byte, error) {
	if len(targets) != len(calldatas) {
		return nil, aaerr.NewMalformedInputError(
			"executeBatch",
			fmt.Sprintf("targets and calldatas length mismatch: %d != %d", len(targets), len(calldatas)),
		)
	}
	return simpleAccountABI.Pack("executeBatch", targets, calldatas)
}

// CallDataMethod names the SimpleAccount method callData invokes, or
// returns "" when callData is empty or not an account call.
func CallDataMethod(callData []byte) string {
	method, err := byte4.GetMethodFromCalldata(simpleAccountABI, callData)
	if err != nil {
		return ""
	}
	return method.Name
}

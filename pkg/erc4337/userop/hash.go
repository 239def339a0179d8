package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

var (
	addressTy = mustNewType("address")
	uint256Ty = mustNewType("uint256")
	bytes32Ty = mustNewType("bytes32")

	// Layout of UserOperationLib.pack in EntryPoint v0.6: dynamic fields are
	// replaced by their keccak256 so every slot is one 32 byte word.
	packedUserOpArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "nonce", Type: uint256Ty},
		{Name: "hashInitCode", Type: bytes32Ty},
		{Name: "hashCallData", Type: bytes32Ty},
		{Name: "callGasLimit", Type: uint256Ty},
		{Name: "verificationGasLimit", Type: uint256Ty},
		{Name: "preVerificationGas", Type: uint256Ty},
		{Name: "maxFeePerGas", Type: uint256Ty},
		{Name: "maxPriorityFeePerGas", Type: uint256Ty},
		{Name: "hashPaymasterAndData", Type: bytes32Ty},
	}

	userOpHashArgs = abi.Arguments{
		{Name: "userOpHash", Type: bytes32Ty},
		{Name: "entryPoint", Type: addressTy},
		{Name: "chainId", Type: uint256Ty},
	}
)

func mustNewType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Pack returns the ABI encoding of the operation with initCode, callData
// and paymasterAndData replaced by their keccak256. Signature is excluded.
func (op *UserOperation) Pack() ([]byte, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	return packedUserOpArgs.Pack(
		op.Sender,
		op.Nonce,
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		op.CallGasLimit,
		op.VerificationGasLimit,
		op.PreVerificationGas,
		op.MaxFeePerGas,
		op.MaxPriorityFeePerGas,
		// An empty paymasterAndData hashes to keccak256("").
		crypto.Keccak256Hash(op.PaymasterAndData),
	)
}

// GetUserOpHash returns the 32 byte message the owner signs for chainID.
// The verifying contract is always the EntryPoint v0.6 address. The result
// carries no EIP-191 prefix; that belongs to the signer.
func (op *UserOperation) GetUserOpHash(chainID *big.Int) (common.Hash, error) {
	return op.getUserOpHash(aa.EntrypointAddress(), chainID)
}

func (op *UserOperation) getUserOpHash(entrypoint common.Address, chainID *big.Int) (common.Hash, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return common.Hash{}, aaerr.NewMalformedInputError("chainId", "must be a positive integer")
	}
	if chainID.BitLen() > 256 {
		return common.Hash{}, aaerr.NewMalformedInputError("chainId", "must be an unsigned 256-bit integer")
	}

	inner, err := op.innerHash()
	if err != nil {
		return common.Hash{}, err
	}

	encoded, err := userOpHashArgs.Pack(inner, entrypoint, chainID)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(encoded), nil
}

func (op *UserOperation) innerHash() (common.Hash, error) {
	packed, err := op.Pack()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}

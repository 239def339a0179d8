// Package userop models an EntryPoint v0.6 user operation and computes the
// hash its owner signs.
package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

// UserOperation represents an EIP-4337 style transaction for a smart contract account.
// Numeric fields are uint256 on chain and must never be narrowed to a native int.
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

type uintField struct {
	name  string
	value *big.Int
}

func (op *UserOperation) uintFields() []uintField {
	return []uintField{
		{"nonce", op.Nonce},
		{"callGasLimit", op.CallGasLimit},
		{"verificationGasLimit", op.VerificationGasLimit},
		{"preVerificationGas", op.PreVerificationGas},
		{"maxFeePerGas", op.MaxFeePerGas},
		{"maxPriorityFeePerGas", op.MaxPriorityFeePerGas},
	}
}

// Validate reports the first numeric field that is missing or does not fit
// in a uint256. A half populated operation cannot be hashed.
func (op *UserOperation) Validate() error {
	if op == nil {
		return aaerr.NewMalformedInputError("userOp", "is nil")
	}

	invalid, found := lo.Find(op.uintFields(), func(f uintField) bool {
		return !IsUint256(f.value)
	})
	if !found {
		return nil
	}
	if invalid.value == nil {
		return aaerr.NewMalformedInputError(invalid.name, "is not set")
	}
	return aaerr.NewMalformedInputError(invalid.name, "must be an unsigned 256-bit integer")
}

// IsUint256 reports whether v is non-nil and in [0, 2^256).
func IsUint256(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= 256
}

// HasPaymaster reports whether a sponsor contract is attached.
func (op *UserOperation) HasPaymaster() bool {
	return len(op.PaymasterAndData) > 0
}

// NeedsDeployment reports whether the sender is deployed by this operation.
func (op *UserOperation) NeedsDeployment() bool {
	return len(op.InitCode) > 0
}

// Copy returns a deep copy. A signed operation must not be mutated, so
// callers that keep adjusting fields work on a copy.
func (op *UserOperation) Copy() *UserOperation {
	return &UserOperation{
		Sender:               op.Sender,
		Nonce:                copyBig(op.Nonce),
		InitCode:             common.CopyBytes(op.InitCode),
		CallData:             common.CopyBytes(op.CallData),
		CallGasLimit:         copyBig(op.CallGasLimit),
		VerificationGasLimit: copyBig(op.VerificationGasLimit),
		PreVerificationGas:   copyBig(op.PreVerificationGas),
		MaxFeePerGas:         copyBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: copyBig(op.MaxPriorityFeePerGas),
		PaymasterAndData:     common.CopyBytes(op.PaymasterAndData),
		Signature:            common.CopyBytes(op.Signature),
	}
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

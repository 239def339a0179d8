package bundler

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/userop"
)

// UserOperation is the JSON-RPC shape of a user operation as accepted by
// eth_sendUserOperation and eth_estimateUserOperationGas.
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                string         `json:"nonce"`
	InitCode             string         `json:"initCode"`
	CallData             string         `json:"callData"`
	CallGasLimit         string         `json:"callGasLimit"`
	VerificationGasLimit string         `json:"verificationGasLimit"`
	PreVerificationGas   string         `json:"preVerificationGas"`
	MaxFeePerGas         string         `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string         `json:"maxPriorityFeePerGas"`
	PaymasterAndData     string         `json:"paymasterAndData"`
	Signature            string         `json:"signature"`
}

// NewUserOperation converts op to its wire representation.
func NewUserOperation(op *userop.UserOperation) UserOperation {
	return UserOperation{
		Sender:               op.Sender,
		Nonce:                EncodeQuantity(op.Nonce),
		InitCode:             EncodeBytes(op.InitCode),
		CallData:             EncodeBytes(op.CallData),
		CallGasLimit:         EncodeQuantity(op.CallGasLimit),
		VerificationGasLimit: EncodeQuantity(op.VerificationGasLimit),
		PreVerificationGas:   EncodeQuantity(op.PreVerificationGas),
		MaxFeePerGas:         EncodeQuantity(op.MaxFeePerGas),
		MaxPriorityFeePerGas: EncodeQuantity(op.MaxPriorityFeePerGas),
		PaymasterAndData:     EncodeBytes(op.PaymasterAndData),
		Signature:            EncodeBytes(op.Signature),
	}
}

// ToUserOp parses the wire form back into a user operation. Any field that
// is not valid hex is reported as MalformedInput; nothing is defaulted.
func (uo UserOperation) ToUserOp() (*userop.UserOperation, error) {
	op := &userop.UserOperation{Sender: uo.Sender}

	quantities := []struct {
		name  string
		value string
		dst   **big.Int
	}{
		{"nonce", uo.Nonce, &op.Nonce},
		{"callGasLimit", uo.CallGasLimit, &op.CallGasLimit},
		{"verificationGasLimit", uo.VerificationGasLimit, &op.VerificationGasLimit},
		{"preVerificationGas", uo.PreVerificationGas, &op.PreVerificationGas},
		{"maxFeePerGas", uo.MaxFeePerGas, &op.MaxFeePerGas},
		{"maxPriorityFeePerGas", uo.MaxPriorityFeePerGas, &op.MaxPriorityFeePerGas},
	}
	for _, q := range quantities {
		v, err := DecodeQuantity(q.name, q.value)
		if err != nil {
			return nil, err
		}
		*q.dst = v
	}

	blobs := []struct {
		name  string
		value string
		dst   *[]byte
	}{
		{"initCode", uo.InitCode, &op.InitCode},
		{"callData", uo.CallData, &op.CallData},
		{"paymasterAndData", uo.PaymasterAndData, &op.PaymasterAndData},
		{"signature", uo.Signature, &op.Signature},
	}
	for _, b := range blobs {
		v, err := DecodeBytes(b.name, b.value)
		if err != nil {
			return nil, err
		}
		*b.dst = v
	}

	return op, nil
}

// DecodeUserOperation parses a JSON encoded wire user operation. Unlike a
// plain json.Unmarshal into UserOperation, a bad sender is reported as
// MalformedInput rather than a generic JSON error.
func DecodeUserOperation(data []byte) (*userop.UserOperation, error) {
	var raw struct {
		Sender string `json:"sender"`
		UserOperation
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, aaerr.New(aaerr.MalformedInput, "invalid user operation JSON", err)
	}

	sender, err := DecodeAddress("sender", raw.Sender)
	if err != nil {
		return nil, err
	}

	wire := raw.UserOperation
	wire.Sender = sender
	return wire.ToUserOp()
}

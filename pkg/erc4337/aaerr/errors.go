// Package aaerr holds the typed failures reported by the user operation
// estimators and the digest.
package aaerr

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrorCode classifies a failure. None of them is retried inside this module.
type ErrorCode string

const (
	ChainDataUnavailable ErrorCode = "CHAIN_DATA_UNAVAILABLE"
	SimulationFailed     ErrorCode = "SIMULATION_FAILED"
	MalformedInput       ErrorCode = "MALFORMED_INPUT"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its code.
var (
	ErrChainDataUnavailable = errors.New("chain data unavailable")
	ErrSimulationFailed     = errors.New("simulation failed")
	ErrMalformedInput       = errors.New("malformed input")
)

// Error is a structured failure with a code, a human message, optional
// details and the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ChainDataUnavailable:
		return target == ErrChainDataUnavailable
	case SimulationFailed:
		return target == ErrSimulationFailed
	case MalformedInput:
		return target == ErrMalformedInput
	}
	return false
}

// GetCode returns the error code
func (e *Error) GetCode() ErrorCode {
	return e.Code
}

// GetDetails returns additional error details
func (e *Error) GetDetails() map[string]interface{} {
	return e.Details
}

// New creates a structured error
func New(code ErrorCode, message string, err error, details ...map[string]interface{}) *Error {
	var detailsMap map[string]interface{}
	if len(details) > 0 {
		detailsMap = details[0]
	}

	return &Error{
		Code:    code,
		Message: message,
		Details: detailsMap,
		Err:     err,
	}
}

// NewChainDataUnavailableError reports a failed read of block or fee data.
func NewChainDataUnavailableError(query string, err error) *Error {
	return New(
		ChainDataUnavailable,
		fmt.Sprintf("cannot fetch %s", query),
		err,
		map[string]interface{}{"query": query},
	)
}

// NewMalformedInputError reports a caller supplied value that cannot be used.
func NewMalformedInputError(field, reason string) *Error {
	return New(
		MalformedInput,
		fmt.Sprintf("invalid %s: %s", field, reason),
		nil,
		map[string]interface{}{"field": field},
	)
}

// NewSimulationFailedError wraps a failed dry-run against target. When the
// node returned revert data it is kept in the details, decoded to a reason
// string when it is a standard Error(string) payload.
func NewSimulationFailedError(target common.Address, err error) *Error {
	details := map[string]interface{}{"target": target.Hex()}
	message := fmt.Sprintf("simulation of call to %s failed", target.Hex())

	if revertData := RevertData(err); len(revertData) > 0 {
		details["revert_data"] = hexutil.Encode(revertData)
		if reason, unpackErr := abi.UnpackRevert(revertData); unpackErr == nil {
			details["revert_reason"] = reason
			message = fmt.Sprintf("%s: reverted with %q", message, reason)
		}
	}

	return New(SimulationFailed, message, err, details)
}

// RevertData extracts the raw revert payload a JSON-RPC node attaches to
// an execution error, or nil when there is none.
func RevertData(err error) []byte {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}

	switch data := dataErr.ErrorData().(type) {
	case string:
		b, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return nil
		}
		return b
	case []byte:
		return data
	}
	return nil
}

// Reason returns the decoded revert reason carried by err, if any.
func Reason(err error) string {
	var aaErr *Error
	if !errors.As(err, &aaErr) || aaErr.Details == nil {
		return ""
	}
	reason, _ := aaErr.Details["revert_reason"].(string)
	return reason
}

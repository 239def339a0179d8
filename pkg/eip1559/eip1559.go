// Package eip1559 derives the fee fields of a user operation from the
// chain's current fee data.
package eip1559

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/bundler"
)

// FeeDataReader is the part of a chain client the estimator reads from.
// *ethclient.Client satisfies it.
type FeeDataReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// Fees holds the two EIP-1559 fields of a user operation.
type Fees struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// MarshalJSON encodes both fees as JSON-RPC quantities.
func (f Fees) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MaxFeePerGas         string `json:"maxFeePerGas"`
		MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	}{
		MaxFeePerGas:         bundler.EncodeQuantity(f.MaxFeePerGas),
		MaxPriorityFeePerGas: bundler.EncodeQuantity(f.MaxPriorityFeePerGas),
	})
}

// ComputeFees returns maxFeePerGas = baseFee + tip and maxPriorityFeePerGas = tip.
// A nil baseFee (pre-London block) counts as zero.
func ComputeFees(baseFee, tip *big.Int) (*Fees, error) {
	if tip == nil || tip.Sign() < 0 {
		return nil, aaerr.NewMalformedInputError("maxPriorityFeePerGas", "must be a non-negative integer")
	}
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	if baseFee.Sign() < 0 {
		return nil, aaerr.NewMalformedInputError("baseFeePerGas", "must be a non-negative integer")
	}

	return &Fees{
		MaxFeePerGas:         new(big.Int).Add(baseFee, tip),
		MaxPriorityFeePerGas: new(big.Int).Set(tip),
	}, nil
}

// SuggestFee reads the latest header and the node's priority fee oracle and
// returns (maxFeePerGas, maxPriorityFeePerGas). Both reads run concurrently
// and each is issued exactly once, so the pair comes from a single snapshot.
// Failures are reported as ChainDataUnavailable and never retried.
func SuggestFee(ctx context.Context, client FeeDataReader) (*big.Int, *big.Int, error) {
	fees, err := Estimate(ctx, client)
	if err != nil {
		return nil, nil, err
	}
	return fees.MaxFeePerGas, fees.MaxPriorityFeePerGas, nil
}

// Estimate is SuggestFee returning a Fees value.
func Estimate(ctx context.Context, client FeeDataReader) (*Fees, error) {
	var (
		header *types.Header
		tipCap *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := client.HeaderByNumber(gctx, nil)
		if err != nil {
			return aaerr.NewChainDataUnavailableError("latest block header", err)
		}
		if h == nil {
			return aaerr.NewChainDataUnavailableError("latest block header", errNoHeader)
		}
		header = h
		return nil
	})
	g.Go(func() error {
		tip, err := client.SuggestGasTipCap(gctx)
		if err != nil {
			return aaerr.NewChainDataUnavailableError("suggested priority fee", err)
		}
		if tip == nil {
			return aaerr.NewChainDataUnavailableError("suggested priority fee", errNoTip)
		}
		tipCap = tip
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ComputeFees(header.BaseFee, tipCap)
}

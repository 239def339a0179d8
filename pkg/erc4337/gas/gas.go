// Package gas derives the gas limits of a user operation from dry-run
// simulations against the chain.
package gas

import (
	"context"
	"encoding/json"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/bundler"
)

const (
	// CallGasOverhead covers the EntryPoint dispatch around the account call,
	// which a plain eth_estimateGas against the account does not execute.
	CallGasOverhead = 55_000

	// VerificationGasBaseline is the budget for validateUserOp with a single
	// ECDSA check and no deployment.
	VerificationGasBaseline = 100_000

	// PreVerificationGas is a flat bundler overhead allowance (0x21000). It is
	// policy, not a measurement, and is never recomputed from actual usage.
	PreVerificationGas = 0x21000

	// FactorySimulationGasCeiling caps the initCode deployment dry-run.
	FactorySimulationGasCeiling = 10_000_000
)

// Simulator dry-runs a call and reports the gas it consumed.
// *ethclient.Client satisfies it.
type Simulator interface {
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
}

// Estimation holds the three gas fields of a user operation.
type Estimation struct {
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
}

// MarshalJSON encodes the estimation in the eth_estimateUserOperationGas shape.
func (e Estimation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PreVerificationGas   string `json:"preVerificationGas"`
		VerificationGasLimit string `json:"verificationGasLimit"`
		CallGasLimit         string `json:"callGasLimit"`
	}{
		PreVerificationGas:   bundler.EncodeQuantity(e.PreVerificationGas),
		VerificationGasLimit: bundler.EncodeQuantity(e.VerificationGasLimit),
		CallGasLimit:         bundler.EncodeQuantity(e.CallGasLimit),
	})
}

// Estimate simulates callData against sender from the EntryPoint and, when
// initCode is set, the account deployment through its factory. The two
// dry-runs are independent and run concurrently. Any failed simulation is
// returned as SimulationFailed and no estimation is produced.
func Estimate(ctx context.Context, sim Simulator, sender common.Address, callData, initCode []byte) (*Estimation, error) {
	var (
		factory     common.Address
		factoryData []byte
		deploys     = len(initCode) > 0
	)
	if deploys {
		var err error
		if factory, factoryData, err = aa.SplitInitCode(initCode); err != nil {
			return nil, err
		}
	}

	var callGas, deploymentGas uint64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		used, err := sim.EstimateGas(gctx, ethereum.CallMsg{
			From: aa.EntrypointAddress(),
			To:   &sender,
			Data: callData,
		})
		if err != nil {
			return aaerr.NewSimulationFailedError(sender, err)
		}
		callGas = used
		return nil
	})
	if deploys {
		g.Go(func() error {
			used, err := sim.EstimateGas(gctx, ethereum.CallMsg{
				From: aa.EntrypointAddress(),
				To:   &factory,
				Gas:  FactorySimulationGasCeiling,
				Data: factoryData,
			})
			if err != nil {
				return aaerr.NewSimulationFailedError(factory, err)
			}
			if used > FactorySimulationGasCeiling {
				return aaerr.NewSimulationFailedError(factory, errCeilingExceeded)
			}
			deploymentGas = used
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Compute(callGas, deploymentGas, deploys), nil
}

// Compute applies the fixed overheads to raw simulation results.
func Compute(callGasEstimate, deploymentGasEstimate uint64, deploys bool) *Estimation {
	callGasLimit := new(big.Int).SetUint64(callGasEstimate)
	callGasLimit.Add(callGasLimit, big.NewInt(CallGasOverhead))

	verificationGasLimit := big.NewInt(VerificationGasBaseline)
	if deploys {
		verificationGasLimit.Add(verificationGasLimit, new(big.Int).SetUint64(deploymentGasEstimate))
	}

	return &Estimation{
		CallGasLimit:         callGasLimit,
		VerificationGasLimit: verificationGasLimit,
		PreVerificationGas:   big.NewInt(PreVerificationGas),
	}
}

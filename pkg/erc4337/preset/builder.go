// Package preset composes fee estimation, gas estimation and the digest into
// a ready to sign user operation.
package preset

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/core/chainio/signer"
	"github.com/AvaProtocol/userop-digest/metrics"
	"github.com/AvaProtocol/userop-digest/pkg/eip1559"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/gas"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/userop"
	"github.com/AvaProtocol/userop-digest/pkg/logger"
)

// ChainClient is everything the builder reads from the chain.
// *ethclient.Client satisfies it.
type ChainClient interface {
	eip1559.FeeDataReader
	gas.Simulator
}

// Request carries the caller supplied fields of a user operation. The nonce
// is read by the caller from the EntryPoint; it is not fetched here.
type Request struct {
	Sender           common.Address
	Nonce            *big.Int
	InitCode         []byte
	CallData         []byte
	PaymasterAndData []byte
}

// Result is a finalized user operation and its digest. UserOp must not be
// changed once UserOpHash has been computed; use Sign to attach a signature.
type Result struct {
	UserOp     *userop.UserOperation
	UserOpHash common.Hash
	Fees       *eip1559.Fees
	Gas        *gas.Estimation
}

type Builder struct {
	client  ChainClient
	chainID *big.Int
	logger  logger.Logger
	metrics metrics.MetricsGenerator
}

// NewBuilder returns a builder hashing for chainID. logger and m may be nil.
func NewBuilder(client ChainClient, chainID *big.Int, log logger.Logger, m metrics.MetricsGenerator) (*Builder, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, aaerr.NewMalformedInputError("chainId", "must be a positive integer")
	}
	if m == nil {
		m = metrics.NoopMetrics{}
	}

	return &Builder{
		client:  client,
		chainID: new(big.Int).Set(chainID),
		logger:  logger.EnsureLogger(log),
		metrics: m,
	}, nil
}

// BuildUserOp estimates fees and gas concurrently, assembles the operation
// and computes its digest. Any failure aborts the build; nothing is retried
// and no partially filled operation is returned.
func (b *Builder) BuildUserOp(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		b.metrics.ObserveBuildSeconds(time.Since(start).Seconds())
	}()

	if req.Nonce == nil || !userop.IsUint256(req.Nonce) {
		return nil, aaerr.NewMalformedInputError("nonce", "must be a uint256")
	}

	var (
		fees      *eip1559.Fees
		estimated *gas.Estimation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fees, err = eip1559.Estimate(gctx, b.client)
		b.metrics.IncEstimation(metrics.KindFee, metrics.Status(err))
		return err
	})
	g.Go(func() error {
		var err error
		estimated, err = gas.Estimate(gctx, b.client, req.Sender, req.CallData, req.InitCode)
		b.metrics.IncEstimation(metrics.KindGas, metrics.Status(err))
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.Error("cannot estimate user operation", "sender", req.Sender.Hex(), "error", err)
		return nil, err
	}

	op := &userop.UserOperation{
		Sender:               req.Sender,
		Nonce:                new(big.Int).Set(req.Nonce),
		InitCode:             common.CopyBytes(req.InitCode),
		CallData:             common.CopyBytes(req.CallData),
		CallGasLimit:         new(big.Int).Set(estimated.CallGasLimit),
		VerificationGasLimit: new(big.Int).Set(estimated.VerificationGasLimit),
		PreVerificationGas:   new(big.Int).Set(estimated.PreVerificationGas),
		MaxFeePerGas:         new(big.Int).Set(fees.MaxFeePerGas),
		MaxPriorityFeePerGas: new(big.Int).Set(fees.MaxPriorityFeePerGas),
		PaymasterAndData:     common.CopyBytes(req.PaymasterAndData),
	}

	hash, err := b.Digest(op)
	if err != nil {
		return nil, err
	}

	b.logger.Info("built user operation",
		"sender", op.Sender.Hex(),
		"nonce", op.Nonce.String(),
		"method", aa.CallDataMethod(op.CallData),
		"deploys", op.NeedsDeployment(),
		"callGasLimit", op.CallGasLimit.String(),
		"verificationGasLimit", op.VerificationGasLimit.String(),
		"maxFeePerGas", op.MaxFeePerGas.String(),
		"userOpHash", hash.Hex())

	return &Result{
		UserOp:     op,
		UserOpHash: hash,
		Fees:       fees,
		Gas:        estimated,
	}, nil
}

// Digest hashes op for the builder's chain.
func (b *Builder) Digest(op *userop.UserOperation) (common.Hash, error) {
	hash, err := op.GetUserOpHash(b.chainID)
	b.metrics.IncDigest(metrics.Status(err))
	return hash, err
}

// Sign returns a signed copy of the built operation. The result's own
// operation is left untouched.
func (b *Builder) Sign(res *Result, key *ecdsa.PrivateKey) (*userop.UserOperation, error) {
	sig, err := signer.SignUserOpHash(key, res.UserOpHash)
	if err != nil {
		return nil, err
	}

	signed := res.UserOp.Copy()
	signed.Signature = sig
	b.metrics.IncSigned()

	return signed, nil
}

// ChainID returns the chain the builder hashes for.
func (b *Builder) ChainID() *big.Int {
	return new(big.Int).Set(b.chainID)
}

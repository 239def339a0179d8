package preset

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/core/chainio/signer"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/gas"
)

type fakeChain struct {
	mu sync.Mutex

	baseFee *big.Int
	tip     *big.Int
	tipErr  error
	gasUsed map[common.Address]uint64

	simulations int
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(7), BaseFee: f.baseFee}, nil
}

func (f *fakeChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return f.tip, f.tipErr
}

func (f *fakeChain) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulations++
	return f.gasUsed[*call.To], nil
}

type recordingMetrics struct {
	mu          sync.Mutex
	estimations map[string]int
	digests     map[string]int
	signed      int
	builds      int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{estimations: map[string]int{}, digests: map[string]int{}}
}

func (m *recordingMetrics) IncEstimation(kind, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimations[kind+"/"+status]++
}

func (m *recordingMetrics) IncDigest(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digests[status]++
}

func (m *recordingMetrics) IncSigned() { m.signed++ }

func (m *recordingMetrics) ObserveBuildSeconds(float64) { m.builds++ }

var (
	sender  = common.HexToAddress("0x5A6b47F4131bf1feAFA56A05573314BcF44C9149")
	owner   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	chainID = big.NewInt(11155111)
)

func TestBuildUserOp_DeployedAccount(t *testing.T) {
	chain := &fakeChain{
		baseFee: big.NewInt(1_000),
		tip:     big.NewInt(10),
		gasUsed: map[common.Address]uint64{sender: 50_000},
	}
	m := newRecordingMetrics()
	b, err := NewBuilder(chain, chainID, nil, m)
	require.NoError(t, err)

	callData, err := aa.PackExecute(owner, big.NewInt(1), nil)
	require.NoError(t, err)

	res, err := b.BuildUserOp(context.Background(), Request{
		Sender:   sender,
		Nonce:    big.NewInt(3),
		CallData: callData,
	})
	require.NoError(t, err)

	op := res.UserOp
	assert.Equal(t, big.NewInt(50_000+gas.CallGasOverhead), op.CallGasLimit)
	assert.Equal(t, big.NewInt(gas.VerificationGasBaseline), op.VerificationGasLimit)
	assert.Equal(t, big.NewInt(gas.PreVerificationGas), op.PreVerificationGas)
	assert.Equal(t, big.NewInt(1_010), op.MaxFeePerGas)
	assert.Equal(t, big.NewInt(10), op.MaxPriorityFeePerGas)
	assert.Empty(t, op.InitCode)
	assert.Empty(t, op.Signature)

	want, err := op.GetUserOpHash(chainID)
	require.NoError(t, err)
	assert.Equal(t, want, res.UserOpHash)

	assert.Equal(t, 1, chain.simulations)
	assert.Equal(t, 1, m.estimations["fee/success"])
	assert.Equal(t, 1, m.estimations["gas/success"])
	assert.Equal(t, 1, m.digests["success"])
	assert.Equal(t, 1, m.builds)
}

func TestBuildUserOp_UndeployedAccount(t *testing.T) {
	factory := aa.DefaultFactoryAddress()
	initCode, err := aa.GetInitCode(factory, owner, big.NewInt(0))
	require.NoError(t, err)

	chain := &fakeChain{
		baseFee: big.NewInt(0),
		tip:     big.NewInt(1_000_000_000),
		gasUsed: map[common.Address]uint64{sender: 30_000, factory: 250_000},
	}
	b, err := NewBuilder(chain, chainID, nil, nil)
	require.NoError(t, err)

	res, err := b.BuildUserOp(context.Background(), Request{
		Sender:   sender,
		Nonce:    big.NewInt(0),
		InitCode: initCode,
	})
	require.NoError(t, err)

	assert.Equal(t, initCode, res.UserOp.InitCode)
	assert.Equal(t, big.NewInt(250_000+gas.VerificationGasBaseline), res.UserOp.VerificationGasLimit)
	assert.Equal(t, big.NewInt(1_000_000_000), res.UserOp.MaxFeePerGas)
	assert.Equal(t, 2, chain.simulations)
}

func TestBuildUserOp_DoesNotAliasRequest(t *testing.T) {
	chain := &fakeChain{baseFee: big.NewInt(1), tip: big.NewInt(1), gasUsed: map[common.Address]uint64{}}
	b, err := NewBuilder(chain, chainID, nil, nil)
	require.NoError(t, err)

	req := Request{Sender: sender, Nonce: big.NewInt(5), CallData: []byte{0xaa}}
	res, err := b.BuildUserOp(context.Background(), req)
	require.NoError(t, err)

	req.Nonce.SetInt64(6)
	req.CallData[0] = 0xbb

	again, err := b.Digest(res.UserOp)
	require.NoError(t, err)
	assert.Equal(t, res.UserOpHash, again)
}

func TestBuildUserOp_FeeDataUnavailable(t *testing.T) {
	chain := &fakeChain{
		baseFee: big.NewInt(1),
		tipErr:  errors.New("method not found"),
		gasUsed: map[common.Address]uint64{sender: 1},
	}
	m := newRecordingMetrics()
	b, err := NewBuilder(chain, chainID, nil, m)
	require.NoError(t, err)

	res, err := b.BuildUserOp(context.Background(), Request{Sender: sender, Nonce: big.NewInt(0)})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, aaerr.ErrChainDataUnavailable)
	assert.Equal(t, 1, m.estimations["fee/failure"])
	assert.Zero(t, m.digests["success"])
}

func TestBuildUserOp_RejectsMissingNonce(t *testing.T) {
	chain := &fakeChain{baseFee: big.NewInt(1), tip: big.NewInt(1)}
	b, err := NewBuilder(chain, chainID, nil, nil)
	require.NoError(t, err)

	_, err = b.BuildUserOp(context.Background(), Request{Sender: sender})
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
	assert.Zero(t, chain.simulations)
}

func TestNewBuilder_RejectsInvalidChainID(t *testing.T) {
	for _, id := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		_, err := NewBuilder(&fakeChain{}, id, nil, nil)
		assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
	}
}

func TestSign_LeavesBuiltOperationUntouched(t *testing.T) {
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	chain := &fakeChain{baseFee: big.NewInt(1), tip: big.NewInt(1), gasUsed: map[common.Address]uint64{}}
	m := newRecordingMetrics()
	b, err := NewBuilder(chain, chainID, nil, m)
	require.NoError(t, err)

	res, err := b.BuildUserOp(context.Background(), Request{Sender: sender, Nonce: big.NewInt(0)})
	require.NoError(t, err)

	signed, err := b.Sign(res, key)
	require.NoError(t, err)

	assert.Empty(t, res.UserOp.Signature)
	assert.Len(t, signed.Signature, 65)

	recovered, err := signer.RecoverUserOpSigner(res.UserOpHash, signed.Signature)
	require.NoError(t, err)
	assert.Equal(t, owner, recovered)

	signedHash, err := b.Digest(signed)
	require.NoError(t, err)
	assert.Equal(t, res.UserOpHash, signedHash)
	assert.Equal(t, 1, m.signed)
}

func TestBuildUserOp_ResultEstimatesDoNotAliasOperation(t *testing.T) {
	chain := &fakeChain{baseFee: big.NewInt(100), tip: big.NewInt(5), gasUsed: map[common.Address]uint64{sender: 40_000}}
	b, err := NewBuilder(chain, chainID, nil, nil)
	require.NoError(t, err)

	res, err := b.BuildUserOp(context.Background(), Request{Sender: sender, Nonce: big.NewInt(1)})
	require.NoError(t, err)

	res.Fees.MaxFeePerGas.SetInt64(1)
	res.Fees.MaxPriorityFeePerGas.SetInt64(1)
	res.Gas.CallGasLimit.SetInt64(1)
	res.Gas.VerificationGasLimit.SetInt64(1)
	res.Gas.PreVerificationGas.SetInt64(1)

	assert.Equal(t, big.NewInt(105), res.UserOp.MaxFeePerGas)
	assert.Equal(t, big.NewInt(5), res.UserOp.MaxPriorityFeePerGas)
	assert.Equal(t, big.NewInt(40_000+gas.CallGasOverhead), res.UserOp.CallGasLimit)
	assert.Equal(t, big.NewInt(gas.VerificationGasBaseline), res.UserOp.VerificationGasLimit)
	assert.Equal(t, big.NewInt(gas.PreVerificationGas), res.UserOp.PreVerificationGas)

	again, err := b.Digest(res.UserOp)
	require.NoError(t, err)
	assert.Equal(t, res.UserOpHash, again)
}

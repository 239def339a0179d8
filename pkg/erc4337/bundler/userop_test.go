package bundler

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/userop"
)

func TestEncodeQuantity(t *testing.T) {
	assert.Equal(t, "0x0", EncodeQuantity(big.NewInt(0)))
	assert.Equal(t, "0x0", EncodeQuantity(nil))
	assert.Equal(t, "0x21000", EncodeQuantity(big.NewInt(0x21000)))
	assert.Equal(t, "0x1000000016", EncodeQuantity(big.NewInt(0x1000000016)))

	wide := new(big.Int).Lsh(big.NewInt(1), 255)
	assert.Equal(t, "0x8"+strings.Repeat("0", 63), EncodeQuantity(wide))
}

func TestDecodeQuantity(t *testing.T) {
	v, err := DecodeQuantity("callGasLimit", "0x83074")
	require.NoError(t, err)
	assert.Equal(t, int64(0x83074), v.Int64())

	v, err = DecodeQuantity("nonce", "0x0")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	v, err = DecodeQuantity("nonce", "0x000a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Int64())

	for _, bad := range []string{"", "123", "0x", "0xzz", "0x-1", "0x+5", "0x 1", "0x1" + strings.Repeat("0", 64)} {
		_, err := DecodeQuantity("nonce", bad)
		assert.ErrorIs(t, err, aaerr.ErrMalformedInput, "input %q", bad)
	}
}

func TestToUserOp_RejectsSignedNonce(t *testing.T) {
	wire := UserOperation{
		Nonce:                "0x-1",
		CallGasLimit:         "0x1",
		VerificationGasLimit: "0x1",
		PreVerificationGas:   "0x1",
		MaxFeePerGas:         "0x1",
		MaxPriorityFeePerGas: "0x1",
	}

	op, err := wire.ToUserOp()
	assert.Nil(t, op)
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
}

func TestDecodeBytes(t *testing.T) {
	b, err := DecodeBytes("initCode", "0x")
	require.NoError(t, err)
	assert.Empty(t, b)

	b, err = DecodeBytes("initCode", "")
	require.NoError(t, err)
	assert.Empty(t, b)

	b, err = DecodeBytes("callData", "0xb61d27f6")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xb6, 0x1d, 0x27, 0xf6}, b)

	_, err = DecodeBytes("callData", "0xabc")
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)

	_, err = DecodeBytes("callData", "b61d27f6")
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
}

func TestDecodeAddress(t *testing.T) {
	addr, err := DecodeAddress("sender", "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), addr)

	_, err = DecodeAddress("sender", "0x1111")
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
}

func TestNewUserOperation_WireFormat(t *testing.T) {
	op := &userop.UserOperation{
		Sender:               common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Nonce:                big.NewInt(0),
		CallGasLimit:         big.NewInt(0x83074),
		VerificationGasLimit: big.NewInt(0x100000),
		PreVerificationGas:   big.NewInt(0x21000),
		MaxFeePerGas:         big.NewInt(0x1000000016),
		MaxPriorityFeePerGas: big.NewInt(0x1000000000),
	}

	wire := NewUserOperation(op)
	assert.Equal(t, "0x0", wire.Nonce)
	assert.Equal(t, "0x", wire.InitCode)
	assert.Equal(t, "0x", wire.CallData)
	assert.Equal(t, "0x83074", wire.CallGasLimit)
	assert.Equal(t, "0x100000", wire.VerificationGasLimit)
	assert.Equal(t, "0x21000", wire.PreVerificationGas)
	assert.Equal(t, "0x1000000016", wire.MaxFeePerGas)
	assert.Equal(t, "0x1000000000", wire.MaxPriorityFeePerGas)
	assert.Equal(t, "0x", wire.PaymasterAndData)

	encoded, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"sender":"0x1111111111111111111111111111111111111111"`)
	assert.Contains(t, string(encoded), `"preVerificationGas":"0x21000"`)
}

func TestToUserOp_PreservesDigest(t *testing.T) {
	op := &userop.UserOperation{
		Sender:               common.HexToAddress("0x5A6b47F4131bf1feAFA56A05573314BcF44C9149"),
		Nonce:                new(big.Int).Lsh(big.NewInt(1), 64),
		InitCode:             common.FromHex("0x29ada1b5217242deabb142bc3b1bcffdd56008e75fbfb9cf"),
		CallData:             common.FromHex("0xb61d27f6"),
		CallGasLimit:         big.NewInt(200000),
		VerificationGasLimit: big.NewInt(1000000),
		PreVerificationGas:   big.NewInt(0x21000),
		MaxFeePerGas:         big.NewInt(20_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(2_000_000_000),
		PaymasterAndData:     common.FromHex("0xb985af5f96ef2722dc99aeba573520903b86505e"),
		Signature:            common.FromHex("0x01"),
	}
	expected, err := op.GetUserOpHash(big.NewInt(11155111))
	require.NoError(t, err)

	parsed, err := NewUserOperation(op).ToUserOp()
	require.NoError(t, err)

	got, err := parsed.GetUserOpHash(big.NewInt(11155111))
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	assert.Equal(t, op.Signature, parsed.Signature)
}

func TestToUserOp_RejectsMalformedFields(t *testing.T) {
	valid := NewUserOperation(&userop.UserOperation{
		Nonce:                big.NewInt(1),
		CallGasLimit:         big.NewInt(1),
		VerificationGasLimit: big.NewInt(1),
		PreVerificationGas:   big.NewInt(1),
		MaxFeePerGas:         big.NewInt(1),
		MaxPriorityFeePerGas: big.NewInt(1),
	})

	badNonce := valid
	badNonce.Nonce = "12"
	_, err := badNonce.ToUserOp()
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)

	badCallData := valid
	badCallData.CallData = "0xnothex"
	_, err = badCallData.ToUserOp()
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)

	missingFee := valid
	missingFee.MaxFeePerGas = ""
	_, err = missingFee.ToUserOp()
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
}

func TestDecodeUserOperation(t *testing.T) {
	payload := []byte(`{
		"sender": "0x1111111111111111111111111111111111111111",
		"nonce": "0x0",
		"initCode": "0x",
		"callData": "0x",
		"callGasLimit": "0x83074",
		"verificationGasLimit": "0x100000",
		"preVerificationGas": "0x21000",
		"maxFeePerGas": "0x1000000016",
		"maxPriorityFeePerGas": "0x1000000000",
		"paymasterAndData": "0x",
		"signature": "0x"
	}`)

	op, err := DecodeUserOperation(payload)
	require.NoError(t, err)

	hash, err := op.GetUserOpHash(big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "0x0858eba07d3835c38574f64ba4bf9bc3cea206be6cce2d357c0fdd58b85acfe5", hash.Hex())
}

func TestDecodeUserOperation_ShortSender(t *testing.T) {
	_, err := DecodeUserOperation([]byte(`{"sender":"0x1111","nonce":"0x0"}`))
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)

	_, err = DecodeUserOperation([]byte(`{not json`))
	assert.ErrorIs(t, err, aaerr.ErrMalformedInput)
}

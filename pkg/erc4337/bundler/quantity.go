package bundler

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

// EncodeQuantity renders v as a JSON-RPC quantity: 0x prefixed, no leading
// zeros, "0x0" for zero. A nil value is encoded as zero.
func EncodeQuantity(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(v)
}

// DecodeQuantity parses a JSON-RPC quantity into a uint256. Decimal strings
// are rejected so a bundler payload can never be misread.
func DecodeQuantity(field, s string) (*big.Int, error) {
	if s == "" {
		return nil, aaerr.NewMalformedInputError(field, "is empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, aaerr.NewMalformedInputError(field, "must be 0x prefixed hex")
	}

	body := s[2:]
	if body == "" {
		return nil, aaerr.NewMalformedInputError(field, "has no hex digits")
	}
	if strings.IndexFunc(body, isNotHexDigit) >= 0 {
		return nil, aaerr.NewMalformedInputError(field, "is not valid hex")
	}

	// Tolerate leading zeros: several bundlers zero pad their responses.
	digits := strings.TrimLeft(body, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	if len(digits) > 64 {
		return nil, aaerr.NewMalformedInputError(field, "exceeds 256 bits")
	}

	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, aaerr.NewMalformedInputError(field, "is not valid hex")
	}
	return v, nil
}

func isNotHexDigit(r rune) bool {
	return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F')
}

// EncodeBytes renders b as 0x prefixed hex, "0x" when empty.
func EncodeBytes(b []byte) string {
	return hexutil.Encode(b)
}

// DecodeBytes parses 0x prefixed hex. Both "" and "0x" decode to an empty slice.
func DecodeBytes(field, s string) ([]byte, error) {
	if s == "" || s == "0x" || s == "0X" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, aaerr.New(aaerr.MalformedInput, "invalid "+field+": not valid hex", err, map[string]interface{}{"field": field})
	}
	return b, nil
}

// DecodeAddress parses a 20 byte hex address.
func DecodeAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, aaerr.NewMalformedInputError(field, "must be a 20 byte hex address")
	}
	return common.HexToAddress(s), nil
}

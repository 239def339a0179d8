package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/userop-digest/core/config"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

func printJSON(out io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

// formatGwei renders a wei amount in gwei without losing precision.
func formatGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -9).String()
}

// parseBigFlag accepts plain decimal digits or 0x-prefixed hex. Octal,
// binary, signs and digit separators are rejected.
func parseBigFlag(name, value string) (*big.Int, error) {
	digits, base, allowed := value, 10, "0123456789"
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		digits, base, allowed = value[2:], 16, "0123456789abcdefABCDEF"
	}

	if digits == "" || strings.Trim(digits, allowed) != "" {
		return nil, aaerr.NewMalformedInputError(name, fmt.Sprintf("%q is not a decimal or 0x hex integer", value))
	}

	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, aaerr.NewMalformedInputError(name, fmt.Sprintf("%q is not a decimal or 0x hex integer", value))
	}
	return v, nil
}

// loadConfig dials the node configured at configPath. Callers must Close it.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return config.NewConfig(ctx, path)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/bundler"
)

type digestOption struct {
	File    string
	ChainID int64
}

var digestOpt = digestOption{}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Compute the userOpHash of a user operation",
	Long: `Read a user operation in eth_sendUserOperation JSON form and print its
userOpHash for the EntryPoint v0.6.

With --chain-id the command runs offline. Otherwise the chain id comes from
the config file (or the node it points to).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDigest(cmd.Context(), cmd.OutOrStdout(), digestOpt)
	},
}

func runDigest(ctx context.Context, out io.Writer, opt digestOption) error {
	data, err := os.ReadFile(opt.File)
	if err != nil {
		return fmt.Errorf("cannot read user operation: %w", err)
	}

	op, err := bundler.DecodeUserOperation(data)
	if err != nil {
		return err
	}

	chainID := big.NewInt(opt.ChainID)
	if opt.ChainID == 0 {
		c, err := loadConfig(ctx, configPath)
		if err != nil {
			return err
		}
		defer c.Close()
		chainID = c.ChainID
	}

	hash, err := op.GetUserOpHash(chainID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, hash.Hex())
	return err
}

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().StringVarP(&digestOpt.File, "file", "f", "", "path to a user operation JSON file")
	digestCmd.Flags().Int64Var(&digestOpt.ChainID, "chain-id", 0, "chain id to hash for; read from config when 0")
	digestCmd.MarkFlagRequired("file")
}

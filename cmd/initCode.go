package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/core/config"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/bundler"
)

type initCodeOption struct {
	Owner   string
	Salt    string
	Factory string
}

var initCodeOpt = initCodeOption{}

var initCodeCmd = &cobra.Command{
	Use:   "init-code",
	Short: "Print the initCode deploying a SimpleAccount for an owner",
	Long: `Print factory address ++ createAccount(owner, salt) calldata.

The factory is --factory, else factory_address from the config file, else
the default SimpleAccount factory. Runs offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInitCode(cmd.OutOrStdout(), initCodeOpt)
	},
}

// resolveFactory never dials the node; only the yaml file is read.
func resolveFactory(flag string) (common.Address, error) {
	if flag != "" {
		return bundler.DecodeAddress("factory", flag)
	}

	if _, err := os.Stat(configPath); err == nil {
		raw, err := config.LoadRaw(configPath)
		if err != nil {
			return common.Address{}, err
		}
		if raw.FactoryAddress != "" {
			return common.HexToAddress(raw.FactoryAddress), nil
		}
	}

	return aa.DefaultFactoryAddress(), nil
}

func runInitCode(out io.Writer, opt initCodeOption) error {
	owner, err := bundler.DecodeAddress("owner", opt.Owner)
	if err != nil {
		return err
	}
	salt, err := parseBigFlag("salt", opt.Salt)
	if err != nil {
		return err
	}
	factory, err := resolveFactory(opt.Factory)
	if err != nil {
		return err
	}

	initCode, err := aa.GetInitCode(factory, owner, salt)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, bundler.EncodeBytes(initCode))
	return err
}

func init() {
	rootCmd.AddCommand(initCodeCmd)

	initCodeCmd.Flags().StringVarP(&initCodeOpt.Owner, "owner", "o", "", "EOA owning the account")
	initCodeCmd.Flags().StringVar(&initCodeOpt.Salt, "salt", "0", "account salt, decimal or 0x hex")
	initCodeCmd.Flags().StringVar(&initCodeOpt.Factory, "factory", "", "SimpleAccount factory address")
	initCodeCmd.MarkFlagRequired("owner")
}

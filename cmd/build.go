package cmd

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/metrics"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/bundler"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/preset"
)

type buildOption struct {
	Sender           string
	Nonce            string
	CallData         string
	InitCode         string
	PaymasterAndData string
	Sign             bool
}

var buildOpt = buildOption{}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a user operation and print it with its userOpHash",
	Long: `Estimate fees and gas for the given account call, assemble the user
operation and print it in eth_sendUserOperation form together with its
userOpHash.

The nonce is not read from the chain; pass the value the EntryPoint's
getNonce returns for the sender. With --sign the operation is signed with
controller_private_key from the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer c.Close()

		var key *ecdsa.PrivateKey
		if buildOpt.Sign {
			if c.ControllerPrivateKey == nil {
				return fmt.Errorf("--sign needs controller_private_key in %s", configPath)
			}
			key = c.ControllerPrivateKey
		}

		builder, err := preset.NewBuilder(c.EthClient, c.ChainID, c.Logger, metrics.NewUserOpMetrics(prometheus.DefaultRegisterer))
		if err != nil {
			return err
		}

		return runBuild(cmd.Context(), cmd.OutOrStdout(), builder, key, buildOpt)
	},
}

type buildOutput struct {
	UserOp     bundler.UserOperation `json:"userOp"`
	UserOpHash string                `json:"userOpHash"`
	ChainID    string                `json:"chainId"`
	EntryPoint string                `json:"entryPoint"`
}

func parseBuildRequest(opt buildOption) (preset.Request, error) {
	var (
		req preset.Request
		err error
	)

	if req.Sender, err = bundler.DecodeAddress("sender", opt.Sender); err != nil {
		return req, err
	}
	if req.Nonce, err = parseBigFlag("nonce", opt.Nonce); err != nil {
		return req, err
	}
	if req.CallData, err = bundler.DecodeBytes("callData", opt.CallData); err != nil {
		return req, err
	}
	if req.InitCode, err = bundler.DecodeBytes("initCode", opt.InitCode); err != nil {
		return req, err
	}
	if req.PaymasterAndData, err = bundler.DecodeBytes("paymasterAndData", opt.PaymasterAndData); err != nil {
		return req, err
	}

	return req, nil
}

// runBuild signs only when key is set.
func runBuild(ctx context.Context, out io.Writer, builder *preset.Builder, key *ecdsa.PrivateKey, opt buildOption) error {
	req, err := parseBuildRequest(opt)
	if err != nil {
		return err
	}

	res, err := builder.BuildUserOp(ctx, req)
	if err != nil {
		return err
	}

	op := res.UserOp
	if key != nil {
		if op, err = builder.Sign(res, key); err != nil {
			return err
		}
	}

	return printJSON(out, buildOutput{
		UserOp:     bundler.NewUserOperation(op),
		UserOpHash: res.UserOpHash.Hex(),
		ChainID:    bundler.EncodeQuantity(builder.ChainID()),
		EntryPoint: aa.EntrypointAddress().Hex(),
	})
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOpt.Sender, "sender", "s", "", "smart account address")
	buildCmd.Flags().StringVarP(&buildOpt.Nonce, "nonce", "n", "", "EntryPoint nonce of the sender, decimal or 0x hex")
	buildCmd.Flags().StringVar(&buildOpt.CallData, "call-data", "0x", "callData executed on the account")
	buildCmd.Flags().StringVar(&buildOpt.InitCode, "init-code", "0x", "factory address followed by its calldata, for undeployed accounts")
	buildCmd.Flags().StringVar(&buildOpt.PaymasterAndData, "paymaster-and-data", "0x", "paymaster address followed by its data")
	buildCmd.Flags().BoolVar(&buildOpt.Sign, "sign", false, "sign the userOpHash with controller_private_key")
	buildCmd.MarkFlagRequired("sender")
	buildCmd.MarkFlagRequired("nonce")
}

package cmd

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AvaProtocol/userop-digest/pkg/eip1559"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/bundler"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/gas"
)

type estimateOption struct {
	Sender   string
	CallData string
	InitCode string
}

var estimateOpt = estimateOption{}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate gas and fee fields for a user operation",
	Long: `Simulate the call (and the account deployment when --init-code is set)
against the configured node and read its fee data. Prints the five numeric
fields a user operation needs, as JSON-RPC quantities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer c.Close()

		return runEstimate(cmd.Context(), cmd.OutOrStdout(), c.EthClient, estimateOpt)
	},
}

type chainReader interface {
	eip1559.FeeDataReader
	gas.Simulator
}

type estimateOutput struct {
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	MaxFeeGwei           string `json:"maxFeePerGasGwei"`
	MaxPriorityFeeGwei   string `json:"maxPriorityFeePerGasGwei"`
}

func runEstimate(ctx context.Context, out io.Writer, client chainReader, opt estimateOption) error {
	sender, err := bundler.DecodeAddress("sender", opt.Sender)
	if err != nil {
		return err
	}
	callData, err := bundler.DecodeBytes("callData", opt.CallData)
	if err != nil {
		return err
	}
	initCode, err := bundler.DecodeBytes("initCode", opt.InitCode)
	if err != nil {
		return err
	}

	var (
		fees      *eip1559.Fees
		estimated *gas.Estimation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fees, err = eip1559.Estimate(gctx, client)
		return err
	})
	g.Go(func() (err error) {
		estimated, err = gas.Estimate(gctx, client, sender, callData, initCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return printJSON(out, estimateOutput{
		CallGasLimit:         bundler.EncodeQuantity(estimated.CallGasLimit),
		VerificationGasLimit: bundler.EncodeQuantity(estimated.VerificationGasLimit),
		PreVerificationGas:   bundler.EncodeQuantity(estimated.PreVerificationGas),
		MaxFeePerGas:         bundler.EncodeQuantity(fees.MaxFeePerGas),
		MaxPriorityFeePerGas: bundler.EncodeQuantity(fees.MaxPriorityFeePerGas),
		MaxFeeGwei:           formatGwei(fees.MaxFeePerGas),
		MaxPriorityFeeGwei:   formatGwei(fees.MaxPriorityFeePerGas),
	})
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVarP(&estimateOpt.Sender, "sender", "s", "", "smart account address")
	estimateCmd.Flags().StringVar(&estimateOpt.CallData, "call-data", "0x", "callData executed on the account")
	estimateCmd.Flags().StringVar(&estimateOpt.InitCode, "init-code", "0x", "factory address followed by its calldata, for undeployed accounts")
	estimateCmd.MarkFlagRequired("sender")
}

var _ chainReader = (*ethclient.Client)(nil)

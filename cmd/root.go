package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var (
	configPath = "config/userop.yaml"
	rootCmd    = &cobra.Command{
		Use:   "userop-digest",
		Short: "ERC-4337 user operation hashing and estimation",
		Long: `Build, estimate and hash ERC-4337 (EntryPoint v0.6) user operations.

The digest printed by "userop-digest digest" or "userop-digest build" is the
userOpHash the EntryPoint passes to the account's validateUserOp, so it is
what the account owner signs.
`,
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/userop.yaml", "Path to config file")
}

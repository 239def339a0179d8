package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/AvaProtocol/userop-digest/core/config"
)

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Validate the config file and print it",
	Long: `Read and validate the config file without dialing the node, then print
it back as yaml with controller_private_key redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShowConfig(cmd.OutOrStdout(), configPath)
	},
}

func runShowConfig(out io.Writer, path string) error {
	raw, err := config.LoadRaw(path)
	if err != nil {
		return err
	}
	if raw.ControllerPrivateKey != "" {
		raw.ControllerPrivateKey = "<redacted>"
	}

	b, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, string(b))
	return err
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}

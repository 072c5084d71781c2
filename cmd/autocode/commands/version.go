package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sghaida/autocode/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Show autocode version information",
		Long:        "Display the autocode release, its commit, the Go toolchain and the default header tag.",
		Args:        cobra.NoArgs,
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			if jsonOutput {
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintln(out, info.String())
			fmt.Fprintf(out, "Go: %s %s\n", info.GoVersion, info.Platform)
			fmt.Fprintf(out, "Default GEN_VERSION: %s\n", info.GenVersion)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output version info as JSON")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/sghaida/autocode/cache"
	"github.com/spf13/cobra"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated files written by another version",
		Long: `Remove every *.gen.go file under the generation directory whose
GEN_VERSION header does not match the configured version. Files with the
current version, and files without the header, are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cache.NewStore(a.cfg.GenerationDir, a.cfg.Version)
			if err != nil {
				return err
			}
			removed, err := store.Clean()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintln(out, "No stale generated files")
				return nil
			}
			writeList(out, "Removed", removed)
			return nil
		},
	}
}

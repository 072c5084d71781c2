package commands

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/loader"
	"github.com/spf13/cobra"
)

func newGenCmd(a *app) *cobra.Command {
	var maxPasses int

	cmd := &cobra.Command{
		Use:   "gen [namespace]...",
		Short: "Generate the types a package uses but does not declare",
		Long: `Type-check each namespace (a package directory relative to the source
directory; "." is the root package) and generate every undefined identifier
that follows a naming convention. Packages are re-checked until nothing new
is generated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			p, err := newPipeline(a.cfg, loader.WithMaxPasses(maxPasses))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				ns := normalizeNamespace(arg)
				generated, err := p.loader.Check(ns)
				if err != nil {
					return errors.Wrapf(err, "gen %s", arg)
				}
				if len(generated) == 0 {
					fmt.Fprintf(out, "%s: nothing to generate\n", arg)
					continue
				}
				writeList(out, arg, generated)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPasses, "max-passes", 0, "Bound on check passes per namespace (default 5)")
	return cmd
}

func normalizeNamespace(arg string) string {
	ns := strings.Trim(strings.ReplaceAll(arg, `\`, "/"), "/")
	ns = strings.TrimPrefix(ns, "./")
	if ns == "." {
		return ""
	}
	return ns
}

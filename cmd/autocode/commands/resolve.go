package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

type resolution struct {
	Type     string `yaml:"type"`
	Path     string `yaml:"path,omitempty"`
	Resolved bool   `yaml:"resolved"`
}

func newResolveCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <type>...",
		Short: "Generate the named types",
		Long: `Resolve each type name through the naming conventions and print the
generated file. Names are namespace-qualified relative to the generation
directory, e.g. app.LoggerProxy or internal/store.NeedsCacheTrait.

Existing hand-written declarations are not checked: resolve always consults
the generation cache and the strategies.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			p, err := newPipeline(a.cfg)
			if err != nil {
				return err
			}

			var results []resolution
			failed := 0
			for _, name := range args {
				path, ok := p.dispatcher.Resolve(name)
				if !ok {
					failed++
				}
				results = append(results, resolution{Type: name, Path: path, Resolved: ok})
			}

			out := cmd.OutOrStdout()
			if output == outputYAML {
				if err := writeYAML(out, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Resolved {
						fmt.Fprintf(out, "%s\t%s\n", r.Type, r.Path)
					} else {
						fmt.Fprintf(out, "%s\t(not resolved)\n", r.Type)
					}
				}
			}

			if failed > 0 {
				return errors.Newf("%d of %d type(s) could not be resolved", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or yaml")
	return cmd
}

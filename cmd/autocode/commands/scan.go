package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/config"
	"github.com/sghaida/autocode/loader"
	"github.com/sghaida/autocode/logger"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		output  string
		noClean bool
	)

	cmd := &cobra.Command{
		Use:   "scan [<gen-dir> [dir]...]",
		Short: "Generate the parameter types of constructors",
		Long: `Walk the given directories (default: scan.dirs), collect the parameter
types of every New* function, and generate those that do not exist yet.
Stale generated files are removed first.

The positional form overrides the configured generation directory:

  autocode scan ./gen ./cmd ./internal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}

			cfg, dirs, err := scanTarget(a.cfg, args)
			if err != nil {
				return err
			}
			report, err := runScan(cfg, dirs, !noClean)
			if err != nil {
				return err
			}

			if output == outputYAML {
				return writeYAML(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or yaml")
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "Keep stale generated files")
	return cmd
}

// scanTarget applies the positional <gen-dir> [dir]... override to cfg.
func scanTarget(cfg *config.Config, args []string) (*config.Config, []string, error) {
	if len(args) == 0 {
		return cfg, cfg.Scan.Dirs, nil
	}

	genDir, err := filepath.Abs(args[0])
	if err != nil {
		return nil, nil, errors.Wrapf(err, "resolve %s", args[0])
	}
	c := *cfg
	if cfg.SourceDir == cfg.GenerationDir {
		c.SourceDir = genDir
	}
	c.GenerationDir = genDir

	dirs := args[1:]
	if len(dirs) == 0 {
		dirs = cfg.Scan.Dirs
	}
	return &c, dirs, nil
}

func runScan(cfg *config.Config, dirs []string, clean bool) (*loader.Report, error) {
	p, err := newPipeline(cfg)
	if err != nil {
		return nil, err
	}

	if clean {
		removed, err := p.dispatcher.Store().Clean()
		if err != nil {
			return nil, err
		}
		if len(removed) > 0 {
			logger.Infow("Removed stale generated files", "count", len(removed))
		}
	}

	s, err := p.scanner()
	if err != nil {
		return nil, err
	}
	return s.Scan(dirs...)
}

func printReport(w io.Writer, r *loader.Report) {
	fmt.Fprintf(w, "Requested %d type(s), %d available, %d missing\n", len(r.Requested), len(r.Loaded), len(r.Missing))
	writeList(w, "Missing", r.Missing)
}

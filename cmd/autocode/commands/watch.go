package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sghaida/autocode/loader"
	"github.com/sghaida/autocode/logger"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-scan whenever Go sources change",
		Long: `Run a scan of scan.dirs, then watch them and scan again after each burst
of changes to hand-written Go files. Generated files are ignored. Stops on
interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cmd, a)
		},
	}
}

func watch(ctx context.Context, cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	var mu sync.Mutex
	scan := func() {
		mu.Lock()
		defer mu.Unlock()

		report, err := runScan(cfg, cfg.Scan.Dirs, true)
		if err != nil {
			logger.Errorw("Scan failed", "error", err)
			return
		}
		printReport(cmd.OutOrStdout(), report)
	}

	scan()

	w, err := loader.NewWatcher(scan, cfg.Scan.Dirs,
		loader.WithDebounce(cfg.Debounce()),
		loader.WithWatchLogger(logger.Named("watcher")),
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d director(ies), press Ctrl+C to stop\n", len(cfg.Scan.Dirs))
	return w.Run(ctx)
}

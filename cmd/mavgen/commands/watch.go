package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/watch"
)

// WatchCmd regenerates on definition changes
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever definitions change",
	Long: `Generate once, then watch the definitions and patch directories and
regenerate after every change.

Bursts of changes are debounced (watch.debounce_ms) and rebuilds are limited to
watch.max_runs_per_minute. A failing rebuild is reported and watching goes on.

Examples:
  mavgen watch
  mavgen watch --lang markdown -o docs/mavlink`,
	RunE: runWatch,
}

func init() {
	addOutputFlags(WatchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	log := logger.ComponentLogger("watch")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if report, err := generate(ctx, cfg, false, cfg.Definitions.Fetch); err != nil {
		pterm.Error.Printfln("Initial generate failed: %v", err)
	} else {
		printReport(cfg, report)
	}

	rebuild := func(ctx context.Context, changed []string) error {
		pterm.Info.Printfln("%d definition files changed", len(changed))
		report, err := generate(ctx, cfg, false, false)
		if err != nil {
			pterm.Error.Printfln("Generate failed: %v", err)
			return err
		}
		printReport(cfg, report)
		return nil
	}

	w, err := watch.New([]string{cfg.Definitions.Dir, cfg.Definitions.PatchDir}, cfg.Watch, rebuild, log)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Watching %s (Ctrl+C to stop)", cfg.Definitions.Dir)
	return w.Run(ctx)
}

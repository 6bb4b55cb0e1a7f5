package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/catalog"
	"github.com/agentx-labs/promptreg/internal/updater"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Sweep interval (default: refresh.interval from config)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh catalogs periodically until interrupted",
	Long: `Re-fetch every enabled catalog on a fixed interval and report available
artifact updates after each sweep. Stops on SIGINT or SIGTERM once the
sweep in flight has finished.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		interval := watchInterval
		if interval == 0 {
			interval, err = a.cfg.Refresh.IntervalDuration()
			if err != nil {
				return err
			}
		}
		if interval <= 0 {
			return errors.New("no refresh interval: pass --interval or set refresh.interval")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Refreshing catalogs every %s. Press Ctrl+C to stop.\n", interval)
		return a.catalogs.Run(ctx, interval, func(result *catalog.SweepResult) {
			fmt.Fprintf(out, "[%s] sweep finished\n", time.Now().Format(time.TimeOnly))
			printSweep(cmd, result)
			infos, err := a.checkUpdates(ctx)
			if err != nil {
				a.logger.Warn("Update check failed", "error", err)
				return
			}
			if n := len(updater.Available(infos)); n > 0 {
				updater.PrintUpdateBanner(out, n)
			}
		})
	},
}

package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"barter-enhancer/internal/components/chrono"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/notify"
	"barter-enhancer/internal/watch"

	"github.com/spf13/cobra"
)

var watchOnce bool

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "refresh once and exit instead of scheduling")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically refreshes the configured pages and mails the games at their historical low.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher := watch.NewWatcher(
			current.config.Watch,
			current.barter,
			current.coordinator,
			notify.NewMailer(current.config.Smtp, current.tel),
			current.time,
			current.tel,
		)

		if watchOnce {
			digest, err := watcher.Refresh(cmd.Context())
			slog.Info("refreshed watched pages", "alerts", len(digest.Alerts))
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		telemetry.InstrumentPerfStats(ctx)

		cron := chrono.NewStandardCron(current.tel)
		defer cron.Stop()

		err := watcher.Start(ctx, cron)
		if err != nil {
			return err
		}
		slog.Info(
			"watching pages",
			"cron", current.config.Watch.Cron,
			"targets", len(current.config.Watch.Targets),
		)

		<-ctx.Done()
		slog.Info("stopping watcher")
		return nil
	},
}


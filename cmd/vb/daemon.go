package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// fallbackSyncInterval bounds how stale data can get when no change
// triggers arrive.
const fallbackSyncInterval = time.Hour

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync daemon (foreground)",
	Long: `Daemon runs the observer-driven sync loop in the foreground.

On startup it reconciles local state with the server, resumes the data
change observer if the platform is connected, and then syncs whenever the
health store reports new data. A fallback timer syncs hourly in case no
triggers arrive.

Press Ctrl+C to stop.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := app.manager.Refresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reconciling connection state: %v\n", err)
			os.Exit(1)
		}
		if err := app.manager.Resume(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error resuming observer: %v\n", err)
			os.Exit(1)
		}

		app.logger.Printf("Daemon started, connection state: %s", st)
		fmt.Printf("vb daemon running (state: %s)\n", st)

		if _, err := app.syncer.TrySync(ctx); err != nil {
			app.logger.Printf("WARNING: startup sync failed: %v", err)
		}

		ticker := time.NewTicker(fallbackSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := app.syncer.TrySync(ctx); err != nil {
					app.logger.Printf("WARNING: periodic sync failed: %v", err)
				}
			case <-ctx.Done():
				app.logger.Println("Daemon stopping")
				fmt.Println("\nStopped")
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caketrack/caketrack/internal/notify"
	"github.com/caketrack/caketrack/internal/schema"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made by other caketrack processes",
	Long: `Subscribe to the change topic and print an updated summary when
another process writes. Also re-reads on a timer, which covers missed
events and platforms where the filesystem watch cannot be established.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var events <-chan notify.Event
		sub, err := notify.NewSubscriber(a.cfg.EventsDir(), a.logger)
		if err != nil {
			a.logger.Printf("WARNING: change subscription unavailable, polling only: %v", err)
		} else if err := sub.Start(); err != nil {
			a.logger.Printf("WARNING: change subscription unavailable, polling only: %v", err)
		} else {
			defer sub.Stop()
			events = sub.Events()
		}

		printSummary(ctx, a)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				fmt.Printf("changed: %s %s\n", ev.Kind, ev.Key)
				printSummary(ctx, a)
			case <-ticker.C:
				printSummary(ctx, a)
			}
		}
	},
}

// printSummary re-reads every kind through the facade and prints counts.
func printSummary(ctx context.Context, a *app) {
	if ctx.Err() != nil {
		return
	}
	for _, kind := range schema.Kinds() {
		recs, err := a.store.GetAll(ctx, kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", kind, err)
			return
		}
		fmt.Printf("  %-8s %d\n", kind, len(recs))
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "re-read interval")
	rootCmd.AddCommand(watchCmd)
}

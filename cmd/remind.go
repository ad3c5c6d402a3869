package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/medrem/internal/reminder"
)

var remindSchedule string

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Print a reminder whenever a medicine is due",
	Args:  cobra.NoArgs,
	RunE:  runRemind,
}

func init() {
	remindCmd.Flags().StringVar(&remindSchedule, "schedule", "", "Cron spec for how often to check (overrides config)")
}

func runRemind(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if remindSchedule != "" {
		cfg.Reminder.Schedule = remindSchedule
	}

	r := reminder.New(reminder.Options{
		Source:   mustNewClient(cfg),
		Out:      os.Stdout,
		Schedule: cfg.Reminder.Schedule,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Medicine reminder started at %s (checking %s)\n",
		time.Now().Format("02/01/2006 15:04:05"), cfg.Reminder.Schedule)
	// Check once right away so a dose due this minute is not missed.
	r.Check(ctx)

	if err := r.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Running (press Ctrl+C to stop)...")

	<-ctx.Done()
	r.Stop()
	fmt.Println("Reminder stopped.")
	return nil
}

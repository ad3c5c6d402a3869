package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/timecalc"
	"github.com/Tiliavir/medrem/internal/view"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the clock, the number of medicines and the next dose",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()

	cfg := mustLoadConfig()
	a := newApp(cfg, nil, nil)
	exitOnError(a.orch.Load(context.Background()))

	view.NewRenderer(a.screen).RenderClock(now)
	fmt.Println(a.screen.Region(view.RegionClock))
	fmt.Printf("Medicines: %s\n", a.screen.Region(view.RegionCount))

	next, at, ok := nextDose(now, a.orch.Cache().All())
	if !ok {
		fmt.Println("No upcoming doses.")
		return nil
	}
	wait := int64(at.Sub(timecalc.StartOfMinute(now)).Seconds())
	if wait <= 0 {
		fmt.Printf("Next: %s at %s (now)\n", next.Name, next.TakenTime)
		return nil
	}
	fmt.Printf("Next: %s at %s (in %s)\n", next.Name, next.TakenTime, timecalc.FormatDuration(wait))
	return nil
}

// nextDose returns the record whose taken time comes up soonest at or after
// now. Records with an unparsable time are skipped; ties keep list order.
func nextDose(now time.Time, records []model.Medicine) (model.Medicine, time.Time, bool) {
	var (
		best   model.Medicine
		bestAt time.Time
		found  bool
	)
	for _, m := range records {
		at, err := timecalc.NextOccurrence(now, m.TakenTime)
		if err != nil {
			continue
		}
		if !found || at.Before(bestAt) {
			best, bestAt, found = m, at, true
		}
	}
	return best, bestAt, found
}

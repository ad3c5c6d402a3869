// Package reminder announces medicines whose taken time matches the current
// minute. Checks run on a cron schedule; each record is announced at most
// once per minute.
package reminder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Tiliavir/medrem/internal/cache"
	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/timecalc"
)

// Source supplies the current record list.
type Source interface {
	ListAll(ctx context.Context) ([]model.Medicine, error)
}

// Options configures a Reminder.
type Options struct {
	// Source is polled on every check; nil means only Cache is used.
	Source Source
	// Cache receives every successful poll and is read when polling fails.
	Cache *cache.Cache
	Out   io.Writer
	// Schedule is a cron spec, e.g. "@every 20s".
	Schedule string
	Now      func() time.Time
}

// Reminder checks taken times on a schedule.
type Reminder struct {
	source   Source
	cache    *cache.Cache
	out      io.Writer
	schedule string
	now      func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	lastMinute string
	notified   map[int64]bool
}

// New returns a stopped Reminder.
func New(opts Options) *Reminder {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reminder{
		source:   opts.Source,
		cache:    opts.Cache,
		out:      opts.Out,
		schedule: opts.Schedule,
		now:      opts.Now,
		cron:     cron.New(),
		ctx:      ctx,
		cancel:   cancel,
		notified: map[int64]bool{},
	}
	if r.cache == nil {
		r.cache = cache.New()
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Cache returns the list the reminder checks against.
func (r *Reminder) Cache() *cache.Cache {
	return r.cache
}

// Start registers the check with the scheduler and starts it.
func (r *Reminder) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, func() {
		r.Check(r.ctx)
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running check to finish.
func (r *Reminder) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
}

// Check polls the source and announces records due this minute that have
// not been announced yet. It returns the announced records.
func (r *Reminder) Check(ctx context.Context) []model.Medicine {
	if r.source != nil {
		records, err := r.source.ListAll(ctx)
		if err != nil {
			fmt.Fprintf(r.out, "Warning: could not refresh medicines, using last known list: %v\n", err)
		} else {
			r.cache.ReplaceAll(records)
		}
	}

	now := r.now()
	minute := timecalc.MinuteKey(now)

	r.mu.Lock()
	if minute != r.lastMinute {
		r.lastMinute = minute
		r.notified = map[int64]bool{}
	}
	var due []model.Medicine
	for _, m := range r.cache.All() {
		if m.TakenTime == minute && !r.notified[m.ID] {
			r.notified[m.ID] = true
			due = append(due, m)
		}
	}
	r.mu.Unlock()

	if len(due) > 0 {
		r.announce(now, due)
	}
	return due
}

func (r *Reminder) announce(now time.Time, due []model.Medicine) {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nTime to take your medicine (%s)\n%s\n", rule, timecalc.MinuteKey(now), rule)
	for _, m := range due {
		fmt.Fprintf(&b, "\n• %s\n  Time: %s\n", m.Name, m.TakenTime)
		if m.Dosage != "" {
			fmt.Fprintf(&b, "  ▪ Dosage: %s\n", m.Dosage)
		}
		if len(m.Uses) > 0 {
			fmt.Fprintf(&b, "  ▪ Uses: %s\n", model.JoinList(m.Uses))
		}
	}
	fmt.Fprintf(&b, "\n%s\n\a", rule)
	fmt.Fprintln(r.out, b.String())
}

package view

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/timecalc"
)

// Region names on the screen.
const (
	RegionList  = "list"
	RegionCount = "count"
	RegionClock = "clock"
)

const (
	emptyText = "No medicines found."
	emptyHint = "Add one with: medrem add <name> --time HH:MM"
)

// Sink receives rendered content. Replace overwrites everything previously
// written to region.
type Sink interface {
	Replace(region, content string)
}

// Screen is an in-memory Sink holding the current content of each region.
type Screen struct {
	mu      sync.Mutex
	regions map[string]string
	// OnChange, if set, is called after a region is replaced.
	OnChange func(region, content string)
}

// NewScreen returns a screen with no content.
func NewScreen() *Screen {
	return &Screen{regions: map[string]string{}}
}

// Replace implements Sink.
func (s *Screen) Replace(region, content string) {
	s.mu.Lock()
	s.regions[region] = content
	hook := s.OnChange
	s.mu.Unlock()
	if hook != nil {
		hook(region, content)
	}
}

// Region returns the current content of region.
func (s *Screen) Region(region string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regions[region]
}

// Renderer draws records into a Sink.
type Renderer struct {
	sink Sink
}

// NewRenderer returns a Renderer writing to sink.
func NewRenderer(sink Sink) *Renderer {
	return &Renderer{sink: sink}
}

// Render replaces region with one card per record, in the given order, or
// with the empty-state placeholder when there are none.
func (r *Renderer) Render(region string, records []model.Medicine) {
	r.sink.Replace(region, Cards(records))
}

// RenderCount replaces the count region.
func (r *Renderer) RenderCount(n int) {
	r.sink.Replace(RegionCount, fmt.Sprintf("%d", n))
}

// RenderClock replaces the clock region with the time and date of t.
func (r *Renderer) RenderClock(t time.Time) {
	clock, date := timecalc.ClockLabel(t)
	r.sink.Replace(RegionClock, clock+"  "+date)
}

// Cards renders records as text cards.
func Cards(records []model.Medicine) string {
	var b strings.Builder
	if len(records) == 0 {
		b.WriteString(emptyText + "\n")
		b.WriteString("  " + emptyHint + "\n")
		return b.String()
	}
	for i, m := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		writeCard(&b, m)
	}
	return b.String()
}

func writeCard(b *strings.Builder, m model.Medicine) {
	fmt.Fprintf(b, "#%d  %s\n", m.ID, m.Name)
	fmt.Fprintf(b, "    Time: %s\n", m.TakenTime)
	if d := strings.TrimSpace(m.Dosage); d != "" {
		fmt.Fprintf(b, "    ■ Dosage: %s\n", d)
	}
	if uses := model.CleanList(m.Uses); len(uses) > 0 {
		fmt.Fprintf(b, "    ■ Uses: %s\n", strings.Join(uses, ", "))
	}
	if se := model.CleanList(m.SideEffects); len(se) > 0 {
		fmt.Fprintf(b, "    ■ Side effects: %s\n", strings.Join(se, ", "))
	}
}

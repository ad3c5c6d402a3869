package notify

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Severity classifies a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Notification is a message currently on screen.
type Notification struct {
	Message  string
	Severity Severity
}

// Toast shows one notification at a time. A new notification replaces the
// visible one instead of queueing behind it, and each dismisses itself after
// the configured duration.
type Toast struct {
	mu       sync.Mutex
	out      io.Writer
	duration time.Duration
	current  *Notification
	timer    *time.Timer
}

// NewToast returns a Toast that echoes notifications to out (which may be
// nil) and hides them after d.
func NewToast(out io.Writer, d time.Duration) *Toast {
	return &Toast{out: out, duration: d}
}

// Notify implements Notifier.
func (t *Toast) Notify(message string, severity Severity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	n := &Notification{Message: message, Severity: severity}
	t.current = n
	t.timer = time.AfterFunc(t.duration, func() { t.dismiss(n) })

	if t.out != nil {
		fmt.Fprintf(t.out, "[%s] %s\n", severity, message)
	}
}

// dismiss hides n unless it has already been replaced.
func (t *Toast) dismiss(n *Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == n {
		t.current = nil
		t.timer = nil
	}
}

// Current returns the visible notification, if any.
func (t *Toast) Current() (Notification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Notification{}, false
	}
	return *t.current, true
}

package clock

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusOngoing  Status = "ONGOING"
	StatusEnded    Status = "ENDED"
)

// Window is the contest time window. Every field is optional.
type Window struct {
	Start  *time.Time
	End    *time.Time
	Status Status
}

// Closed reports whether the window no longer accepts work.
func (w Window) Closed(now time.Time) bool {
	if Status(strings.ToUpper(string(w.Status))) == StatusEnded {
		return true
	}
	return w.End != nil && now.After(*w.End)
}

type Phase int

const (
	PhaseNone Phase = iota
	PhaseUpcoming
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseUpcoming:
		return "upcoming"
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	default:
		return "none"
	}
}

type Reading struct {
	Phase Phase
	Text  string
}

const EndedLabel = "Ended"

func Compute(w Window, now time.Time) Reading {
	if w.Closed(now) {
		return Reading{Phase: PhaseEnded, Text: EndedLabel}
	}
	if w.Start != nil && now.Before(*w.Start) {
		return Reading{Phase: PhaseUpcoming, Text: FormatRemaining(w.Start.Sub(now))}
	}
	if w.End != nil && now.Before(*w.End) {
		return Reading{Phase: PhaseRunning, Text: FormatRemaining(w.End.Sub(now))}
	}
	return Reading{Phase: PhaseNone}
}

// FormatRemaining renders d floored to whole seconds as HH:MM:SS, prefixed
// with D-<days> when at least one day remains.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	total %= 86400
	h, m, s := total/3600, (total%3600)/60, total%60
	if days > 0 {
		return fmt.Sprintf("D-%d %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Clock recomputes a reading from wall-clock time on every tick, so a late
// tick never accumulates drift.
type Clock struct {
	window Window
	now    func() time.Time
}

func New(w Window) *Clock {
	return &Clock{window: w, now: time.Now}
}

// NewWithNow is for tests.
func NewWithNow(w Window, now func() time.Time) *Clock {
	return &Clock{window: w, now: now}
}

func (c *Clock) Window() Window { return c.window }

func (c *Clock) Now() Reading {
	return Compute(c.window, c.now())
}

// Run calls fn immediately and then once per interval until ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration, fn func(Reading)) {
	if interval <= 0 {
		interval = time.Second
	}
	fn(c.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(c.Now())
		}
	}
}

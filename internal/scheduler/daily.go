package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"prowl/internal/logger"
)

// Daily fires a task once per day at a fixed wall-clock time. It is
// independently cancellable through its context: stopping the owner of a
// Daily never requires stopping anything else.
type Daily struct {
	Hour   int
	Minute int

	nowFn func() time.Time
}

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// NewDaily builds a scheduler for "HH:MM"; invalid input falls back to 09:00.
func NewDaily(at string) *Daily {
	hour, minute, err := ParseClockTime(at)
	if err != nil {
		logger.Warnf("scheduler: %v, falling back to 09:00", err)
		hour, minute = 9, 0
	}
	return &Daily{Hour: hour, Minute: minute, nowFn: time.Now}
}

// Start blocks, running task at each scheduled time until ctx is done.
func (d *Daily) Start(ctx context.Context, task func()) {
	if task == nil {
		logger.Warnf("scheduler: task is nil, exit")
		return
	}
	if d.nowFn == nil {
		d.nowFn = time.Now
	}
	for {
		now := d.nowFn()
		wakeAt := d.next(now)
		logger.Infof("scheduler: next report at %s (in %s)",
			wakeAt.Format(time.RFC3339), wakeAt.Sub(now).Truncate(time.Second))

		timer := time.NewTimer(wakeAt.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Infof("scheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
	}
}

func (d *Daily) next(now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.Add(24 * time.Hour)
	}
	return at
}

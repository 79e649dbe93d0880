// Package calendar answers whether a symbol's exchange is currently
// open, using a per-exchange-group table of UTC trading hours.
package calendar

import (
	"fmt"
	"time"
)

// Hours is an open/close window in UTC, minutes since midnight. Close
// is inclusive.
type Hours struct {
	OpenMinute  int
	CloseMinute int
}

// Calendar maps exchange groups to their UTC trading hours.
type Calendar struct {
	hours map[string]Hours
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// New builds a calendar from {group: [open, close]} clock strings, e.g.
// {"us": ["14:30", "21:00"], "eu": ["08:00", "16:30"]}.
func New(groups map[string][2]string) (*Calendar, error) {
	hours := make(map[string]Hours, len(groups))
	for group, window := range groups {
		open, err := parseClock(window[0])
		if err != nil {
			return nil, fmt.Errorf("group %s open: %w", group, err)
		}
		close, err := parseClock(window[1])
		if err != nil {
			return nil, fmt.Errorf("group %s close: %w", group, err)
		}
		if close <= open {
			return nil, fmt.Errorf("group %s: close %s not after open %s", group, window[1], window[0])
		}
		hours[group] = Hours{OpenMinute: open, CloseMinute: close}
	}
	return &Calendar{hours: hours}, nil
}

// Default returns the shipped two-group calendar: US listings
// 14:30-21:00 UTC, EU listings 08:00-16:30 UTC.
func Default() *Calendar {
	c, _ := New(map[string][2]string{
		"us": {"14:30", "21:00"},
		"eu": {"08:00", "16:30"},
	})
	return c
}

// IsOpen reports whether the exchange group is trading at the given UTC
// instant. An unknown group is treated as closed.
func (c *Calendar) IsOpen(group string, now time.Time) bool {
	h, ok := c.hours[group]
	if !ok {
		return false
	}
	utc := now.UTC()
	minute := utc.Hour()*60 + utc.Minute()
	return minute >= h.OpenMinute && minute <= h.CloseMinute
}

// HasGroup reports whether the calendar knows the exchange group.
func (c *Calendar) HasGroup(group string) bool {
	_, ok := c.hours[group]
	return ok
}

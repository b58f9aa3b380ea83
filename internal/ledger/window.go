package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// WindowRequest is the caller's untrusted window selection. Preset is either
// a trailing window ("7d", "30d", "3m", ...) or "custom", in which case From
// and To carry explicit calendar dates.
type WindowRequest struct {
	Preset string
	From   string
	To     string
}

// Window is a resolved, day-normalized report range. Start is the beginning
// of its day and End the end of its day; both bounds are inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// ResolveWindow turns a WindowRequest into a concrete Window relative to now.
// Missing or unparsable custom bounds fall back to the trailing week for the
// start and now for the end. An unknown preset, or a range whose end precedes
// its start after normalization, yields ErrInvalidRange; bounds are never
// silently swapped.
func ResolveWindow(req WindowRequest, now time.Time) (Window, error) {
	preset := strings.ToLower(strings.TrimSpace(req.Preset))
	if preset == "" {
		preset = "7d"
	}

	if preset != "custom" {
		n, unit, err := parsePreset(preset)
		if err != nil {
			return Window{}, err
		}
		var start time.Time
		switch unit {
		case 'd':
			start = now.AddDate(0, 0, -n)
		case 'm':
			start = now.AddDate(0, -n, 0)
		}
		return Window{Start: startOfDay(start), End: endOfDay(now)}, nil
	}

	start, ok := parseDate(req.From)
	if !ok {
		start = now.AddDate(0, 0, -7)
	}
	end, ok := parseDate(req.To)
	if !ok {
		end = now
	}
	win := Window{Start: startOfDay(start), End: endOfDay(end)}
	if win.End.Before(win.Start) {
		return Window{}, fmt.Errorf("%w: end %s precedes start %s",
			ErrInvalidRange, win.End.Format(dateLayout), win.Start.Format(dateLayout))
	}
	return win, nil
}

func parsePreset(preset string) (int, byte, error) {
	if len(preset) < 2 {
		return 0, 0, fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
	}
	unit := preset[len(preset)-1]
	if unit != 'd' && unit != 'm' {
		return 0, 0, fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
	}
	n, err := strconv.Atoi(preset[:len(preset)-1])
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
	}
	return n, unit, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

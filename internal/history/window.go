package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Period names a trailing window ending today.
type Period string

const (
	Period7D  Period = "7d"
	Period14D Period = "14d"
	Period1M  Period = "1m"
	Period3M  Period = "3m"
	Period6M  Period = "6m"
	Period1Y  Period = "1y"

	DefaultPeriod = Period3M
)

var (
	ErrInvalidPeriod = errors.New("invalid period: must be one of 7d, 14d, 1m, 3m, 6m, 1y")
	ErrInvalidDate   = errors.New("invalid date: expected YYYY-MM-DD")
	ErrWindowTooLong = errors.New("window too long")
)

// Window is an inclusive range of calendar days. An inverted window is
// allowed and yields empty series.
type Window struct {
	Start civil.Date
	End   civil.Date
}

// Days is the number of days covered, zero when inverted.
func (w Window) Days() int {
	if w.Start.After(w.End) {
		return 0
	}
	return w.End.DaysSince(w.Start) + 1
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

// ParsePeriod accepts the period names case-insensitively. Empty means the
// default.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return DefaultPeriod, nil
	case Period7D, Period14D, Period1M, Period3M, Period6M, Period1Y:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Window returns the period's range ending on today.
func (p Period) Window(today civil.Date) Window {
	t := today.In(time.UTC)
	var start time.Time
	switch p {
	case Period7D:
		start = t.AddDate(0, 0, -7)
	case Period14D:
		start = t.AddDate(0, 0, -14)
	case Period1M:
		start = t.AddDate(0, -1, 0)
	case Period6M:
		start = t.AddDate(0, -6, 0)
	case Period1Y:
		start = t.AddDate(-1, 0, 0)
	default:
		start = t.AddDate(0, -3, 0)
	}
	return Window{Start: civil.DateOf(start), End: today}
}

// ParseWindow resolves query parameters into a window. Explicit start and
// end take precedence over period; a missing end defaults to today and a
// missing start to the period's start. maxDays <= 0 disables the length
// check.
func ParseWindow(period, start, end string, today civil.Date, maxDays int) (Window, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return Window{}, err
	}
	w := p.Window(today)

	if end = strings.TrimSpace(end); end != "" {
		d, err := civil.ParseDate(end)
		if err != nil {
			return Window{}, fmt.Errorf("end %q: %w", end, ErrInvalidDate)
		}
		w.End = d
		if strings.TrimSpace(start) == "" {
			w.Start = p.Window(d).Start
		}
	}
	if start = strings.TrimSpace(start); start != "" {
		d, err := civil.ParseDate(start)
		if err != nil {
			return Window{}, fmt.Errorf("start %q: %w", start, ErrInvalidDate)
		}
		w.Start = d
	}

	if maxDays > 0 && w.Days() > maxDays {
		return Window{}, fmt.Errorf("%w: %d days exceeds %d", ErrWindowTooLong, w.Days(), maxDays)
	}
	return w, nil
}

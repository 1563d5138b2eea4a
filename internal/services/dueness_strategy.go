// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for interest dueness checking.
// Each compounding frequency has its own strategy deciding whether a savings
// account is owed another payout.
package services

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DuenessChecker is the strategy interface for checking if interest is due.
type DuenessChecker interface {
	// IsDue reports whether a payout should be posted at now, given the time
	// of the previous payout (or account creation) and the day payouts are
	// anchored to.
	IsDue(last, now time.Time, anchor civil.Date) bool
}

// DailyChecker pays once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(last, now time.Time, _ civil.Date) bool {
	return civil.DateOf(now.UTC()).After(civil.DateOf(last.UTC()))
}

// DayIntervalChecker pays every Days calendar days.
type DayIntervalChecker struct {
	Days int
}

func (c DayIntervalChecker) IsDue(last, now time.Time, _ civil.Date) bool {
	days := c.Days
	if days < 1 {
		days = 1
	}
	return civil.DateOf(now.UTC()).DaysSince(civil.DateOf(last.UTC())) >= days
}

// MonthIntervalChecker pays every Months months on the anchor's day of the
// month, clamped to the last day of shorter months.
type MonthIntervalChecker struct {
	Months int
}

func (c MonthIntervalChecker) IsDue(last, now time.Time, anchor civil.Date) bool {
	last, now = last.UTC(), now.UTC()
	elapsed := (now.Year()-last.Year())*12 + int(now.Month()) - int(last.Month())
	if elapsed < c.Months {
		return false
	}
	if elapsed > c.Months {
		return true
	}

	targetDay := anchor.Day
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return now.Day() >= targetDay
}

// duenessStrategies maps the common compounding frequencies (payouts per
// year) to their checkers.
var duenessStrategies = map[int]DuenessChecker{
	365: DailyChecker{},
	52:  DayIntervalChecker{Days: 7},
	12:  MonthIntervalChecker{Months: 1},
	4:   MonthIntervalChecker{Months: 3},
	2:   MonthIntervalChecker{Months: 6},
	1:   MonthIntervalChecker{Months: 12},
}

// GetDuenessChecker returns the checker for a compounding frequency. Unusual
// frequencies fall back to an even split of the year into day intervals.
func GetDuenessChecker(compounding int) (DuenessChecker, error) {
	if checker, ok := duenessStrategies[compounding]; ok {
		return checker, nil
	}
	if compounding < 1 || compounding > 365 {
		return nil, fmt.Errorf("unsupported compounding frequency: %d", compounding)
	}
	return DayIntervalChecker{Days: 365 / compounding}, nil
}

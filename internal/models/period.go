package models

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for calendar days.
	DateLayout = "2006-01-02"
	// PeriodLayout is the wire format for billing periods.
	PeriodLayout = "2006-01"
)

// Period is a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod validates and builds a period.
func NewPeriod(year, month int) (Period, error) {
	if year < 2000 || year > 2100 {
		return Period{}, fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month %d out of range", month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// ParsePeriod parses YYYY-MM.
func ParsePeriod(raw string) (Period, error) {
	t, err := time.Parse(PeriodLayout, raw)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q, expected YYYY-MM", raw)
	}
	return NewPeriod(t.Year(), int(t.Month()))
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start is the first day of the month at UTC midnight.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last calendar day of the month at UTC midnight.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains reports whether the day of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.Start()) && !d.After(p.End())
}

// Key formats the period as YYYY-MM.
func (p Period) Key() string {
	return p.Start().Format(PeriodLayout)
}

// Compact formats the period as YYYYMM.
func (p Period) Compact() string {
	return p.Start().Format("200601")
}

func (p Period) String() string {
	return p.Key()
}

// Day truncates t to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats the calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

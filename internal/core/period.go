package core

import (
	"fmt"
	"time"
)

// DateLayout is the persisted and wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	return nil
}

// AddDays returns the date n days later (or earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// EvaluationMonth is the most recently completed calendar month relative to now.
// Invoked on 2024-07-01 it returns 2024-06; on 2024-01-15 it returns 2023-12.
func EvaluationMonth(now time.Time) Month {
	return MonthOf(now).Previous()
}

// AddMonths shifts t by n calendar months, clamping the day to the end of the
// target month: 31 May minus three months is 29 Feb in a leap year.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	return time.Date(first.Year(), first.Month(), min(t.Day(), last),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// First returns the first day of the month.
func (m Month) First() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// Previous returns the month before m.
func (m Month) Previous() Month {
	t := m.First().AddDate(0, -1, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Next returns the month after m.
func (m Month) Next() Month {
	t := m.First().AddDate(0, 1, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String returns the YYYY-MM form used for storage and cache keys.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label returns a human readable form such as "June 2024".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

// Window is a half-open range of calendar days [From, To).
// A zero bound is unbounded on that side.
type Window struct {
	From Date
	To   Date
}

// Lifetime matches every movement.
func Lifetime() Window {
	return Window{}
}

// MonthWindow covers exactly one calendar month.
func MonthWindow(m Month) Window {
	return Window{From: m.First(), To: m.Next().First()}
}

// DateRange covers from..to with both ends inclusive.
func DateRange(from, to Date) Window {
	return Window{From: from, To: to.AddDays(1)}
}

// LastNDays covers the n calendar days ending today, today included.
func LastNDays(now time.Time, n int) Window {
	today := DateOf(now)
	return Window{From: today.AddDays(-(n - 1)), To: today.AddDays(1)}
}

// Validate rejects windows whose upper bound is not after the lower bound.
func (w Window) Validate() error {
	if !w.From.IsZero() && !w.To.IsZero() && !w.To.After(w.From.Time) {
		return ErrInvalidWindow
	}
	return nil
}

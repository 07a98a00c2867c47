package core

import (
	"testing"
	"time"
)

func TestEvaluationMonth(t *testing.T) {
	tests := []struct {
		now  time.Time
		want Month
	}{
		{time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC), Month{2024, time.June}},
		{time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), Month{2023, time.December}},
		{time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), Month{2024, time.February}},
	}
	for _, tt := range tests {
		t.Run(tt.now.Format(time.RFC3339), func(t *testing.T) {
			if got := EvaluationMonth(tt.now); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMonthHelpers(t *testing.T) {
	m, err := ParseMonth("2024-12")
	if err != nil {
		t.Fatal(err)
	}
	if m.Next() != (Month{2025, time.January}) {
		t.Fatalf("unexpected next month %s", m.Next())
	}
	if m.String() != "2024-12" || m.Label() != "December 2024" {
		t.Fatalf("unexpected formatting %s / %s", m.String(), m.Label())
	}
	if !m.Previous().Before(m) || m.Before(m) {
		t.Fatal("Before should be strict")
	}
	if _, err := ParseMonth("2024-13"); err == nil {
		t.Fatal("expected error for month 13")
	}
}

func TestWindows(t *testing.T) {
	june := MonthWindow(Month{2024, time.June})
	if june.From != NewDate(2024, 6, 1) || june.To != NewDate(2024, 7, 1) {
		t.Fatalf("unexpected month window %v..%v", june.From, june.To)
	}

	r := DateRange(NewDate(2024, 6, 3), NewDate(2024, 6, 3))
	if r.From != NewDate(2024, 6, 3) || r.To != NewDate(2024, 6, 4) {
		t.Fatalf("single-day range should cover that day, got %v..%v", r.From, r.To)
	}

	last := LastNDays(time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC), 7)
	if last.From != NewDate(2024, 6, 4) || last.To != NewDate(2024, 6, 11) {
		t.Fatalf("unexpected last-7-days window %v..%v", last.From, last.To)
	}

	if err := Lifetime().Validate(); err != nil {
		t.Fatalf("lifetime should be valid: %v", err)
	}
	if err := DateRange(NewDate(2024, 6, 5), NewDate(2024, 6, 1)).Validate(); err == nil {
		t.Fatal("reversed range should be invalid")
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`"2024-06-30"`)); err != nil {
		t.Fatal(err)
	}
	if d != NewDate(2024, 6, 30) {
		t.Fatalf("unexpected date %v", d)
	}
	b, _ := d.MarshalJSON()
	if string(b) != `"2024-06-30"` {
		t.Fatalf("unexpected encoding %s", b)
	}
	if err := d.UnmarshalJSON([]byte(`"30/06/2024"`)); err == nil {
		t.Fatal("expected error for foreign layout")
	}
}

package core

// MonthSummary is a compact ledger overview for one group and calendar month.
type MonthSummary struct {
	Month       Month
	Earnings    Money
	Expenses    Money
	Investments Money
}

// Net is earnings minus expenses. Investments do not count against it.
func (s MonthSummary) Net() Money {
	return s.Earnings.Sub(s.Expenses)
}

// PeriodTotals aggregates every movement type over an arbitrary window.
type PeriodTotals struct {
	Window      Window
	Earnings    Money
	Expenses    Money
	Investments Money
}

package recurring

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pocket-ledger/generic"
)

// UpcomingWindow is how many days ahead a monthly expense counts as upcoming.
const UpcomingWindow = 7

var twelve = decimal.NewFromInt(12)

// Totals is the cost of a set of expenses expressed per period.
type Totals struct {
	Monthly         decimal.Decimal
	Yearly          decimal.Decimal
	YearlyAsMonthly decimal.Decimal // Yearly / 12, rounded half-up to cents
	MonthlyCount    int
	YearlyCount     int
}

// EffectiveMonthly is what the set costs per month once yearly bills are
// spread over twelve months.
func (t Totals) EffectiveMonthly() decimal.Decimal {
	return t.Monthly.Add(t.YearlyAsMonthly)
}

// Summary partitions expenses by recurrence and projects what is due soon.
type Summary struct {
	Monthly []Expense
	Yearly  []Expense
	Totals  Totals

	UpcomingMonthly []Expense
	UpcomingYearly  []Expense
}

// Summarize is pure: the same expenses and day give the same summary.
// Input order is preserved inside each partition.
func Summarize(expenses []Expense, today time.Time) Summary {
	var s Summary
	var monthly, yearly []decimal.Decimal

	for _, e := range expenses {
		switch e.Recurrence {
		case Monthly:
			s.Monthly = append(s.Monthly, e)
			monthly = append(monthly, e.Amount)
			if dueWithin(e, today) {
				s.UpcomingMonthly = append(s.UpcomingMonthly, e)
			}
		case Yearly:
			s.Yearly = append(s.Yearly, e)
			yearly = append(yearly, e.Amount)
			if e.DueMonth != nil && *e.DueMonth == int(today.Month()) {
				s.UpcomingYearly = append(s.UpcomingYearly, e)
			}
		}
	}

	s.Totals = Totals{
		Monthly:      generic.SumAmounts(monthly...),
		Yearly:       generic.SumAmounts(yearly...),
		MonthlyCount: len(s.Monthly),
		YearlyCount:  len(s.Yearly),
	}
	s.Totals.YearlyAsMonthly = s.Totals.Yearly.Div(twelve).Round(generic.AmountScale)
	return s
}

// dueWithin does not wrap around the month end: on the 25th an expense due
// on the 2nd is not upcoming.
func dueWithin(e Expense, today time.Time) bool {
	if e.DueDay == nil {
		return false
	}
	days := *e.DueDay - today.Day()
	return days >= 0 && days <= UpcomingWindow
}

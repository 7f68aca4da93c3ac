package recurring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pocket-ledger/generic"
)

func intp(v int) *int { return &v }

func expense(name string, r Recurrence, amount string, dueDay, dueMonth *int) Expense {
	return Expense{
		ID:         ExpenseID(name),
		Name:       name,
		Recurrence: r,
		Amount:     decimal.RequireFromString(amount),
		DueDay:     dueDay,
		DueMonth:   dueMonth,
		IsActive:   true,
	}
}

func names(expenses []Expense) []string {
	out := []string{}
	for _, e := range expenses {
		out = append(out, e.Name)
	}
	return out
}

func TestSummarize_TotalsAndEffectiveMonthly(t *testing.T) {
	expenses := []Expense{
		expense("netflix", Monthly, "55.90", intp(10), nil),
		expense("rent", Monthly, "1500.00", intp(5), nil),
		expense("ipva", Yearly, "1200.00", intp(15), intp(2)),
		expense("domain", Yearly, "100.00", nil, intp(7)),
	}

	s := Summarize(expenses, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, []string{"netflix", "rent"}, names(s.Monthly))
	assert.Equal(t, []string{"ipva", "domain"}, names(s.Yearly))
	assert.Equal(t, "1555.90", generic.FormatAmount(s.Totals.Monthly))
	assert.Equal(t, "1300.00", generic.FormatAmount(s.Totals.Yearly))
	// 1300 / 12 = 108.333... rounds to 108.33
	assert.Equal(t, "108.33", generic.FormatAmount(s.Totals.YearlyAsMonthly))
	assert.Equal(t, "1664.23", generic.FormatAmount(s.Totals.EffectiveMonthly()))
	assert.Equal(t, 2, s.Totals.MonthlyCount)
	assert.Equal(t, 2, s.Totals.YearlyCount)
}

func TestSummarize_YearlyAsMonthly_RoundsHalfUp(t *testing.T) {
	// 0.30 / 12 = 0.025 exactly
	s := Summarize([]Expense{expense("x", Yearly, "0.30", nil, nil)}, time.Now())
	assert.Equal(t, "0.03", generic.FormatAmount(s.Totals.YearlyAsMonthly))
}

func TestSummarize_EffectiveMonthlyIsIdempotent(t *testing.T) {
	expenses := []Expense{
		expense("a", Monthly, "10.01", nil, nil),
		expense("b", Yearly, "99.99", nil, nil),
	}
	today := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	first := Summarize(expenses, today).Totals.EffectiveMonthly()
	second := Summarize(expenses, today).Totals.EffectiveMonthly()
	assert.True(t, first.Equal(second))
}

func TestSummarize_UpcomingMonthly_WindowWithoutWrap(t *testing.T) {
	today := time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dueDay   *int
		upcoming bool
	}{
		{"due today", intp(25), true},
		{"due in 3 days", intp(28), true},
		{"due next month on the 2nd", intp(2), false},
		{"already past", intp(24), false},
		{"no due day", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize([]Expense{expense("e", Monthly, "1.00", tt.dueDay, nil)}, today)
			assert.Equal(t, tt.upcoming, len(s.UpcomingMonthly) == 1)
		})
	}
}

func TestSummarize_UpcomingMonthly_SevenDayBoundary(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	s := Summarize([]Expense{
		expense("in-7", Monthly, "1.00", intp(17), nil),
		expense("in-8", Monthly, "1.00", intp(18), nil),
	}, today)

	assert.Equal(t, []string{"in-7"}, names(s.UpcomingMonthly))
}

func TestSummarize_UpcomingYearly_ByMonth(t *testing.T) {
	today := time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC)

	s := Summarize([]Expense{
		expense("march", Yearly, "1.00", nil, intp(3)),
		expense("april", Yearly, "1.00", intp(1), intp(4)),
		expense("unset", Yearly, "1.00", nil, nil),
	}, today)

	assert.Equal(t, []string{"march"}, names(s.UpcomingYearly))
}

// =============================================================================
// VALIDATION
// =============================================================================

func validInput() ExpenseInput {
	amount := decimal.RequireFromString("55.90")
	return ExpenseInput{
		Name:          "Netflix",
		Amount:        &amount,
		Recurrence:    "monthly",
		PaymentMethod: "credit_card",
		DueDay:        intp(10),
		StartDate:     "2025-01-01",
	}
}

func TestExpenseInput_Defaults(t *testing.T) {
	in := validInput()
	in.DueMonth = intp(3)

	var e Expense
	require.NoError(t, in.Apply(&e))
	assert.Equal(t, "BRL", e.Currency)
	assert.Equal(t, CategoryOther, e.Category)
	assert.True(t, e.IsActive)
	assert.Nil(t, e.DueMonth, "due month is dropped for monthly expenses")
}

func TestExpenseInput_Rejections(t *testing.T) {
	end := "2024-12-31"
	tests := []struct {
		name   string
		mutate func(*ExpenseInput)
		field  string
	}{
		{"missing name", func(in *ExpenseInput) { in.Name = "  " }, "name"},
		{"missing amount", func(in *ExpenseInput) { in.Amount = nil }, "amount"},
		{"unknown category", func(in *ExpenseInput) { in.Category = "food" }, "category"},
		{"unknown recurrence", func(in *ExpenseInput) { in.Recurrence = "weekly" }, "recurrence"},
		{"unknown method", func(in *ExpenseInput) { in.PaymentMethod = "cheque" }, "payment_method"},
		{"due day 0", func(in *ExpenseInput) { in.DueDay = intp(0) }, "due_day"},
		{"due day 32", func(in *ExpenseInput) { in.DueDay = intp(32) }, "due_day"},
		{"yearly due month 13", func(in *ExpenseInput) { in.Recurrence = "yearly"; in.DueMonth = intp(13) }, "due_month"},
		{"end before start", func(in *ExpenseInput) { in.EndDate = &end }, "end_date"},
		{"relative url", func(in *ExpenseInput) { in.URL = "netflix.com" }, "url"},
		{"ftp url", func(in *ExpenseInput) { in.URL = "ftp://netflix.com" }, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			var e Expense
			err := in.Apply(&e)
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, e.Name, "expense must be untouched on error")
		})
	}
}

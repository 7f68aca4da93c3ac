/*
Package recurring keeps track of bills that come back every month or year.

PURPOSE:
  A recurring expense is a rule, not an event: "Netflix, 55.90, due on the
  10th of every month". Nothing here records that a bill was actually paid.
  The package answers what the rules cost per month and which of them are
  due soon.

KEY CONCEPTS IN THIS FILE (types.go):
  - Expense: a single recurrence rule owned by one user
  - Category / Recurrence: closed enumerations
  - ExpenseInput: client-supplied fields, validated into an Expense

DUE DATES:
  DueDay (1-31) applies to both recurrences. DueMonth (1-12) only means
  something for yearly expenses and is dropped for monthly ones.

SEE ALSO:
  - summary.go: Totals and upcoming-due projection
  - planner.go: Ownership-scoped operations over a Store
*/
package recurring

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pocket-ledger/generic"
)

type ExpenseID string

// =============================================================================
// ENUMERATIONS
// =============================================================================

type Category string

const (
	CategorySubscription Category = "subscription"
	CategoryUtility      Category = "utility"
	CategoryInsurance    Category = "insurance"
	CategoryRent         Category = "rent"
	CategoryLoanPayment  Category = "loan_payment"
	CategoryMembership   Category = "membership"
	CategoryEducation    Category = "education"
	CategoryTransport    Category = "transport"
	CategoryOther        Category = "other"
)

var categories = map[Category]bool{
	CategorySubscription: true,
	CategoryUtility:      true,
	CategoryInsurance:    true,
	CategoryRent:         true,
	CategoryLoanPayment:  true,
	CategoryMembership:   true,
	CategoryEducation:    true,
	CategoryTransport:    true,
	CategoryOther:        true,
}

// ParseCategory defaults to CategoryOther when s is empty.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !categories[c] {
		return "", generic.Invalid("category", "is not a known category")
	}
	return c, nil
}

type Recurrence string

const (
	Monthly Recurrence = "monthly"
	Yearly  Recurrence = "yearly"
)

func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(s) {
	case Monthly, Yearly:
		return Recurrence(s), nil
	}
	return "", generic.Invalid("recurrence", "must be %q or %q", Monthly, Yearly)
}

// =============================================================================
// EXPENSE
// =============================================================================

type Expense struct {
	ID            ExpenseID
	UserID        generic.UserID
	Name          string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	Category      Category
	Recurrence    Recurrence
	PaymentMethod generic.PaymentMethod
	DueDay        *int
	DueMonth      *int
	StartDate     time.Time
	EndDate       *time.Time
	IsActive      bool
	Notes         string
	URL           string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExpenseInput is the client-facing shape of an expense. Create and update
// both take the full set of fields.
type ExpenseInput struct {
	Name          string
	Description   string
	Amount        *decimal.Decimal
	Currency      string
	Category      string
	Recurrence    string
	PaymentMethod string
	DueDay        *int
	DueMonth      *int
	StartDate     string
	EndDate       *string
	IsActive      *bool // nil means active
	Notes         string
	URL           string
}

// Apply validates in and copies it onto e. e is left untouched on error.
func (in ExpenseInput) Apply(e *Expense) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return generic.Invalid("name", "is required")
	}
	amount, err := generic.ParseAmount("amount", in.Amount)
	if err != nil {
		return err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "BRL"
	} else if len(currency) != 3 {
		return generic.Invalid("currency", "must be a 3-letter code")
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return err
	}
	recurrence, err := ParseRecurrence(in.Recurrence)
	if err != nil {
		return err
	}
	method, err := generic.ParsePaymentMethod("payment_method", in.PaymentMethod)
	if err != nil {
		return err
	}

	if in.DueDay != nil && (*in.DueDay < 1 || *in.DueDay > 31) {
		return generic.Invalid("due_day", "must be between 1 and 31")
	}
	dueMonth := in.DueMonth
	if recurrence == Monthly {
		dueMonth = nil
	} else if dueMonth != nil && (*dueMonth < 1 || *dueMonth > 12) {
		return generic.Invalid("due_month", "must be between 1 and 12")
	}

	start, err := generic.ParseDate("start_date", in.StartDate)
	if err != nil {
		return err
	}
	end, err := generic.ParseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return err
	}
	if end != nil && end.Before(start) {
		return generic.Invalid("end_date", "must not be before start_date")
	}

	link := strings.TrimSpace(in.URL)
	if link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return generic.Invalid("url", "must be an absolute http(s) URL")
		}
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	e.Name = name
	e.Description = in.Description
	e.Amount = amount
	e.Currency = currency
	e.Category = category
	e.Recurrence = recurrence
	e.PaymentMethod = method
	e.DueDay = in.DueDay
	e.DueMonth = dueMonth
	e.StartDate = start
	e.EndDate = end
	e.IsActive = active
	e.Notes = in.Notes
	e.URL = link
	return nil
}

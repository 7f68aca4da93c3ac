/*
Package generic provides the primitives shared by every finance domain.

PURPOSE:
  The ledger (people, transactions, loans) and the recurring-expense
  planner are separate domains, but both deal in money, dates, payment
  methods and the same error taxonomy. Those shared pieces live here so the
  domain packages never disagree on how an amount is validated or how a
  missing entity is reported.

KEY CONCEPTS IN THIS FILE (types.go):
  - UserID: the acting user, threaded explicitly through every operation
  - Amount parsing/validation: exact decimals, never float64
  - PaymentMethod: closed enumeration used by expenses and loan payments

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money is touched
  2. Type Safety: typed IDs and enums instead of bare strings
  3. Explicit Identity: the acting user is a parameter, never ambient state

SEE ALSO:
  - errors.go: Error taxonomy mapped to HTTP status codes
  - time.go: Date parsing and calendar helpers
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// UserID identifies the owner of every other entity.
type UserID string

// =============================================================================
// AMOUNT - Fixed-point money
// =============================================================================

const (
	// AmountScale is the number of fractional digits money is kept at.
	AmountScale = 2

	// maxAmountDigits bounds the integer part (numeric(10,2) in the schema).
	maxAmountDigits = 8
)

var maxAmount = decimal.New(1, maxAmountDigits)

// ParseAmount validates a monetary input. The amount must be strictly
// positive, carry at most two fractional digits and fit numeric(10,2).
func ParseAmount(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Zero, Invalid(field, "is required")
	}
	if !d.IsPositive() {
		return decimal.Zero, Invalid(field, "must be a positive number")
	}
	if !d.Equal(d.Round(AmountScale)) {
		return decimal.Zero, Invalid(field, "must have at most 2 decimal places")
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, Invalid(field, "is too large")
	}
	return d.Round(AmountScale), nil
}

// MustParseDecimal parses a stored decimal string, returning zero on
// malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders money with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}

// SumAmounts folds a slice of amounts. Order does not matter.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// =============================================================================
// PAYMENT METHOD
// =============================================================================

type PaymentMethod string

const (
	MethodPix            PaymentMethod = "pix"
	MethodCreditCard     PaymentMethod = "credit_card"
	MethodDebitCard      PaymentMethod = "debit_card"
	MethodBoleto         PaymentMethod = "boleto"
	MethodAutomaticDebit PaymentMethod = "automatic_debit"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
	MethodCash           PaymentMethod = "cash"
	MethodOther          PaymentMethod = "other"
)

var paymentMethods = map[PaymentMethod]bool{
	MethodPix:            true,
	MethodCreditCard:     true,
	MethodDebitCard:      true,
	MethodBoleto:         true,
	MethodAutomaticDebit: true,
	MethodBankTransfer:   true,
	MethodCash:           true,
	MethodOther:          true,
}

// ParsePaymentMethod validates a payment method value.
func ParsePaymentMethod(field, s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !paymentMethods[m] {
		return "", Invalid(field, "must be one of pix, credit_card, debit_card, boleto, automatic_debit, bank_transfer, cash, other")
	}
	return m, nil
}

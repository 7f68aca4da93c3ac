/*
balance.go - Balance derivation from ledger events

PURPOSE:
  Answers "who owes whom, and how much?" by folding events. There is no
  stored running balance anywhere: every read replays the full event set,
  so there is nothing that can drift out of sync.

SIGN CONVENTION:
  Positive balance = the person owes the user.
  Negative balance = the user owes the person.

TRANSACTION FOLD:
  balance = Σ(amount | type = lent) - Σ(amount | type = received),
  skipping disregarded transactions.

LOAN FOLD:
  For each unsettled loan: remaining = amount - Σ(payments), contributing
  +remaining when lent and -remaining when borrowed. Remaining is clamped at
  zero, so an overpaid loan never turns into a credit.

DETERMINISM:
  All arithmetic is decimal.Decimal addition, which is associative and
  commutative. Event order never changes the result.
*/
package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/warp/pocket-ledger/generic"
)

// =============================================================================
// TRANSACTION MODEL
// =============================================================================

// Balance folds a person's transactions into a signed balance.
func Balance(txs []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Signed())
	}
	return balance
}

// =============================================================================
// LOAN MODEL
// =============================================================================

// TotalPaid sums every payment recorded against the loan.
func (l Loan) TotalPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range l.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Remaining is what is still owed on the loan, never below zero.
func (l Loan) Remaining() decimal.Decimal {
	remaining := l.Amount.Sub(l.TotalPaid())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsSettled reports whether payments cover the principal. It is derived on
// every call; there is no stored flag to fall out of step with payments.
func (l Loan) IsSettled() bool {
	return l.TotalPaid().GreaterThanOrEqual(l.Amount)
}

// Signed returns the loan's contribution to the person balance.
func (l Loan) Signed() decimal.Decimal {
	if l.IsSettled() {
		return decimal.Zero
	}
	if l.Direction == LoanBorrowed {
		return l.Remaining().Neg()
	}
	return l.Remaining()
}

// LoanBalance folds loans into a signed balance.
func LoanBalance(loans []Loan) decimal.Decimal {
	balance := decimal.Zero
	for _, l := range loans {
		balance = balance.Add(l.Signed())
	}
	return balance
}

// =============================================================================
// GLOBAL TOTALS
// =============================================================================

// Totals aggregates signed balances across people.
type Totals struct {
	TheyOweMe decimal.Decimal // Σ positive parts
	IOweThem  decimal.Decimal // Σ |negative parts|
}

// Net is what the user is owed after netting what they owe.
func (t Totals) Net() decimal.Decimal {
	return t.TheyOweMe.Sub(t.IOweThem)
}

// SumTotals splits balances into positive and negative parts and sums each.
func SumTotals(balances []decimal.Decimal) Totals {
	var owed, owing []decimal.Decimal
	for _, b := range balances {
		switch b.Sign() {
		case 1:
			owed = append(owed, b)
		case -1:
			owing = append(owing, b.Abs())
		}
	}
	return Totals{
		TheyOweMe: generic.SumAmounts(owed...),
		IOweThem:  generic.SumAmounts(owing...),
	}
}

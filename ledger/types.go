/*
Package ledger tracks money moving between the user and the people they
lend to or borrow from.

PURPOSE:
  Two record shapes live here:
  - Transaction: a unified signed event (lent | received) that can be
    disregarded without being deleted. Person balances are folded from these.
  - Loan + Payment: a principal with partial repayments. Settlement and the
    remaining amount are derived from the payment history, never stored.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person: owned by exactly one user, root of everything below it
  - TxType: tagged variant {lent, received}; nothing else is representable
  - LoanDirection: {lent, borrowed}
  - Direction: presentation of a signed balance (they_owe_me, i_owe_them, settled)

OWNERSHIP CHAIN:
  User -> Person -> Transaction / Loan -> Payment
  Every read and write below User resolves this chain against the acting
  user before touching data; a miss is generic.ErrNotFound.

SEE ALSO:
  - balance.go: Pure folds from events to balances
  - book.go: Ownership-checked operations over a Store
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pocket-ledger/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type TransactionID string
type LoanID string
type PaymentID string

// =============================================================================
// PERSON
// =============================================================================

type Person struct {
	ID           PersonID
	UserID       generic.UserID
	Name         string
	Nickname     string
	Email        string
	Phone        string
	Relationship string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// =============================================================================
// TRANSACTION - Signed ledger event
// =============================================================================

type TxType string

const (
	TxLent     TxType = "lent"     // I gave money, they owe me
	TxReceived TxType = "received" // They gave money back (or to me)
)

// ParseTxType rejects anything outside the closed {lent, received} set.
func ParseTxType(s string) (TxType, error) {
	switch TxType(s) {
	case TxLent, TxReceived:
		return TxType(s), nil
	}
	return "", generic.Invalid("type", "must be %q or %q", TxLent, TxReceived)
}

type Transaction struct {
	ID          TransactionID
	PersonID    PersonID
	Type        TxType
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Disregarded bool
	CreatedAt   time.Time
}

// Signed returns the contribution of tx to its person's balance.
// Disregarded transactions contribute nothing.
func (tx Transaction) Signed() decimal.Decimal {
	if tx.Disregarded {
		return decimal.Zero
	}
	if tx.Type == TxReceived {
		return tx.Amount.Neg()
	}
	return tx.Amount
}

// =============================================================================
// LOAN + PAYMENT
// =============================================================================

type LoanDirection string

const (
	LoanLent     LoanDirection = "lent"     // I lent money TO this person
	LoanBorrowed LoanDirection = "borrowed" // I borrowed money FROM this person
)

// ParseLoanDirection validates a loan direction.
func ParseLoanDirection(s string) (LoanDirection, error) {
	switch LoanDirection(s) {
	case LoanLent, LoanBorrowed:
		return LoanDirection(s), nil
	}
	return "", generic.Invalid("direction", "must be %q or %q", LoanLent, LoanBorrowed)
}

type Loan struct {
	ID                 LoanID
	PersonID           PersonID
	Direction          LoanDirection
	Amount             decimal.Decimal
	Currency           string
	Reason             string
	TransactionDate    time.Time
	ExpectedSettlement *time.Time
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Loaded alongside the loan; newest first.
	Person   *Person
	Payments []Payment
}

// Payment is immutable once recorded. It disappears only with its loan.
type Payment struct {
	ID        PaymentID
	LoanID    LoanID
	Amount    decimal.Decimal
	PaidAt    time.Time
	Method    generic.PaymentMethod // empty when not given
	Notes     string
	CreatedAt time.Time
}

// =============================================================================
// DIRECTION - Presentation of a signed balance
// =============================================================================

type Direction string

const (
	TheyOweMe Direction = "they_owe_me"
	IOweThem  Direction = "i_owe_them"
	Settled   Direction = "settled"
)

// DirectionOf classifies a signed balance (positive = they owe me).
func DirectionOf(balance decimal.Decimal) Direction {
	switch balance.Sign() {
	case 1:
		return TheyOweMe
	case -1:
		return IOweThem
	default:
		return Settled
	}
}

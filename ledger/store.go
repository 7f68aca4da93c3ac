/*
store.go - Persistence interface for the ledger

PURPOSE:
  Defines the interface between ledger logic and the database. Every method
  that reads or changes an existing entity takes the acting user and resolves
  the ownership chain inside the query, so "verify ownership" and "act" are a
  single statement.

OWNERSHIP CONTRACT:
  - A row that exists but belongs to another user is indistinguishable from
    a missing row: both return generic.ErrNotFound.
  - Create methods trust the IDs they are given; callers (Book) verify the
    parent is owned first, inside the same WithTx.

ATOMIC OPERATIONS:
  TxStore.WithTx runs a function against a transaction-bound Store. If the
  function returns an error everything it wrote is rolled back. Book uses it
  for payment+settlement and for inline person+loan creation.

IMPLEMENTATIONS:
  - store/sqlite: SQLite via database/sql
*/
package ledger

import (
	"context"
	"time"

	"github.com/warp/pocket-ledger/generic"
)

// LoanFilter narrows ListLoans. Zero values mean "no filter".
// Settlement is derived from payments, so "active only" is applied by Book
// after loading rather than in the query.
type LoanFilter struct {
	PersonID  PersonID
	Direction LoanDirection
}

// Store handles persistence of people, transactions, loans and payments.
type Store interface {
	// People
	CreatePerson(ctx context.Context, p *Person) error
	GetPerson(ctx context.Context, userID generic.UserID, id PersonID) (*Person, error)
	ListPeople(ctx context.Context, userID generic.UserID) ([]Person, error)
	UpdatePerson(ctx context.Context, p *Person) error
	TouchPerson(ctx context.Context, userID generic.UserID, id PersonID, at time.Time) error
	DeletePerson(ctx context.Context, userID generic.UserID, id PersonID) error

	// Transactions
	AppendTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, userID generic.UserID, personID PersonID) ([]Transaction, error)
	ListUserTransactions(ctx context.Context, userID generic.UserID) ([]Transaction, error)
	SetDisregarded(ctx context.Context, userID generic.UserID, personID PersonID, id TransactionID, disregarded bool) (*Transaction, error)

	// Loans (returned with Person and Payments loaded)
	CreateLoan(ctx context.Context, l *Loan) error
	GetLoan(ctx context.Context, userID generic.UserID, id LoanID) (*Loan, error)
	ListLoans(ctx context.Context, userID generic.UserID, filter LoanFilter) ([]Loan, error)
	UpdateLoan(ctx context.Context, userID generic.UserID, l *Loan) error
	DeleteLoan(ctx context.Context, userID generic.UserID, id LoanID) error

	// Payments (read back through GetLoan)
	AddPayment(ctx context.Context, p *Payment) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

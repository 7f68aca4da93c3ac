/*
book.go - Ownership-checked ledger operations

PURPOSE:
  Book is what the HTTP layer talks to. Each method takes the acting user
  explicitly, validates input, resolves ownership through the Store and
  returns derived views (balances, remaining, settlement) computed fresh
  from the full event set.

REQUEST FLOW:
  1. Validate input (generic.ValidationError on failure)
  2. Resolve the parent entity against the acting user (generic.ErrNotFound)
  3. Write, inside WithTx when more than one statement is involved
  4. Re-read and fold

ATOMIC BOUNDARIES:
  - RecordTransaction: ownership check + append + person updated_at
  - CreateLoan: inline person creation + loan insert (no orphaned person)
  - RecordPayment: ownership check + payment insert + settlement re-read

SEE ALSO:
  - balance.go: The folds used to build every view
  - store.go: Persistence contract
*/
package ledger

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pocket-ledger/generic"
)

// DefaultCurrency is used when a loan does not name one.
const DefaultCurrency = "BRL"

// =============================================================================
// BOOK
// =============================================================================

type Book struct {
	store TxStore
	now   func() time.Time
}

func NewBook(store TxStore) *Book {
	return &Book{store: store, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (b *Book) WithClock(now func() time.Time) *Book {
	b.now = now
	return b
}

// =============================================================================
// INPUTS
// =============================================================================

// PersonInput carries the editable fields of a person.
type PersonInput struct {
	Name         string
	Nickname     string
	Email        string
	Phone        string
	Relationship string
	Notes        string
}

func (in PersonInput) normalize(prefix string) (PersonInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return in, generic.Invalid(prefix+"name", "is required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return in, generic.Invalid(prefix+"email", "must be a valid email address")
		}
	}
	return in, nil
}

func (in PersonInput) apply(p *Person) {
	p.Name = in.Name
	p.Nickname = in.Nickname
	p.Email = in.Email
	p.Phone = in.Phone
	p.Relationship = in.Relationship
	p.Notes = in.Notes
}

// TransactionInput is a new ledger event for one person.
type TransactionInput struct {
	Type        string
	Amount      *decimal.Decimal
	Date        string
	Description string
}

// LoanInput creates or replaces a loan. On create, exactly one of PersonID
// or NewPerson identifies the counterparty; PersonID wins when both are set.
type LoanInput struct {
	PersonID           PersonID
	NewPerson          *PersonInput
	Direction          string
	Amount             *decimal.Decimal
	Currency           string
	Reason             string
	TransactionDate    string
	ExpectedSettlement *string
	Notes              string
}

func (in LoanInput) apply(l *Loan) error {
	direction, err := ParseLoanDirection(in.Direction)
	if err != nil {
		return err
	}
	amount, err := generic.ParseAmount("amount", in.Amount)
	if err != nil {
		return err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return generic.Invalid("reason", "is required")
	}
	date, err := generic.ParseDate("transaction_date", in.TransactionDate)
	if err != nil {
		return err
	}
	expected, err := generic.ParseOptionalDate("expected_settlement", in.ExpectedSettlement)
	if err != nil {
		return err
	}
	currency, err := parseCurrency(in.Currency)
	if err != nil {
		return err
	}

	l.Direction = direction
	l.Amount = amount
	l.Currency = currency
	l.Reason = reason
	l.TransactionDate = date
	l.ExpectedSettlement = expected
	l.Notes = in.Notes
	return nil
}

// PaymentInput records money paid against a loan.
type PaymentInput struct {
	Amount *decimal.Decimal
	PaidAt string
	Method string
	Notes  string
}

func parseCurrency(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultCurrency, nil
	}
	if len(s) != 3 {
		return "", generic.Invalid("currency", "must be a 3-letter code")
	}
	return s, nil
}

// =============================================================================
// VIEWS
// =============================================================================

// PersonLedger is a person with their full transaction history.
type PersonLedger struct {
	Person       Person
	Transactions []Transaction // newest first
	Balance      decimal.Decimal
}

func (p PersonLedger) Direction() Direction { return DirectionOf(p.Balance) }

// PersonSummary is one row of the people list.
type PersonSummary struct {
	Person           Person
	Balance          decimal.Decimal
	TransactionCount int
	OpenLoans        int
}

func (p PersonSummary) Direction() Direction { return DirectionOf(p.Balance) }

// PeopleOverview is the people list plus totals across all of them.
type PeopleOverview struct {
	People []PersonSummary // largest |balance| first
	Totals Totals
}

// Summary aggregates the whole ledger of one user.
type Summary struct {
	Ledger            Totals // from transactions
	PeopleWithBalance int

	Loans                 Totals // from open loans
	ActiveLoans           int
	PeopleWithActiveLoans int
}

// =============================================================================
// PEOPLE
// =============================================================================

// CreatePerson stamps the new person with the acting user.
func (b *Book) CreatePerson(ctx context.Context, userID generic.UserID, in PersonInput) (*Person, error) {
	in, err := in.normalize("")
	if err != nil {
		return nil, err
	}
	now := b.now()
	p := &Person{UserID: userID, CreatedAt: now, UpdatedAt: now}
	in.apply(p)
	if err := b.store.CreatePerson(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Person returns a person with their ledger and balance.
func (b *Book) Person(ctx context.Context, userID generic.UserID, id PersonID) (*PersonLedger, error) {
	p, err := b.store.GetPerson(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	txs, err := b.store.ListTransactions(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &PersonLedger{Person: *p, Transactions: txs, Balance: Balance(txs)}, nil
}

// People lists every person of the user with balances and global totals.
func (b *Book) People(ctx context.Context, userID generic.UserID) (*PeopleOverview, error) {
	people, err := b.store.ListPeople(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := b.store.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	loans, err := b.store.ListLoans(ctx, userID, LoanFilter{})
	if err != nil {
		return nil, err
	}

	byPerson := make(map[PersonID][]Transaction)
	for _, tx := range txs {
		byPerson[tx.PersonID] = append(byPerson[tx.PersonID], tx)
	}
	openLoans := make(map[PersonID]int)
	for _, l := range loans {
		if !l.IsSettled() {
			openLoans[l.PersonID]++
		}
	}

	overview := &PeopleOverview{People: make([]PersonSummary, 0, len(people))}
	balances := make([]decimal.Decimal, 0, len(people))
	for _, p := range people {
		personTxs := byPerson[p.ID]
		balance := Balance(personTxs)
		balances = append(balances, balance)
		overview.People = append(overview.People, PersonSummary{
			Person:           p,
			Balance:          balance,
			TransactionCount: len(personTxs),
			OpenLoans:        openLoans[p.ID],
		})
	}
	sort.SliceStable(overview.People, func(i, j int) bool {
		return overview.People[i].Balance.Abs().GreaterThan(overview.People[j].Balance.Abs())
	})
	overview.Totals = SumTotals(balances)
	return overview, nil
}

// UpdatePerson replaces the editable fields of an owned person.
func (b *Book) UpdatePerson(ctx context.Context, userID generic.UserID, id PersonID, in PersonInput) (*Person, error) {
	in, err := in.normalize("")
	if err != nil {
		return nil, err
	}
	var updated *Person
	err = b.store.WithTx(ctx, func(s Store) error {
		p, err := s.GetPerson(ctx, userID, id)
		if err != nil {
			return err
		}
		in.apply(p)
		p.UpdatedAt = b.now()
		if err := s.UpdatePerson(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	return updated, err
}

// DeletePerson removes a person and, through cascades, all of their history.
func (b *Book) DeletePerson(ctx context.Context, userID generic.UserID, id PersonID) error {
	return b.store.DeletePerson(ctx, userID, id)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// RecordTransaction appends a lent/received event to an owned person.
func (b *Book) RecordTransaction(ctx context.Context, userID generic.UserID, personID PersonID, in TransactionInput) (*Transaction, error) {
	var tx *Transaction
	err := b.store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetPerson(ctx, userID, personID); err != nil {
			return err
		}

		txType, err := ParseTxType(in.Type)
		if err != nil {
			return err
		}
		amount, err := generic.ParseAmount("amount", in.Amount)
		if err != nil {
			return err
		}
		date, err := generic.ParseDate("date", in.Date)
		if err != nil {
			return err
		}

		now := b.now()
		tx = &Transaction{
			PersonID:    personID,
			Type:        txType,
			Amount:      amount,
			Date:        date,
			Description: strings.TrimSpace(in.Description),
			CreatedAt:   now,
		}
		if err := s.AppendTransaction(ctx, tx); err != nil {
			return err
		}
		return s.TouchPerson(ctx, userID, personID, now)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SetDisregarded toggles whether a transaction counts toward the balance.
func (b *Book) SetDisregarded(ctx context.Context, userID generic.UserID, personID PersonID, id TransactionID, disregarded bool) (*Transaction, error) {
	return b.store.SetDisregarded(ctx, userID, personID, id, disregarded)
}

// =============================================================================
// LOANS
// =============================================================================

// CreateLoan records a loan, creating the counterparty inline when asked.
// The inline person and the loan are written in one transaction.
func (b *Book) CreateLoan(ctx context.Context, userID generic.UserID, in LoanInput) (*Loan, error) {
	if in.PersonID == "" && in.NewPerson == nil {
		return nil, generic.Invalid("person_id", "or person_name is required")
	}

	var created *Loan
	err := b.store.WithTx(ctx, func(s Store) error {
		now := b.now()
		personID := in.PersonID

		if personID == "" {
			pin, err := in.NewPerson.normalize("person_")
			if err != nil {
				return err
			}
			p := &Person{UserID: userID, CreatedAt: now, UpdatedAt: now}
			pin.apply(p)
			if err := s.CreatePerson(ctx, p); err != nil {
				return err
			}
			personID = p.ID
		} else if _, err := s.GetPerson(ctx, userID, personID); err != nil {
			return err
		}

		l := &Loan{PersonID: personID, CreatedAt: now, UpdatedAt: now}
		if err := in.apply(l); err != nil {
			return err
		}
		if err := s.CreateLoan(ctx, l); err != nil {
			return err
		}

		var err error
		created, err = s.GetLoan(ctx, userID, l.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Loan returns an owned loan with its person and payments.
func (b *Book) Loan(ctx context.Context, userID generic.UserID, id LoanID) (*Loan, error) {
	return b.store.GetLoan(ctx, userID, id)
}

// Loans lists loans, optionally only those not yet settled.
func (b *Book) Loans(ctx context.Context, userID generic.UserID, filter LoanFilter, activeOnly bool) ([]Loan, error) {
	loans, err := b.store.ListLoans(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return loans, nil
	}
	open := loans[:0]
	for _, l := range loans {
		if !l.IsSettled() {
			open = append(open, l)
		}
	}
	return open, nil
}

// UpdateLoan replaces the loan's fields. The counterparty never changes and
// settlement is not an input: it follows from amount and payments.
func (b *Book) UpdateLoan(ctx context.Context, userID generic.UserID, id LoanID, in LoanInput) (*Loan, error) {
	var updated *Loan
	err := b.store.WithTx(ctx, func(s Store) error {
		l, err := s.GetLoan(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := in.apply(l); err != nil {
			return err
		}
		l.UpdatedAt = b.now()
		if err := s.UpdateLoan(ctx, userID, l); err != nil {
			return err
		}
		updated, err = s.GetLoan(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLoan removes a loan together with its payments.
func (b *Book) DeleteLoan(ctx context.Context, userID generic.UserID, id LoanID) error {
	return b.store.DeleteLoan(ctx, userID, id)
}

// Payments returns the payments of an owned loan, newest first.
func (b *Book) Payments(ctx context.Context, userID generic.UserID, id LoanID) ([]Payment, error) {
	l, err := b.store.GetLoan(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return l.Payments, nil
}

// RecordPayment adds a payment and returns it with the re-read loan, whose
// settlement reflects the new payment sum.
func (b *Book) RecordPayment(ctx context.Context, userID generic.UserID, loanID LoanID, in PaymentInput) (*Payment, *Loan, error) {
	var (
		payment *Payment
		loan    *Loan
	)
	err := b.store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetLoan(ctx, userID, loanID); err != nil {
			return err
		}

		amount, err := generic.ParseAmount("amount", in.Amount)
		if err != nil {
			return err
		}
		paidAt, err := generic.ParseDate("paid_at", in.PaidAt)
		if err != nil {
			return err
		}
		var method generic.PaymentMethod
		if in.Method != "" {
			if method, err = generic.ParsePaymentMethod("method", in.Method); err != nil {
				return err
			}
		}

		payment = &Payment{
			LoanID:    loanID,
			Amount:    amount,
			PaidAt:    paidAt,
			Method:    method,
			Notes:     in.Notes,
			CreatedAt: b.now(),
		}
		if err := s.AddPayment(ctx, payment); err != nil {
			return err
		}

		loan, err = s.GetLoan(ctx, userID, loanID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, loan, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary folds every transaction and every open loan of the user.
func (b *Book) Summary(ctx context.Context, userID generic.UserID) (*Summary, error) {
	overview, err := b.People(ctx, userID)
	if err != nil {
		return nil, err
	}
	loans, err := b.Loans(ctx, userID, LoanFilter{}, true)
	if err != nil {
		return nil, err
	}

	s := &Summary{Ledger: overview.Totals, ActiveLoans: len(loans)}
	for _, p := range overview.People {
		if !p.Balance.IsZero() {
			s.PeopleWithBalance++
		}
	}

	perPerson := make(map[PersonID][]Loan)
	for _, l := range loans {
		perPerson[l.PersonID] = append(perPerson[l.PersonID], l)
	}
	balances := make([]decimal.Decimal, 0, len(perPerson))
	for _, personLoans := range perPerson {
		balances = append(balances, LoanBalance(personLoans))
	}
	s.Loans = SumTotals(balances)
	s.PeopleWithActiveLoans = len(perPerson)
	return s, nil
}

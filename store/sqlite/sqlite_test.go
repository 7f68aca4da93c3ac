package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
	"github.com/warp/pocket-ledger/recurring"
)

// StoreTestSuite runs every test against a fresh in-memory database.
type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
	alice generic.UserID
	bob   generic.UserID
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

// SetupTest runs before each test
func (suite *StoreTestSuite) SetupTest() {
	store, err := New(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.store = store
	suite.ctx = context.Background()
	suite.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	suite.alice = suite.createUser("alice")
	suite.bob = suite.createUser("bob")
}

// TearDownTest runs after each test
func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *StoreTestSuite) createUser(name string) generic.UserID {
	u := &auth.User{Username: name, PINHash: "hash", CreatedAt: suite.now}
	require.NoError(suite.T(), suite.store.CreateUser(suite.ctx, u))
	return u.ID
}

func (suite *StoreTestSuite) createPerson(owner generic.UserID, name string) *ledger.Person {
	p := &ledger.Person{UserID: owner, Name: name, CreatedAt: suite.now, UpdatedAt: suite.now}
	require.NoError(suite.T(), suite.store.CreatePerson(suite.ctx, p))
	return p
}

func (suite *StoreTestSuite) createLoan(person ledger.PersonID, amount string) *ledger.Loan {
	l := &ledger.Loan{
		PersonID:        person,
		Direction:       ledger.LoanLent,
		Amount:          decimal.RequireFromString(amount),
		Currency:        "BRL",
		Reason:          "rent",
		TransactionDate: suite.now,
		CreatedAt:       suite.now,
		UpdatedAt:       suite.now,
	}
	require.NoError(suite.T(), suite.store.CreateLoan(suite.ctx, l))
	return l
}

// =============================================================================
// USERS
// =============================================================================

func (suite *StoreTestSuite) TestUsers_LookupByNameAndID() {
	u, err := suite.store.GetUserByUsername(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.alice, u.ID)

	u, err = suite.store.GetUserByID(suite.ctx, suite.bob)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "bob", u.Username)
	assert.True(suite.T(), u.CreatedAt.Equal(suite.now))

	_, err = suite.store.GetUserByUsername(suite.ctx, "carol")
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound)
}

func (suite *StoreTestSuite) TestUsers_DuplicateUsernameIsValidationError() {
	err := suite.store.CreateUser(suite.ctx, &auth.User{Username: "alice", PINHash: "x", CreatedAt: suite.now})
	assert.True(suite.T(), generic.IsValidation(err), "got %v", err)
}

// =============================================================================
// PEOPLE + TRANSACTIONS
// =============================================================================

func (suite *StoreTestSuite) TestPeople_OwnershipIsolation() {
	ana := suite.createPerson(suite.alice, "Ana")

	_, err := suite.store.GetPerson(suite.ctx, suite.bob, ana.ID)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound)

	err = suite.store.DeletePerson(suite.ctx, suite.bob, ana.ID)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound)

	ana.UserID = suite.bob
	ana.Name = "Hijacked"
	err = suite.store.UpdatePerson(suite.ctx, ana)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound)

	people, err := suite.store.ListPeople(suite.ctx, suite.bob)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), people)

	got, err := suite.store.GetPerson(suite.ctx, suite.alice, ana.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Ana", got.Name)
}

func (suite *StoreTestSuite) TestTransactions_RoundTripAndOrdering() {
	ana := suite.createPerson(suite.alice, "Ana")

	for i, amount := range []string{"100.00", "40.00"} {
		tx := &ledger.Transaction{
			PersonID:  ana.ID,
			Type:      ledger.TxLent,
			Amount:    decimal.RequireFromString(amount),
			Date:      suite.now.AddDate(0, 0, i),
			CreatedAt: suite.now,
		}
		require.NoError(suite.T(), suite.store.AppendTransaction(suite.ctx, tx))
	}

	txs, err := suite.store.ListTransactions(suite.ctx, suite.alice, ana.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), txs, 2)
	assert.Equal(suite.T(), "40.00", generic.FormatAmount(txs[0].Amount), "newest first")
	assert.Equal(suite.T(), "100.00", generic.FormatAmount(txs[1].Amount))

	txs, err = suite.store.ListTransactions(suite.ctx, suite.bob, ana.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), txs)
}

func (suite *StoreTestSuite) TestTransactions_SetDisregardedChecksChain() {
	ana := suite.createPerson(suite.alice, "Ana")
	bia := suite.createPerson(suite.alice, "Bia")
	tx := &ledger.Transaction{
		PersonID: ana.ID, Type: ledger.TxLent,
		Amount: decimal.NewFromInt(10), Date: suite.now, CreatedAt: suite.now,
	}
	require.NoError(suite.T(), suite.store.AppendTransaction(suite.ctx, tx))

	_, err := suite.store.SetDisregarded(suite.ctx, suite.bob, ana.ID, tx.ID, true)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound, "other user")

	_, err = suite.store.SetDisregarded(suite.ctx, suite.alice, bia.ID, tx.ID, true)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound, "wrong person")

	got, err := suite.store.SetDisregarded(suite.ctx, suite.alice, ana.ID, tx.ID, true)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), got.Disregarded)
}

func (suite *StoreTestSuite) TestDeletePerson_CascadesToHistory() {
	ana := suite.createPerson(suite.alice, "Ana")
	loan := suite.createLoan(ana.ID, "50.00")
	require.NoError(suite.T(), suite.store.AddPayment(suite.ctx, &ledger.Payment{
		LoanID: loan.ID, Amount: decimal.NewFromInt(5), PaidAt: suite.now, CreatedAt: suite.now,
	}))
	require.NoError(suite.T(), suite.store.AppendTransaction(suite.ctx, &ledger.Transaction{
		PersonID: ana.ID, Type: ledger.TxLent, Amount: decimal.NewFromInt(1), Date: suite.now, CreatedAt: suite.now,
	}))

	require.NoError(suite.T(), suite.store.DeletePerson(suite.ctx, suite.alice, ana.ID))

	var count int
	require.NoError(suite.T(), suite.store.db.QueryRow("SELECT COUNT(*) FROM loan_payments").Scan(&count))
	assert.Zero(suite.T(), count)
	require.NoError(suite.T(), suite.store.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count))
	assert.Zero(suite.T(), count)
}

// =============================================================================
// LOANS + PAYMENTS
// =============================================================================

func (suite *StoreTestSuite) TestLoans_LoadPersonAndPayments() {
	ana := suite.createPerson(suite.alice, "Ana")
	loan := suite.createLoan(ana.ID, "200.00")
	for i, amount := range []string{"50.00", "150.00"} {
		require.NoError(suite.T(), suite.store.AddPayment(suite.ctx, &ledger.Payment{
			LoanID:    loan.ID,
			Amount:    decimal.RequireFromString(amount),
			PaidAt:    suite.now.AddDate(0, 0, i+1),
			Method:    generic.MethodPix,
			CreatedAt: suite.now,
		}))
	}

	got, err := suite.store.GetLoan(suite.ctx, suite.alice, loan.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), got.Person)
	assert.Equal(suite.T(), "Ana", got.Person.Name)
	require.Len(suite.T(), got.Payments, 2)
	assert.Equal(suite.T(), "150.00", generic.FormatAmount(got.Payments[0].Amount), "newest first")
	assert.Equal(suite.T(), generic.MethodPix, got.Payments[0].Method)
	assert.True(suite.T(), got.IsSettled())

	_, err = suite.store.GetLoan(suite.ctx, suite.bob, loan.ID)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound)
}

func (suite *StoreTestSuite) TestLoans_ListFilters() {
	ana := suite.createPerson(suite.alice, "Ana")
	bia := suite.createPerson(suite.alice, "Bia")
	suite.createLoan(ana.ID, "10.00")
	borrowed := suite.createLoan(bia.ID, "20.00")
	borrowed.Direction = ledger.LoanBorrowed
	require.NoError(suite.T(), suite.store.UpdateLoan(suite.ctx, suite.alice, borrowed))

	all, err := suite.store.ListLoans(suite.ctx, suite.alice, ledger.LoanFilter{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 2)

	byPerson, err := suite.store.ListLoans(suite.ctx, suite.alice, ledger.LoanFilter{PersonID: ana.ID})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), byPerson, 1)
	assert.Equal(suite.T(), ana.ID, byPerson[0].PersonID)

	byDirection, err := suite.store.ListLoans(suite.ctx, suite.alice, ledger.LoanFilter{Direction: ledger.LoanBorrowed})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), byDirection, 1)
	assert.Equal(suite.T(), borrowed.ID, byDirection[0].ID)

	none, err := suite.store.ListLoans(suite.ctx, suite.bob, ledger.LoanFilter{})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), none)
}

func (suite *StoreTestSuite) TestLoans_ForeignUpdateAndDelete() {
	ana := suite.createPerson(suite.alice, "Ana")
	loan := suite.createLoan(ana.ID, "10.00")

	assert.ErrorIs(suite.T(), suite.store.UpdateLoan(suite.ctx, suite.bob, loan), generic.ErrNotFound)
	assert.ErrorIs(suite.T(), suite.store.DeleteLoan(suite.ctx, suite.bob, loan.ID), generic.ErrNotFound)
	assert.NoError(suite.T(), suite.store.DeleteLoan(suite.ctx, suite.alice, loan.ID))
}

// =============================================================================
// TRANSACTIONS (WithTx)
// =============================================================================

func (suite *StoreTestSuite) TestWithTx_RollsBackOnError() {
	boom := errors.New("boom")
	err := suite.store.WithTx(suite.ctx, func(s ledger.Store) error {
		p := &ledger.Person{UserID: suite.alice, Name: "Ghost", CreatedAt: suite.now, UpdatedAt: suite.now}
		require.NoError(suite.T(), s.CreatePerson(suite.ctx, p))

		// Reads inside the transaction see its own writes.
		_, err := s.GetPerson(suite.ctx, suite.alice, p.ID)
		require.NoError(suite.T(), err)
		return boom
	})
	assert.ErrorIs(suite.T(), err, boom)

	people, err := suite.store.ListPeople(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), people)
}

func (suite *StoreTestSuite) TestWithTx_Commits() {
	err := suite.store.WithTx(suite.ctx, func(s ledger.Store) error {
		return s.CreatePerson(suite.ctx, &ledger.Person{UserID: suite.alice, Name: "Ana", CreatedAt: suite.now, UpdatedAt: suite.now})
	})
	require.NoError(suite.T(), err)

	people, err := suite.store.ListPeople(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), people, 1)
}

// =============================================================================
// RECURRING EXPENSES
// =============================================================================

func (suite *StoreTestSuite) newExpense(owner generic.UserID, name string, dueDay *int, created time.Time) *recurring.Expense {
	e := &recurring.Expense{
		UserID:        owner,
		Name:          name,
		Amount:        decimal.RequireFromString("55.90"),
		Currency:      "BRL",
		Category:      recurring.CategorySubscription,
		Recurrence:    recurring.Monthly,
		PaymentMethod: generic.MethodCreditCard,
		DueDay:        dueDay,
		StartDate:     suite.now,
		IsActive:      true,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(suite.T(), suite.store.CreateExpense(suite.ctx, e))
	return e
}

func (suite *StoreTestSuite) TestExpenses_OrderByDueDayThenNewest() {
	day := func(d int) *int { return &d }
	suite.newExpense(suite.alice, "no-due", nil, suite.now)
	suite.newExpense(suite.alice, "due-10-old", day(10), suite.now)
	suite.newExpense(suite.alice, "due-10-new", day(10), suite.now.Add(time.Hour))
	suite.newExpense(suite.alice, "due-5", day(5), suite.now)

	expenses, err := suite.store.ListExpenses(suite.ctx, suite.alice, recurring.Filter{})
	require.NoError(suite.T(), err)

	var names []string
	for _, e := range expenses {
		names = append(names, e.Name)
	}
	assert.Equal(suite.T(), []string{"due-5", "due-10-new", "due-10-old", "no-due"}, names)
}

func (suite *StoreTestSuite) TestExpenses_FiltersAndOwnership() {
	active := suite.newExpense(suite.alice, "active", nil, suite.now)
	inactive := suite.newExpense(suite.alice, "inactive", nil, suite.now)
	inactive.IsActive = false
	inactive.Recurrence = recurring.Yearly
	require.NoError(suite.T(), suite.store.UpdateExpense(suite.ctx, inactive))

	got, err := suite.store.ListExpenses(suite.ctx, suite.alice, recurring.Filter{ActiveOnly: true})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got, 1)
	assert.Equal(suite.T(), active.ID, got[0].ID)

	got, err = suite.store.ListExpenses(suite.ctx, suite.alice, recurring.Filter{Recurrence: recurring.Yearly})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got, 1)
	assert.Equal(suite.T(), inactive.ID, got[0].ID)

	_, err = suite.store.GetExpense(suite.ctx, suite.bob, active.ID)
	assert.ErrorIs(suite.T(), err, generic.ErrNotFound)
	assert.ErrorIs(suite.T(), suite.store.DeleteExpense(suite.ctx, suite.bob, active.ID), generic.ErrNotFound)

	e, err := suite.store.GetExpense(suite.ctx, suite.alice, active.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "55.90", generic.FormatAmount(e.Amount))
	assert.Nil(suite.T(), e.DueDay)
	assert.Nil(suite.T(), e.EndDate)
}

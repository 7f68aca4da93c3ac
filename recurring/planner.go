package recurring

import (
	"context"
	"time"

	"github.com/warp/pocket-ledger/generic"
)

// Filter narrows List. Zero values mean "no filter".
type Filter struct {
	ActiveOnly bool
	Recurrence Recurrence
}

// Store persists expenses. Every read and write is scoped by the owner; an
// expense of another user is reported as generic.ErrNotFound.
// List orders by due day (unset last), then newest first.
type Store interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, userID generic.UserID, id ExpenseID) (*Expense, error)
	ListExpenses(ctx context.Context, userID generic.UserID, filter Filter) ([]Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, userID generic.UserID, id ExpenseID) error
}

// Planner runs expense operations on behalf of an acting user.
type Planner struct {
	store Store
	now   func() time.Time
}

func NewPlanner(store Store) *Planner {
	return &Planner{store: store, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

func (p *Planner) Create(ctx context.Context, userID generic.UserID, in ExpenseInput) (*Expense, error) {
	now := p.now()
	e := &Expense{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := in.Apply(e); err != nil {
		return nil, err
	}
	if err := p.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Planner) Get(ctx context.Context, userID generic.UserID, id ExpenseID) (*Expense, error) {
	return p.store.GetExpense(ctx, userID, id)
}

// Update replaces every field of an owned expense.
func (p *Planner) Update(ctx context.Context, userID generic.UserID, id ExpenseID, in ExpenseInput) (*Expense, error) {
	e, err := p.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.Apply(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = p.now()
	if err := p.store.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Planner) Delete(ctx context.Context, userID generic.UserID, id ExpenseID) error {
	return p.store.DeleteExpense(ctx, userID, id)
}

// Overview lists expenses matching filter and summarizes them as of today.
func (p *Planner) Overview(ctx context.Context, userID generic.UserID, filter Filter) (Summary, error) {
	expenses, err := p.store.ListExpenses(ctx, userID, filter)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(expenses, p.now()), nil
}

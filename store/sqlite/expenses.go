package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/recurring"
)

// =============================================================================
// RECURRING EXPENSES (recurring.Store interface)
// =============================================================================

const expenseColumns = `id, user_id, name, description, amount, currency, category,
	recurrence, payment_method, due_day, due_month, start_date, end_date,
	is_active, notes, url, created_at, updated_at`

func (s *Store) CreateExpense(ctx context.Context, e *recurring.Expense) error {
	if e.ID == "" {
		e.ID = recurring.ExpenseID(newID())
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO recurring_expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.UserID,
		e.Name,
		nullString(e.Description),
		generic.FormatAmount(e.Amount),
		e.Currency,
		e.Category,
		e.Recurrence,
		e.PaymentMethod,
		nullInt(e.DueDay),
		nullInt(e.DueMonth),
		generic.FormatStorage(e.StartDate),
		nullTime(e.EndDate),
		e.IsActive,
		nullString(e.Notes),
		nullString(e.URL),
		generic.FormatStorage(e.CreatedAt),
		generic.FormatStorage(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, userID generic.UserID, id recurring.ExpenseID) (*recurring.Expense, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM recurring_expenses WHERE id = ? AND user_id = ?",
		id, userID,
	)
	e, err := scanExpense(row)
	if err != nil {
		return nil, notFound(err, "get expense")
	}
	return e, nil
}

// ListExpenses orders by due day (expenses without one last), then newest first.
func (s *Store) ListExpenses(ctx context.Context, userID generic.UserID, filter recurring.Filter) ([]recurring.Expense, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if filter.Recurrence != "" {
		where = append(where, "recurrence = ?")
		args = append(args, filter.Recurrence)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM recurring_expenses
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY due_day IS NULL, due_day, created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []recurring.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (s *Store) UpdateExpense(ctx context.Context, e *recurring.Expense) error {
	return expectOne(s.q.ExecContext(ctx, `
		UPDATE recurring_expenses
		SET name = ?, description = ?, amount = ?, currency = ?, category = ?,
		    recurrence = ?, payment_method = ?, due_day = ?, due_month = ?,
		    start_date = ?, end_date = ?, is_active = ?, notes = ?, url = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`,
		e.Name,
		nullString(e.Description),
		generic.FormatAmount(e.Amount),
		e.Currency,
		e.Category,
		e.Recurrence,
		e.PaymentMethod,
		nullInt(e.DueDay),
		nullInt(e.DueMonth),
		generic.FormatStorage(e.StartDate),
		nullTime(e.EndDate),
		e.IsActive,
		nullString(e.Notes),
		nullString(e.URL),
		generic.FormatStorage(e.UpdatedAt),
		e.ID,
		e.UserID,
	))
}

func (s *Store) DeleteExpense(ctx context.Context, userID generic.UserID, id recurring.ExpenseID) error {
	return expectOne(s.q.ExecContext(ctx,
		"DELETE FROM recurring_expenses WHERE id = ? AND user_id = ?", id, userID,
	))
}

func scanExpense(row scanner) (*recurring.Expense, error) {
	var (
		e                                 recurring.Expense
		description, endDate, notes, link sql.NullString
		amount, startDate                 string
		createdAt, updatedAt              string
		dueDay, dueMonth                  sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.Name, &description, &amount, &e.Currency, &e.Category,
		&e.Recurrence, &e.PaymentMethod, &dueDay, &dueMonth, &startDate, &endDate,
		&e.IsActive, &notes, &link, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Description = description.String
	e.Amount = generic.MustParseDecimal(amount)
	e.DueDay = intPtr(dueDay)
	e.DueMonth = intPtr(dueMonth)
	e.StartDate = generic.ParseStorage(startDate)
	if endDate.Valid {
		t := generic.ParseStorage(endDate.String)
		e.EndDate = &t
	}
	e.Notes = notes.String
	e.URL = link.String
	e.CreatedAt = generic.ParseStorage(createdAt)
	e.UpdatedAt = generic.ParseStorage(updatedAt)
	return &e, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
)

// =============================================================================
// LOANS (ledger.Store interface)
// =============================================================================

const loanColumns = `l.id, l.person_id, l.direction, l.amount, l.currency, l.reason,
	l.transaction_date, l.expected_settlement, l.notes, l.created_at, l.updated_at`

// CreateLoan inserts l. The caller has already verified the person.
func (s *Store) CreateLoan(ctx context.Context, l *ledger.Loan) error {
	if l.ID == "" {
		l.ID = ledger.LoanID(newID())
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO loans
		(id, person_id, direction, amount, currency, reason, transaction_date,
		 expected_settlement, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID,
		l.PersonID,
		l.Direction,
		generic.FormatAmount(l.Amount),
		l.Currency,
		l.Reason,
		generic.FormatStorage(l.TransactionDate),
		nullTime(l.ExpectedSettlement),
		nullString(l.Notes),
		generic.FormatStorage(l.CreatedAt),
		generic.FormatStorage(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan returns the loan with its person and payments (newest first).
func (s *Store) GetLoan(ctx context.Context, userID generic.UserID, id ledger.LoanID) (*ledger.Loan, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+loanColumns+`, `+personColumns+`
		FROM loans l
		JOIN people p ON p.id = l.person_id
		WHERE l.id = ? AND p.user_id = ?
	`, id, userID)

	l, err := scanLoan(row)
	if err != nil {
		return nil, notFound(err, "get loan")
	}

	payments, err := s.queryPayments(ctx, "WHERE lp.loan_id = ?", l.ID)
	if err != nil {
		return nil, err
	}
	l.Payments = payments[l.ID]
	return l, nil
}

// ListLoans returns loans newest first, each with person and payments.
func (s *Store) ListLoans(ctx context.Context, userID generic.UserID, filter ledger.LoanFilter) ([]ledger.Loan, error) {
	where := []string{"p.user_id = ?"}
	args := []any{userID}
	if filter.PersonID != "" {
		where = append(where, "l.person_id = ?")
		args = append(args, filter.PersonID)
	}
	if filter.Direction != "" {
		where = append(where, "l.direction = ?")
		args = append(args, filter.Direction)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+loanColumns+`, `+personColumns+`
		FROM loans l
		JOIN people p ON p.id = l.person_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY l.transaction_date DESC, l.created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	var loans []ledger.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return loans, nil
	}

	// One query for every payment of the user, grouped by loan below. The
	// loan rows must be closed first: the pool has a single connection.
	payments, err := s.queryPayments(ctx, `
		JOIN loans l ON l.id = lp.loan_id
		JOIN people p ON p.id = l.person_id
		WHERE p.user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		loans[i].Payments = payments[loans[i].ID]
	}
	return loans, nil
}

// UpdateLoan rewrites the editable columns. The person never changes.
func (s *Store) UpdateLoan(ctx context.Context, userID generic.UserID, l *ledger.Loan) error {
	return expectOne(s.q.ExecContext(ctx, `
		UPDATE loans
		SET direction = ?, amount = ?, currency = ?, reason = ?, transaction_date = ?,
		    expected_settlement = ?, notes = ?, updated_at = ?
		WHERE id = ?
		  AND person_id IN (SELECT id FROM people WHERE user_id = ?)
	`,
		l.Direction,
		generic.FormatAmount(l.Amount),
		l.Currency,
		l.Reason,
		generic.FormatStorage(l.TransactionDate),
		nullTime(l.ExpectedSettlement),
		nullString(l.Notes),
		generic.FormatStorage(l.UpdatedAt),
		l.ID,
		userID,
	))
}

// DeleteLoan removes the loan and, by cascade, its payments.
func (s *Store) DeleteLoan(ctx context.Context, userID generic.UserID, id ledger.LoanID) error {
	return expectOne(s.q.ExecContext(ctx, `
		DELETE FROM loans
		WHERE id = ?
		  AND person_id IN (SELECT id FROM people WHERE user_id = ?)
	`, id, userID))
}

func scanLoan(row scanner) (*ledger.Loan, error) {
	var (
		l                             ledger.Loan
		p                             ledger.Person
		amount, txDate                string
		expected, notes               sql.NullString
		createdAt, updatedAt          string
		nickname, email, phone        sql.NullString
		relationship, personNotes     sql.NullString
		personCreatedAt, personUpdate string
	)
	err := row.Scan(
		&l.ID, &l.PersonID, &l.Direction, &amount, &l.Currency, &l.Reason,
		&txDate, &expected, &notes, &createdAt, &updatedAt,
		&p.ID, &p.UserID, &p.Name, &nickname, &email, &phone,
		&relationship, &personNotes, &personCreatedAt, &personUpdate,
	)
	if err != nil {
		return nil, err
	}

	l.Amount = generic.MustParseDecimal(amount)
	l.TransactionDate = generic.ParseStorage(txDate)
	if expected.Valid {
		t := generic.ParseStorage(expected.String)
		l.ExpectedSettlement = &t
	}
	l.Notes = notes.String
	l.CreatedAt = generic.ParseStorage(createdAt)
	l.UpdatedAt = generic.ParseStorage(updatedAt)

	p.Nickname = nickname.String
	p.Email = email.String
	p.Phone = phone.String
	p.Relationship = relationship.String
	p.Notes = personNotes.String
	p.CreatedAt = generic.ParseStorage(personCreatedAt)
	p.UpdatedAt = generic.ParseStorage(personUpdate)
	l.Person = &p

	return &l, nil
}

// =============================================================================
// PAYMENTS (ledger.Store interface)
// =============================================================================

// AddPayment inserts p. The caller has already verified the loan.
func (s *Store) AddPayment(ctx context.Context, p *ledger.Payment) error {
	if p.ID == "" {
		p.ID = ledger.PaymentID(newID())
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO loan_payments (id, loan_id, amount, paid_at, method, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.LoanID,
		generic.FormatAmount(p.Amount),
		generic.FormatStorage(p.PaidAt),
		nullString(string(p.Method)),
		nullString(p.Notes),
		generic.FormatStorage(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add payment: %w", err)
	}
	return nil
}

// queryPayments returns payments grouped by loan, newest first within each.
func (s *Store) queryPayments(ctx context.Context, clause string, args ...any) (map[ledger.LoanID][]ledger.Payment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT lp.id, lp.loan_id, lp.amount, lp.paid_at, lp.method, lp.notes, lp.created_at
		FROM loan_payments lp
		`+clause+`
		ORDER BY lp.paid_at DESC, lp.created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	byLoan := make(map[ledger.LoanID][]ledger.Payment)
	for rows.Next() {
		var (
			p                         ledger.Payment
			amount, paidAt, createdAt string
			method, notes             sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.LoanID, &amount, &paidAt, &method, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = generic.MustParseDecimal(amount)
		p.PaidAt = generic.ParseStorage(paidAt)
		p.Method = generic.PaymentMethod(method.String)
		p.Notes = notes.String
		p.CreatedAt = generic.ParseStorage(createdAt)
		byLoan[p.LoanID] = append(byLoan[p.LoanID], p)
	}
	return byLoan, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
)

// =============================================================================
// PEOPLE (ledger.Store interface)
// =============================================================================

const personColumns = `p.id, p.user_id, p.name, p.nickname, p.email, p.phone,
	p.relationship, p.notes, p.created_at, p.updated_at`

func (s *Store) CreatePerson(ctx context.Context, p *ledger.Person) error {
	if p.ID == "" {
		p.ID = ledger.PersonID(newID())
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO people
		(id, user_id, name, nickname, email, phone, relationship, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.UserID,
		p.Name,
		nullString(p.Nickname),
		nullString(p.Email),
		nullString(p.Phone),
		nullString(p.Relationship),
		nullString(p.Notes),
		generic.FormatStorage(p.CreatedAt),
		generic.FormatStorage(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, userID generic.UserID, id ledger.PersonID) (*ledger.Person, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+personColumns+" FROM people p WHERE p.id = ? AND p.user_id = ?",
		id, userID,
	)
	p, err := scanPerson(row)
	if err != nil {
		return nil, notFound(err, "get person")
	}
	return p, nil
}

// ListPeople returns the user's people ordered by name.
func (s *Store) ListPeople(ctx context.Context, userID generic.UserID) ([]ledger.Person, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+personColumns+" FROM people p WHERE p.user_id = ? ORDER BY p.name COLLATE NOCASE, p.created_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []ledger.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

func (s *Store) UpdatePerson(ctx context.Context, p *ledger.Person) error {
	return expectOne(s.q.ExecContext(ctx, `
		UPDATE people
		SET name = ?, nickname = ?, email = ?, phone = ?, relationship = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`,
		p.Name,
		nullString(p.Nickname),
		nullString(p.Email),
		nullString(p.Phone),
		nullString(p.Relationship),
		nullString(p.Notes),
		generic.FormatStorage(p.UpdatedAt),
		p.ID,
		p.UserID,
	))
}

// TouchPerson bumps updated_at, which the people list uses as "last activity".
func (s *Store) TouchPerson(ctx context.Context, userID generic.UserID, id ledger.PersonID, at time.Time) error {
	return expectOne(s.q.ExecContext(ctx,
		"UPDATE people SET updated_at = ? WHERE id = ? AND user_id = ?",
		generic.FormatStorage(at), id, userID,
	))
}

// DeletePerson removes the person; transactions, loans and payments follow
// through ON DELETE CASCADE.
func (s *Store) DeletePerson(ctx context.Context, userID generic.UserID, id ledger.PersonID) error {
	return expectOne(s.q.ExecContext(ctx,
		"DELETE FROM people WHERE id = ? AND user_id = ?", id, userID,
	))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*ledger.Person, error) {
	var (
		p                                           ledger.Person
		nickname, email, phone, relationship, notes sql.NullString
		createdAt, updatedAt                        string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &nickname, &email, &phone,
		&relationship, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Nickname = nickname.String
	p.Email = email.String
	p.Phone = phone.String
	p.Relationship = relationship.String
	p.Notes = notes.String
	p.CreatedAt = generic.ParseStorage(createdAt)
	p.UpdatedAt = generic.ParseStorage(updatedAt)
	return &p, nil
}

// =============================================================================
// TRANSACTIONS (ledger.Store interface)
// =============================================================================

const transactionColumns = `t.id, t.person_id, t.type, t.amount, t.date,
	t.description, t.disregarded, t.created_at`

// AppendTransaction inserts tx. The caller has already verified that the
// person belongs to the acting user.
func (s *Store) AppendTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if tx.ID == "" {
		tx.ID = ledger.TransactionID(newID())
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions
		(id, person_id, type, amount, date, description, disregarded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID,
		tx.PersonID,
		tx.Type,
		generic.FormatAmount(tx.Amount),
		generic.FormatStorage(tx.Date),
		nullString(tx.Description),
		tx.Disregarded,
		generic.FormatStorage(tx.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// ListTransactions returns one person's ledger, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID generic.UserID, personID ledger.PersonID) ([]ledger.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN people p ON p.id = t.person_id
		WHERE t.person_id = ? AND p.user_id = ?
		ORDER BY t.date DESC, t.created_at DESC
	`, personID, userID)
}

// ListUserTransactions returns the ledger of every person of the user.
func (s *Store) ListUserTransactions(ctx context.Context, userID generic.UserID) ([]ledger.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN people p ON p.id = t.person_id
		WHERE p.user_id = ?
		ORDER BY t.date DESC, t.created_at DESC
	`, userID)
}

// SetDisregarded flips the flag on a transaction reachable through
// user -> person -> transaction and returns the updated row.
func (s *Store) SetDisregarded(ctx context.Context, userID generic.UserID, personID ledger.PersonID, id ledger.TransactionID, disregarded bool) (*ledger.Transaction, error) {
	err := expectOne(s.q.ExecContext(ctx, `
		UPDATE transactions SET disregarded = ?
		WHERE id = ? AND person_id = ?
		  AND person_id IN (SELECT id FROM people WHERE user_id = ?)
	`, disregarded, id, personID, userID))
	if err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions t WHERE t.id = ?", id,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err, "get transaction")
	}
	return tx, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row scanner) (*ledger.Transaction, error) {
	var (
		tx                      ledger.Transaction
		amount, date, createdAt string
		description             sql.NullString
	)
	err := row.Scan(
		&tx.ID, &tx.PersonID, &tx.Type, &amount, &date,
		&description, &tx.Disregarded, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Amount = generic.MustParseDecimal(amount)
	tx.Date = generic.ParseStorage(date)
	tx.Description = description.String
	tx.CreatedAt = generic.ParseStorage(createdAt)
	return &tx, nil
}

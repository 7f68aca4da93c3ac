/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the service using SQLite through
  database/sql and mattn/go-sqlite3.

INTERFACES IMPLEMENTED:
  auth.UserStore:     Accounts (users.go)
  ledger.TxStore:     People, transactions, loans, payments (people.go, loans.go)
  recurring.Store:    Recurring expenses (expenses.go)

OWNERSHIP:
  Every query that reads or changes an existing row joins up to the owning
  user_id. A row owned by someone else is simply not matched, and a miss is
  reported as generic.ErrNotFound.

KEY TABLES:
  users:              Handle + PIN hash
  recurring_expenses: Expense rules, one owner each
  people:             Counterparties, one owner each
  transactions:       Signed ledger events per person
  loans:              Principals per person
  loan_payments:      Repayments per loan
  Children cascade on delete: users -> people -> transactions/loans -> payments.

MONEY AND TIME:
  Amounts are stored as TEXT decimal strings and read back with
  shopspring/decimal, so no value ever passes through float64. Timestamps are
  fixed-width UTC TEXT (generic.StorageLayout), so ORDER BY on them is
  chronological.

CONCURRENCY:
  The pool is limited to a single connection. A WithTx transaction therefore
  owns the database until it commits, which serializes check-then-write
  sequences (payment + settlement, inline person + loan) without a mutex.
  Inside WithTx all statements run on the *sql.Tx through the querier
  interface; nothing inside may touch the pool directly.

USAGE:
  store, err := sqlite.New("./finance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  book := ledger.NewBook(store)

MIGRATION:
  Schema is auto-migrated on New().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx // set on the store handed to WithTx callbacks
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers. Used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		pin_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_expenses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'BRL',
		category TEXT NOT NULL DEFAULT 'other',
		recurrence TEXT NOT NULL CHECK (recurrence IN ('monthly', 'yearly')),
		payment_method TEXT NOT NULL,
		due_day INTEGER CHECK (due_day BETWEEN 1 AND 31),
		due_month INTEGER CHECK (due_month BETWEEN 1 AND 12),
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT,
		url TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_user
		ON recurring_expenses(user_id, due_day);

	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		nickname TEXT,
		email TEXT,
		phone TEXT,
		relationship TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_people_user
		ON people(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('lent', 'received')),
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT,
		disregarded BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Person ledger reads are newest first
	CREATE INDEX IF NOT EXISTS idx_transactions_person_date
		ON transactions(person_id, date DESC);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		direction TEXT NOT NULL CHECK (direction IN ('lent', 'borrowed')),
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'BRL',
		reason TEXT NOT NULL,
		transaction_date TEXT NOT NULL,
		expected_settlement TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_person
		ON loans(person_id);

	CREATE TABLE IF NOT EXISTS loan_payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		method TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loan_payments_loan
		ON loan_payments(loan_id, paid_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. Nested calls reuse the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Store{db: s.db, q: sqlTx, tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func newID() string {
	return uuid.NewString()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: generic.FormatStorage(*t), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// expectOne maps "no row affected" onto generic.ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

// notFound maps sql.ErrNoRows onto generic.ErrNotFound and wraps anything
// else with what.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

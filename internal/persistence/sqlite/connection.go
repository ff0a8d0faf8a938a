package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ConnectionPool manages SQLite database connections with transaction support.
type ConnectionPool struct {
	db *sql.DB
}

// NewConnectionPool opens a SQLite database for the given DSN and enables
// foreign key enforcement.
func NewConnectionPool(dsn string) (*ConnectionPool, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serialises writers; a single connection avoids
	// SQLITE_BUSY churn between the pool's goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a database transaction. If fn returns an
// error the transaction is rolled back, otherwise it is committed.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryHelper provides helper methods for common query patterns.
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a new query helper.
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

// QueryRow executes a query that returns a single row.
func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qh.pool.db.QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns multiple rows.
func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qh.pool.db.QueryContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows.
func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qh.pool.db.ExecContext(ctx, query, args...)
}

// QueryRowTx executes a single-row query within a transaction.
func (qh *QueryHelper) QueryRowTx(tx *sql.Tx, query string, args ...any) *sql.Row {
	return tx.QueryRow(query, args...)
}

// QueryTx executes a multi-row query within a transaction.
func (qh *QueryHelper) QueryTx(tx *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	return tx.Query(query, args...)
}

// ExecTx executes a statement within a transaction.
func (qh *QueryHelper) ExecTx(tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.Exec(query, args...)
}

// ErrorMapper maps SQLite errors to persistence layer errors.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps SQLite-specific errors to persistence layer errors.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if err == sql.ErrNoRows {
		return fmt.Errorf("record not found: %w", err)
	}

	errStr := err.Error()

	if containsAny(errStr, "UNIQUE constraint failed", "constraint failed") {
		return fmt.Errorf("duplicate record: %w", err)
	}
	if containsAny(errStr, "FOREIGN KEY constraint failed", "foreign key constraint") {
		return fmt.Errorf("foreign key violation: %w", err)
	}
	if containsAny(errStr, "CHECK constraint failed") {
		return fmt.Errorf("constraint violation: %w", err)
	}
	if containsAny(errStr, "database is locked", "database locked") {
		return fmt.Errorf("database locked: %w", err)
	}

	return err
}

func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// Package database is the PostgreSQL data access layer.
//
// Query methods live on Queries, which runs against anything satisfying DBTX
// (a pool, a transaction, or a savepoint). Store adds transaction scoping on
// top so callers can nest units of work.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries implements Querier against PostgreSQL.
type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique key already exists.
	ErrConflict = errors.New("record already exists")

	// ErrReference is returned when a foreign key points at a missing row.
	ErrReference = errors.New("referenced record does not exist")

	// ErrInvalid is returned when a row violates a check constraint.
	ErrInvalid = errors.New("record violates a constraint")
)

// mapError converts driver errors into the package sentinels, keeping the
// original error in the chain for logging.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case "23503":
			return fmt.Errorf("%w: %w", ErrReference, err)
		case "23502", "23514":
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return err
}

// IsDataError reports whether err was caused by the content of the data being
// written (duplicate key, missing reference, constraint or data exception)
// rather than by the connection or the context.
func IsDataError(err error) bool {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrReference) || errors.Is(err, ErrInvalid) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		class := pgErr.Code
		if len(class) >= 2 {
			class = class[:2]
		}
		return class == "22" || class == "23"
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store is a Querier that can open a nested unit of work. Calling InTx on a
// Store returned inside InTx opens a savepoint, so a failed inner unit rolls
// back only its own writes.
type Store interface {
	Querier
	InTx(ctx context.Context, fn func(Store) error) error
}

// TxBeginner is satisfied by *pgxpool.Pool and pgx.Tx.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgStore struct {
	*Queries
	db TxBeginner
}

// NewStore wraps a pool (or any connection able to begin transactions).
func NewStore(db TxBeginner) Store {
	return &pgStore{Queries: New(db), db: db}
}

// InTx runs fn inside a transaction, or a savepoint when already inside one.
// fn's error rolls the unit back and is returned unchanged.
func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgStore{Queries: New(tx), db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

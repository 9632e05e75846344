package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// Store couples the generated queries with the pool so services can run
// several statements in one transaction.
type Store struct {
	dbgen.Querier
	pool *pgxpool.Pool
}

// NewStore wires queries against the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Querier: dbgen.New(pool), pool: pool}
}

// ExecTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (s *Store) ExecTx(ctx context.Context, fn func(dbgen.Querier) error) error {
	if s == nil || s.pool == nil {
		return errors.New("db: store not configured")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(dbgen.New(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}
	return nil
}

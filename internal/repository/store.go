package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql used by the repositories, satisfied by
// both *sql.DB and *sql.Tx so a repository can run inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store bundles the repositories that participate in multi-entity
// transactions (checkout, cancellation, review rating rollups). ExecTx runs
// fn with every repository bound to a single transaction: either all writes
// commit or none do.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Reviews() ReviewRepository
	ExecTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	db       *sql.DB
	products ProductRepository
	carts    CartRepository
	orders   OrderRepository
	reviews  ReviewRepository
}

// NewStore creates a Store over the given database connection.
func NewStore(db *sql.DB) Store {
	return &sqlStore{
		db:       db,
		products: NewProductRepository(db),
		carts:    NewCartRepository(db),
		orders:   NewOrderRepository(db),
		reviews:  NewReviewRepository(db),
	}
}

func (s *sqlStore) Products() ProductRepository { return s.products }
func (s *sqlStore) Carts() CartRepository       { return s.carts }
func (s *sqlStore) Orders() OrderRepository     { return s.orders }
func (s *sqlStore) Reviews() ReviewRepository   { return s.reviews }

func (s *sqlStore) ExecTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &txSQLStore{
		products: NewProductRepository(tx),
		carts:    NewCartRepository(tx),
		orders:   NewOrderRepository(tx),
		reviews:  NewReviewRepository(tx),
	}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txSQLStore is a Store already bound to an open transaction.
type txSQLStore struct {
	products ProductRepository
	carts    CartRepository
	orders   OrderRepository
	reviews  ReviewRepository
}

func (s *txSQLStore) Products() ProductRepository { return s.products }
func (s *txSQLStore) Carts() CartRepository       { return s.carts }
func (s *txSQLStore) Orders() OrderRepository     { return s.orders }
func (s *txSQLStore) Reviews() ReviewRepository   { return s.reviews }

// ExecTx on a transaction-bound store runs fn directly; the surrounding
// transaction already provides atomicity.
func (s *txSQLStore) ExecTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

// Package postgres implements the store contracts on a pgx connection pool.
// Schema lives in schema.sql at the repo root.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

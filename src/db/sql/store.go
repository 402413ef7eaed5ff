package sql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"tarefo-server/src/db"
)

// Store is the raw-SQL persistence layer. It implements bank.Store and
// recurring.Store plus the CRUD the route handlers need.
type Store struct {
	pool  *pgxpool.Pool
	banks *db.BankCache
}

func NewStore(pool *pgxpool.Pool, banks *db.BankCache) *Store {
	return &Store{pool: pool, banks: banks}
}

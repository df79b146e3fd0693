package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
)

var _ iface.Store = (*Store)(nil)

// Store implements interfaces.Store backed by a single Postgres database.
type Store struct{ db *DB }

// NewStore wraps an existing connection pool as an interfaces.Store.
func NewStore(db *DB) *Store { return &Store{db: db} }

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

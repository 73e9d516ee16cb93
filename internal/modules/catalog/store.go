// README: Catalog store backed by PostgreSQL.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"carebook/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, e *Entry) error {
	features := e.Features
	if features == nil {
		features = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO services (id, title, description, price, type, features, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		string(e.ID), e.Title, e.Description, e.Price.String(), string(e.Type), features, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Entry, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, description, price::text, type, features, created_at
		FROM services WHERE id = $1`, string(id),
	)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: service %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, typ Type) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, description, price::text, type, features, created_at
		FROM services
		WHERE $1 = '' OR type = $1
		ORDER BY title, id`, string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var price string
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &price, &e.Type, &e.Features, &e.CreatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("service %s: price %q: %w", e.ID, price, err)
	}
	e.Price = p
	return &e, nil
}

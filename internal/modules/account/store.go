// README: Account store backed by PostgreSQL.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"carebook/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, u *User, p *Profile) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, role, address, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(u.ID), u.Name, u.Email, string(u.Role), u.Address, u.Phone, u.CreatedAt,
	)
	if err != nil {
		return unavailable(err)
	}
	if p != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO staff_profiles (id, user_id, kind, created_at)
			VALUES ($1, $2, $3, $4)`,
			string(p.ID), string(p.UserID), string(p.Kind), p.CreatedAt,
		)
		if err != nil {
			return unavailable(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id types.ID) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, role, address, phone, created_at
		FROM users WHERE id = $1`, string(id),
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Address, &u.Phone, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return &u, nil
}

func (s *Store) GetProfile(ctx context.Context, id types.ID) (*Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, `
		SELECT id, user_id, kind, created_at
		FROM staff_profiles WHERE id = $1`, string(id),
	), "profile "+string(id))
}

func (s *Store) ProfileByUser(ctx context.Context, userID types.ID, kind StaffKind) (*Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, `
		SELECT id, user_id, kind, created_at
		FROM staff_profiles WHERE user_id = $1 AND kind = $2`, string(userID), string(kind),
	), "profile for user "+string(userID))
}

func (s *Store) scanProfile(row pgx.Row, what string) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Kind, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, what)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return &p, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
}

// README: Booking store backed by PostgreSQL. Status changes are guarded by (status, status_version).
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"carebook/internal/modules/account"
	"carebook/internal/modules/catalog"
	"carebook/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const bookingColumns = `b.id, b.user_id, b.service_id, b.provider_id, b.driver_id,
	b.date, b.notes, b.status, b.status_version, b.created_at, b.updated_at`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, user_id, service_id, provider_id, driver_id,
			date, notes, status, status_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(b.ID),
		string(b.UserID),
		string(b.ServiceID),
		toStringPtr(b.ProviderID),
		toStringPtr(b.DriverID),
		b.Date,
		b.Notes,
		string(b.Status),
		b.StatusVersion,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return b, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, staff *Staff) (bool, error) {
	var providerID, driverID *string
	if staff != nil {
		pid := string(staff.ProfileID)
		switch staff.Kind {
		case account.StaffProvider:
			providerID = &pid
		case account.StaffDriver:
			driverID = &pid
		}
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
			status_version = status_version + 1,
			provider_id = COALESCE($2, provider_id),
			driver_id = COALESCE($3, driver_id),
			updated_at = NOW()
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		providerID,
		driverID,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, unavailable(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) List(ctx context.Context, f Filter) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		WHERE ($1 = '' OR b.user_id = $1)
		  AND ($2 = '' OR b.provider_id = $2)
		  AND ($3 = '' OR b.driver_id = $3)
		  AND ($4 = '' OR b.status = $4)
		ORDER BY b.date DESC, b.id ASC`,
		string(f.UserID), string(f.ProviderID), string(f.DriverID), string(f.Status),
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

// Ledger reads the whole join in one statement so the result is a single snapshot.
func (s *Store) Ledger(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`,
			COALESCE(u.name, ''),
			sv.id, sv.title, sv.description, sv.price::text, sv.type, COALESCE(sv.features, '{}'), sv.created_at,
			COALESCE(pu.name, ''),
			COALESCE(du.name, '')
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
		LEFT JOIN services sv ON sv.id = b.service_id
		LEFT JOIN staff_profiles pp ON pp.id = b.provider_id
		LEFT JOIN users pu ON pu.id = pp.user_id
		LEFT JOIN staff_profiles dp ON dp.id = b.driver_id
		LEFT JOIN users du ON du.id = dp.user_id
		ORDER BY b.date DESC, b.id ASC`,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	out := []LedgerEntry{}
	for rows.Next() {
		var (
			e                                         LedgerEntry
			providerID, driverID                      *string
			svcID, svcTitle, svcDesc, svcPrice, svcTy *string
			svcFeatures                               []string
			svcCreated                                *time.Time
		)
		b := &e.Booking
		err := rows.Scan(
			&b.ID, &b.UserID, &b.ServiceID, &providerID, &driverID,
			&b.Date, &b.Notes, &b.Status, &b.StatusVersion, &b.CreatedAt, &b.UpdatedAt,
			&e.FamilyName,
			&svcID, &svcTitle, &svcDesc, &svcPrice, &svcTy, &svcFeatures, &svcCreated,
			&e.ProviderName,
			&e.DriverName,
		)
		if err != nil {
			return nil, unavailable(err)
		}
		b.ProviderID = toIDPtr(providerID)
		b.DriverID = toIDPtr(driverID)
		if svcID != nil {
			entry := &catalog.Entry{
				ID:       types.ID(*svcID),
				Title:    deref(svcTitle),
				Type:     catalog.Type(deref(svcTy)),
				Features: svcFeatures,
			}
			entry.Description = deref(svcDesc)
			if svcPrice != nil {
				if entry.Price, err = decimal.NewFromString(*svcPrice); err != nil {
					return nil, unavailable(err)
				}
			}
			if svcCreated != nil {
				entry.CreatedAt = *svcCreated
			}
			e.Service = entry
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var providerID, driverID *string
	err := row.Scan(
		&b.ID, &b.UserID, &b.ServiceID, &providerID, &driverID,
		&b.Date, &b.Notes, &b.Status, &b.StatusVersion, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ProviderID = toIDPtr(providerID)
	b.DriverID = toIDPtr(driverID)
	return &b, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v *string) *types.ID {
	if v == nil {
		return nil
	}
	id := types.ID(*v)
	return &id
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
}

// README: Account service resolves users and staff profiles for the booking core.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carebook/internal/types"
)

// Repository is the Entity Store contract for users and profiles.
type Repository interface {
	CreateUser(ctx context.Context, u *User, p *Profile) error
	GetUser(ctx context.Context, id types.ID) (*User, error)
	GetProfile(ctx context.Context, id types.ID) (*Profile, error)
	ProfileByUser(ctx context.Context, userID types.ID, kind StaffKind) (*Profile, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

type RegisterCommand struct {
	Name    string
	Email   string
	Role    Role
	Address *string
	Phone   *string
}

// Register creates a user and, for PROVIDER and DRIVER roles, the matching profile in
// the same write. The returned profile is nil for FAMILY and ADMIN users.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*User, *Profile, error) {
	if strings.TrimSpace(cmd.Name) == "" || !cmd.Role.Valid() {
		return nil, nil, types.ErrBadRequest
	}
	now := time.Now().UTC()
	u := &User{
		ID:        types.NewID(),
		Name:      strings.TrimSpace(cmd.Name),
		Email:     strings.TrimSpace(cmd.Email),
		Role:      cmd.Role,
		Address:   cmd.Address,
		Phone:     cmd.Phone,
		CreatedAt: now,
	}
	var p *Profile
	if kind, ok := StaffKindFor(cmd.Role); ok {
		p = &Profile{ID: types.NewID(), UserID: u.ID, Kind: kind, CreatedAt: now}
	}
	if err := s.store.CreateUser(ctx, u, p); err != nil {
		return nil, nil, err
	}
	return u, p, nil
}

func (s *Service) User(ctx context.Context, id types.ID) (*User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) Profile(ctx context.Context, id types.ID) (*Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func (s *Service) ProfileByUser(ctx context.Context, userID types.ID, kind StaffKind) (*Profile, error) {
	return s.store.ProfileByUser(ctx, userID, kind)
}

// StaffName resolves the display name behind a profile.
func (s *Service) StaffName(ctx context.Context, profileID types.ID) (string, error) {
	p, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return "", err
	}
	u, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("profile %s: %w", profileID, err)
	}
	return u.Name, nil
}

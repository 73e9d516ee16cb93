// README: Catalog service; read-through to the service catalog plus validated seeding.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carebook/internal/types"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id types.ID) (*Entry, error)
	List(ctx context.Context, typ Type) ([]Entry, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Type        Type
	Features    []string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Entry, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" || !cmd.Type.Valid() || cmd.Price.IsNegative() {
		return nil, types.ErrBadRequest
	}
	e := &Entry{
		ID:          types.NewID(),
		Title:       title,
		Description: cmd.Description,
		Price:       cmd.Price,
		Type:        cmd.Type,
		Features:    append([]string(nil), cmd.Features...),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Entry, error) {
	return s.store.Get(ctx, id)
}

// List returns entries of the given type, or all entries when typ is empty.
func (s *Service) List(ctx context.Context, typ Type) ([]Entry, error) {
	if typ != "" && !typ.Valid() {
		return nil, types.ErrBadRequest
	}
	return s.store.List(ctx, typ)
}

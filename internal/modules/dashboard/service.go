// README: Dashboard service recomputes views from a fresh ledger snapshot on every call.
package dashboard

import (
	"context"
	"time"

	"carebook/internal/modules/booking"
	"carebook/internal/types"
)

type Ledger interface {
	Ledger(ctx context.Context) ([]booking.LedgerEntry, error)
}

type Service struct {
	ledger   Ledger
	currency string
	now      func() time.Time
}

func NewService(ledger Ledger, currency string) *Service {
	return &Service{ledger: ledger, currency: currency, now: time.Now}
}

// WithClock overrides the time source used for renewal countdowns.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) UnassignedSubscriptions(ctx context.Context) ([]Row, error) {
	entries, err := s.ledger.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return UnassignedSubscriptions(entries), nil
}

func (s *Service) UnassignedOrders(ctx context.Context) ([]Row, error) {
	entries, err := s.ledger.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return UnassignedOrders(entries), nil
}

func (s *Service) TransportationRequests(ctx context.Context) ([]TransportRow, error) {
	entries, err := s.ledger.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return TransportationRequests(entries), nil
}

func (s *Service) RenewalCandidates(ctx context.Context, userID types.ID) ([]RenewalRow, error) {
	entries, err := s.ledger.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return RenewalCandidates(ForUser(entries, userID), s.now()), nil
}

func (s *Service) PaymentHistory(ctx context.Context, userID types.ID) ([]PaymentRow, error) {
	entries, err := s.ledger.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return PaymentHistory(ForUser(entries, userID), s.currency), nil
}

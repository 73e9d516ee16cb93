// README: Analytics service assembles the report, system health and recommendations.
package analytics

import (
	"context"
	"time"

	"carebook/internal/logger"
	"carebook/internal/modules/booking"
)

const (
	HealthOperational = "operational"
	HealthDegraded    = "degraded"
	HealthUnknown     = "unknown"

	pingTimeout = 2 * time.Second
)

type Ledger interface {
	Ledger(ctx context.Context) ([]booking.LedgerEntry, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	ledger      Ledger
	pinger      Pinger
	recommender Recommender
	opts        Options
	log         logger.ILogger
}

// NewService builds the aggregator. pinger and recommender may be nil.
func NewService(ledger Ledger, pinger Pinger, recommender Recommender, opts Options, log logger.ILogger) *Service {
	if recommender == nil {
		recommender = HeuristicRecommender{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{ledger: ledger, pinger: pinger, recommender: recommender, opts: opts, log: log}
}

func (s *Service) Report(ctx context.Context) (*Report, error) {
	entries, err := s.ledger.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	r := Aggregate(entries, s.opts)
	r.SystemHealth = s.health(ctx)

	recs, err := s.recommender.Recommend(ctx, r)
	if err != nil || len(recs) == 0 {
		if err != nil {
			s.log.Warning("recommendations unavailable, using heuristics", logger.Error(err))
		}
		recs, _ = HeuristicRecommender{}.Recommend(ctx, r)
	}
	r.Recommendations = recs
	return &r, nil
}

func (s *Service) health(ctx context.Context) SystemHealth {
	h := SystemHealth{Database: HealthUnknown, API: HealthOperational}
	if s.pinger == nil {
		return h
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Warning("database ping failed", logger.Error(err))
		h.Database = HealthDegraded
		return h
	}
	h.Database = HealthOperational
	return h
}

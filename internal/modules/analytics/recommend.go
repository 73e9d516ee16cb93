// README: Heuristic operator recommendations derived from an aggregated report.
package analytics

import (
	"context"
	"fmt"
)

// Recommender turns an aggregated report into short operator suggestions.
type Recommender interface {
	Recommend(ctx context.Context, r Report) ([]string, error)
}

// HeuristicRecommender applies a fixed rule list and never fails.
type HeuristicRecommender struct{}

func (HeuristicRecommender) Recommend(ctx context.Context, r Report) ([]string, error) {
	if r.TotalBookings == 0 {
		return []string{
			"No bookings yet. Promote the service catalog to families.",
		}, nil
	}

	out := []string{}
	if r.PendingBookings > 0 {
		out = append(out, fmt.Sprintf("%d booking(s) are waiting for a provider or driver. Assign staff to clear the backlog.", r.PendingBookings))
	}
	if len(r.RevenueByPlan) > 0 && r.RevenueByPlan[0].Percent >= 50 {
		top := r.RevenueByPlan[0]
		out = append(out, fmt.Sprintf("%s brings in %d%% of revenue. Make sure enough staff are available for it.", top.Title, top.Percent))
	}
	if len(r.ServiceUsage) > 1 {
		least := r.ServiceUsage[len(r.ServiceUsage)-1]
		out = append(out, fmt.Sprintf("%s is the least booked service. Consider a promotion or a review of its pricing.", least.Title))
	}
	out = append(out, "Review renewal candidates weekly so subscriptions do not lapse.")
	return out, nil
}

// README: Model-backed recommendations for the analytics report.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"carebook/internal/modules/analytics"
)

const maxRecommendations = 5

// Recommender implements analytics.Recommender on top of a Generator.
type Recommender struct {
	gen Generator
}

func NewRecommender(gen Generator) *Recommender {
	return &Recommender{gen: gen}
}

func (r *Recommender) Recommend(ctx context.Context, report analytics.Report) ([]string, error) {
	summary, err := json.Marshal(summarize(report))
	if err != nil {
		return nil, err
	}
	text, err := r.gen.Generate(ctx, buildPrompt(string(summary)))
	if err != nil {
		return nil, err
	}

	cleanJSON := cleanJSONString(text)
	var result recommendationResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}

	out := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		if rec = strings.TrimSpace(rec); rec != "" {
			out = append(out, rec)
		}
		if len(out) == maxRecommendations {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no recommendations")
	}
	return out, nil
}

func summarize(r analytics.Report) reportSummary {
	counts := map[string]int{}
	for _, u := range r.ServiceUsage {
		counts[u.Title] = u.Count
	}
	s := reportSummary{
		Currency:        r.Currency,
		TotalRevenue:    r.TotalRevenue.String(),
		TotalBookings:   r.TotalBookings,
		PendingBookings: r.PendingBookings,
		Plans:           make([]planSummary, 0, len(r.RevenueByPlan)),
	}
	for _, p := range r.RevenueByPlan {
		s.Plans = append(s.Plans, planSummary{
			Title:          p.Title,
			Revenue:        p.Revenue.String(),
			RevenuePercent: p.Percent,
			Bookings:       counts[p.Title],
		})
	}
	return s
}

func buildPrompt(summaryJSON string) string {
	return fmt.Sprintf(`Role: You advise the operations team of an elderly-care marketplace.
Families book care subscriptions, one-time errands and hospital transport; staff (caregivers and drivers) are assigned to each booking.

Booking summary (JSON):
%s

Write at most %d short, concrete recommendations for the operations team, based only on the numbers above.
Do not invent figures. Plain sentences, no markdown.

Output JSON Schema:
{
  "recommendations": ["string"]
}
`, summaryJSON, maxRecommendations)
}

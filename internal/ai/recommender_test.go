package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"carebook/internal/modules/analytics"
)

type cannedGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *cannedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func sampleReport() analytics.Report {
	return analytics.Report{
		TotalRevenue:    decimal.NewFromInt(40000),
		Currency:        "KES",
		TotalBookings:   3,
		PendingBookings: 1,
		RevenueByPlan: []analytics.PlanRevenue{
			{Title: "Premium Care", Revenue: decimal.NewFromInt(25000), Percent: 63},
			{Title: "Basic Care", Revenue: decimal.NewFromInt(15000), Percent: 38},
		},
		ServiceUsage: []analytics.ServiceUsage{
			{Title: "Premium Care", Count: 2, Percent: 67},
			{Title: "Basic Care", Count: 1, Percent: 33},
		},
	}
}

func TestRecommendParsesFencedJSON(t *testing.T) {
	gen := &cannedGenerator{out: "```json\n{\"recommendations\": [\" Hire one more caregiver. \", \"\", \"Bundle transport with Basic Care.\"]}\n```"}
	recs, err := NewRecommender(gen).Recommend(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 2 || recs[0] != "Hire one more caregiver." {
		t.Fatalf("recs = %q", recs)
	}
	if !strings.Contains(gen.prompt, `"title":"Premium Care"`) || !strings.Contains(gen.prompt, `"pending_bookings":1`) {
		t.Fatalf("prompt is missing the summary:\n%s", gen.prompt)
	}
}

func TestRecommendErrors(t *testing.T) {
	cases := map[string]*cannedGenerator{
		"generator failure": {err: errors.New("quota exceeded")},
		"not json":          {out: "Hire more staff."},
		"empty list":        {out: `{"recommendations": []}`},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRecommender(gen).Recommend(context.Background(), sampleReport()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRecommendCapsList(t *testing.T) {
	gen := &cannedGenerator{out: `{"recommendations": ["a","b","c","d","e","f","g"]}`}
	recs, err := NewRecommender(gen).Recommend(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != maxRecommendations {
		t.Fatalf("len = %d", len(recs))
	}
}

// README: Demo catalog and accounts loaded when running on the memory driver.
package main

import (
	"context"

	"github.com/shopspring/decimal"

	"carebook/internal/logger"
	"carebook/internal/modules/account"
	"carebook/internal/modules/catalog"
)

var starterCatalog = []catalog.CreateCommand{
	{
		Title: "Premium Care", Description: "Daily visits from a dedicated caregiver",
		Price: decimal.NewFromInt(25000), Type: catalog.TypeSubscription,
		Features: []string{"Daily caregiver visits", "Medication management", "Weekly family report"},
	},
	{
		Title: "Basic Care", Description: "Three caregiver visits per week",
		Price: decimal.NewFromInt(15000), Type: catalog.TypeSubscription,
		Features: []string{"3 visits per week", "Companionship", "Monthly family report"},
	},
	{
		Title: "Grocery Run", Description: "Shopping and delivery of household groceries",
		Price: decimal.NewFromInt(1500), Type: catalog.TypeOneTime,
		Features: []string{"Shopping list pickup", "Same-day delivery"},
	},
	{
		Title: "Hospital Transport", Description: "Escorted ride to and from medical appointments",
		Price: decimal.NewFromInt(3000), Type: catalog.TypeOneTime,
		Features: []string{"Door-to-door pickup", "Escort during appointment"},
	},
}

var demoAccounts = []account.RegisterCommand{
	{Name: "Demo Family", Email: "family@example.com", Role: account.RoleFamily},
	{Name: "Demo Caregiver", Email: "provider@example.com", Role: account.RoleProvider},
	{Name: "Demo Driver", Email: "driver@example.com", Role: account.RoleDriver},
}

// seedMemory loads the starter catalog (same rows as migrations/0002_seed_catalog)
// and one account per role, since the memory driver has no migrations to run.
func seedMemory(ctx context.Context, accounts *account.Service, cat *catalog.Service, lg logger.ILogger) error {
	for _, cmd := range starterCatalog {
		e, err := cat.Create(ctx, cmd)
		if err != nil {
			return err
		}
		lg.Info("seeded service", logger.String("id", string(e.ID)), logger.String("title", e.Title))
	}
	for _, cmd := range demoAccounts {
		u, p, err := accounts.Register(ctx, cmd)
		if err != nil {
			return err
		}
		fields := []logger.Field{logger.String("user_id", string(u.ID)), logger.String("role", string(u.Role))}
		if p != nil {
			fields = append(fields, logger.String("profile_id", string(p.ID)))
		}
		lg.Info("seeded account", fields...)
	}
	return nil
}

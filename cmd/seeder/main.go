package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/noah-isme/backend-invoice/internal/app"
	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/customer"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

// seeder creates a demo account with two customers and a handful of
// invoices. It goes through the services so every figure is computed the
// same way the API computes it.
func main() {
	email := flag.String("email", "admin@example.com", "demo account email")
	password := flag.String("password", "password123", "demo account password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, ring := app.NewLogger(cfg, "seeder")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps, err := app.Open(ctx, cfg, logger, ring, "seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()
	services, err := app.NewServices(ctx, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise services")
	}

	owner, err := services.Auth.Register(ctx, "Demo Admin", *email, *password)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == "EMAIL_ALREADY_USED" {
			logger.Info().Str("email", *email).Msg("demo account exists; nothing to seed")
			return
		}
		logger.Fatal().Err(err).Msg("register demo account")
	}

	customers := []customer.Input{
		{Name: "Acme Corporation", Email: "billing@acme.example", Address: "1 Market Street\nSpringfield"},
		{Name: "Globex Ltd", Email: "ap@globex.example", Phone: "+1 555 0100"},
	}
	due := time.Now().AddDate(0, 0, 30)
	for i, in := range customers {
		c, err := services.Customers.Create(ctx, owner.ID, in)
		if err != nil {
			logger.Fatal().Err(err).Str("customer", in.Name).Msg("create customer")
		}
		inv, err := services.Invoices.Create(ctx, owner.ID, invoice.Input{
			CustomerID: c.ID,
			Currency:   cfg.DefaultCurrency,
			DueDate:    &due,
			Items: []invoice.ItemInput{
				{Name: "Consulting", Quantity: float64(10 + i*5), Rate: 120},
				{Name: "Hosting", Quantity: 1, Rate: 49.99},
			},
			Discount: invoice.AdjustmentInput{Type: "percentage", Value: 10},
			Tax:      invoice.AdjustmentInput{Type: "percentage", Value: 8.25},
			Shipping: invoice.AdjustmentInput{Type: "fixed", Value: 0},
		})
		if err != nil {
			logger.Fatal().Err(err).Str("customer", in.Name).Msg("create invoice")
		}
		logger.Info().Str("invoice", inv.Number).Float64("total", inv.Totals.Total).Msg("seeded invoice")
	}
	logger.Info().Str("email", *email).Msg("seeding completed")
}

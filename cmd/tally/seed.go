package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"tally/internal/blob"
	"tally/internal/config"
	"tally/internal/identity"
	"tally/internal/ledger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users with sample hours",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type demoUser struct {
	email    string
	password string
	name     string
	hours    map[string]map[string]float64 // employee -> date -> hours
}

var demoUsers = []demoUser{
	{
		email:    "demo@tally.local",
		password: "demo-password",
		name:     "Demo User",
		hours: map[string]map[string]float64{
			"Meline": {
				"2025-08-25": 7.5,
				"2025-08-26": 8,
				"2025-08-28": 4,
			},
			"Cel": {
				"2025-08-25": 6,
				"2025-08-27": 8,
			},
		},
	},
	{
		email:    "manager@tally.local",
		password: "manager-password",
		name:     "Demo Manager",
		hours: map[string]map[string]float64{
			"Meline": {
				"2025-08-26": 5,
			},
		},
	},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	blobs := blob.NewStore(pool)
	identityStore := identity.NewStore(blobs, cfg.Auth.SessionTTL)
	ledgerService := ledger.NewService(blobs)

	for _, u := range demoUsers {
		_, _, err := identityStore.Signup(ctx, u.email, u.password, u.name)
		if err == identity.ErrDuplicateEmail {
			slog.Info("user already seeded", "email", u.email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.email, err)
		}

		for employee, days := range u.hours {
			for day, hours := range days {
				date, err := time.Parse(ledger.DateLayout, day)
				if err != nil {
					return fmt.Errorf("seeding hours for %s: %w", u.email, err)
				}
				if _, err := ledgerService.SetHours(ctx, u.email, employee, date, hours); err != nil {
					return fmt.Errorf("seeding hours for %s: %w", u.email, err)
				}
			}
		}
		slog.Info("seeded user", "email", u.email, "name", u.name)
	}

	slog.Info("seed complete", "users", len(demoUsers))
	return nil
}

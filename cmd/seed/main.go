package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"membership-platform/internal/config"
	"membership-platform/internal/domain"
	pg "membership-platform/internal/infra/db/postgres"
	"membership-platform/internal/infra/logging"
	"membership-platform/internal/usecase"
)

// Seeds a small plan and service catalog for local testing. No-op when the
// catalog already has entries.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := pg.MustConnectPostgres(cfg.Database.URL)
	defer pool.Close()

	clock := domain.SystemClock()
	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool), clock, logger)
	serviceUC := usecase.NewServiceUseCase(pg.NewServiceRepo(pool), clock, logger)

	plans, err := planUC.ListAll(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		return
	}

	planSeed := []usecase.PlanInput{
		{Name: "Monthly", DurationDays: 30, PriceMinor: 150_000, Perks: []string{"gym"}},
		{Name: "Annual", DurationDays: 365, PriceMinor: 1_200_000, Perks: []string{"gym", "pool"}},
		{Name: "Lifetime", IsLifetime: true, PriceMinor: 9_900_000, Perks: []string{"gym", "pool", "club"}},
	}
	for _, in := range planSeed {
		p, err := planUC.Create(ctx, in)
		if err != nil {
			log.Fatalf("seed plan %q: %v", in.Name, err)
		}
		fmt.Printf("created plan %s (%s)\n", p.Name, p.ID)
	}

	serviceSeed := []usecase.ServiceInput{
		{Name: "Locker", DurationDays: 0, PriceMinor: 50_000},
		{Name: "Personal Training", DurationDays: 30, PriceMinor: 400_000},
	}
	for _, in := range serviceSeed {
		s, err := serviceUC.Create(ctx, in)
		if err != nil {
			log.Fatalf("seed service %q: %v", in.Name, err)
		}
		fmt.Printf("created service %s (%s)\n", s.Name, s.ID)
	}
}

package jobs

import (
	"context"
	"log"

	"sports-prediction/internal/services"
)

// MarketSeeder periodically opens markets for upcoming events
type MarketSeeder struct {
	service *services.MarketSeederService
}

func NewMarketSeeder(service *services.MarketSeederService) *MarketSeeder {
	return &MarketSeeder{service: service}
}

// Run seeds one round of upcoming markets
func (ms *MarketSeeder) Run(ctx context.Context) {
	if err := ms.service.SeedUpcomingMarkets(ctx); err != nil {
		log.Printf("[MarketSeeder] Seed error: %v", err)
	}
}

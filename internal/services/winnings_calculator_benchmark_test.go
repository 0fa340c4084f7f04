package services

import (
	"testing"
	"time"

	"sports-prediction/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func benchmarkMarket(pool int64) *models.Market {
	creator := uuid.New()
	return &models.Market{
		ID:               uuid.New(),
		Title:            "Arsenal vs Chelsea",
		Sport:            "Football",
		HomeTeam:         "Arsenal",
		AwayTeam:         "Chelsea",
		EventID:          "evt-bench",
		StartsAt:         time.Now().Add(time.Hour),
		Status:           models.MarketStatusScheduled,
		EntryFee:         10000,
		TotalPool:        pool,
		PlatformFeePct:   decimal.NewFromFloat(0.05),
		CreatorRewardPct: decimal.NewFromFloat(0.02),
		CreatedBy:        &creator,
	}
}

func BenchmarkSettle(b *testing.B) {
	// Large market: 10k entries spread over the three outcomes
	const entries = 10000
	outcomes := models.ValidOutcomes()

	market := benchmarkMarket(int64(entries) * 10000)
	participants := make([]*models.Participant, 0, entries)
	for i := 0; i < entries; i++ {
		participants = append(participants, &models.Participant{
			ID:          uuid.New(),
			MarketID:    market.ID,
			UserID:      uuid.New(),
			Prediction:  outcomes[i%len(outcomes)],
			EntryAmount: 10000,
		})
	}

	policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
	if err != nil {
		b.Fatalf("failed to build fee policy: %v", err)
	}
	calc := NewWinningsCalculator()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		settlement, err := calc.Settle(market, participants, models.OutcomeHome, policy)
		if err != nil {
			b.Fatalf("Settle failed: %v", err)
		}
		if len(settlement.Winners) == 0 {
			b.Fatal("expected winners")
		}
	}
}

func BenchmarkPotentialWinnings(b *testing.B) {
	const entries = 1000
	outcomes := models.ValidOutcomes()

	market := benchmarkMarket(int64(entries) * 10000)
	participants := make([]*models.Participant, 0, entries)
	for i := 0; i < entries; i++ {
		participants = append(participants, &models.Participant{
			ID:          uuid.New(),
			MarketID:    market.ID,
			UserID:      uuid.New(),
			Prediction:  outcomes[i%len(outcomes)],
			EntryAmount: 10000,
		})
	}

	policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
	if err != nil {
		b.Fatalf("failed to build fee policy: %v", err)
	}
	calc := NewWinningsCalculator()

	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			i++
			outcome := outcomes[i%len(outcomes)]
			if _, err := calc.PotentialWinnings(market, participants, outcome, 10000, policy); err != nil {
				b.Fatalf("PotentialWinnings failed: %v", err)
			}
		}
	})
}

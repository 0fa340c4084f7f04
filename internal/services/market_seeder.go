package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"
	"sports-prediction/internal/sportsdata"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const UpcomingEventsLimit = 20

// SeededSports are the sports the platform opens markets for
var SeededSports = []string{"Football", "Basketball", "Tennis"}

// DefaultSeedEntryFee is the entry fee stamped on feed-seeded markets, in
// atomic units
var DefaultSeedEntryFee = int64(10000)

// MarketSeederService opens markets for upcoming events from the sports
// feed. Seeded markets belong to the platform's service account.
type MarketSeederService struct {
	repo      *repository.Repository
	markets   *MarketService
	feed      *sportsdata.Client
	creatorID uuid.UUID
}

func NewMarketSeederService(
	repo *repository.Repository,
	markets *MarketService,
	feed *sportsdata.Client,
	creatorID uuid.UUID,
) *MarketSeederService {
	return &MarketSeederService{
		repo:      repo,
		markets:   markets,
		feed:      feed,
		creatorID: creatorID,
	}
}

// SeedUpcomingMarkets fetches upcoming events for every seeded sport
// concurrently and opens markets for the new ones
func (s *MarketSeederService) SeedUpcomingMarkets(ctx context.Context) error {
	log.Println("[Seeder] Starting market seeding...")

	errChan := make(chan error, len(SeededSports))
	var wg sync.WaitGroup

	for _, sport := range SeededSports {
		wg.Add(1)
		go func(sp string) {
			defer wg.Done()
			if err := s.seedSport(ctx, sp); err != nil {
				errChan <- fmt.Errorf("error seeding %s: %w", sp, err)
			}
		}(sport)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		if err != nil {
			errs = append(errs, err)
			log.Printf("[Seeder] Seed error: %v", err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("seeding completed with errors: %v", errs)
	}

	log.Println("[Seeder] Market seeding completed successfully")
	return nil
}

// seedSport opens markets for one sport's upcoming events
func (s *MarketSeederService) seedSport(ctx context.Context, sport string) error {
	events, err := s.feed.ListUpcomingEvents(ctx, sport, UpcomingEventsLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	created := 0
	for _, event := range events {
		ok, err := s.storeMarket(ctx, event)
		if err != nil {
			log.Printf("[Seeder] Failed to store market for event %s: %v", event.ID, err)
			continue
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		log.Printf("[Seeder] Created %d markets for %s", created, sport)
	}
	return nil
}

// storeMarket creates a market for an event unless one already tracks it
func (s *MarketSeederService) storeMarket(ctx context.Context, event sportsdata.Event) (bool, error) {
	if _, err := s.repo.GetMarketByEventID(ctx, event.ID); err == nil {
		return false, nil
	} else if err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("failed to check existing market: %w", err)
	}

	if !event.StartsAt.After(time.Now()) {
		return false, nil
	}

	creatorID := s.creatorID
	_, err := s.markets.CreateMarket(ctx, &models.CreateMarketRequest{
		Title:    fmt.Sprintf("%s vs %s", event.HomeTeam, event.AwayTeam),
		Sport:    event.Sport,
		HomeTeam: event.HomeTeam,
		AwayTeam: event.AwayTeam,
		EventID:  event.ID,
		StartsAt: event.StartsAt,
		EntryFee: DefaultSeedEntryFee,
	}, &creatorID)
	if err != nil {
		return false, err
	}

	return true, nil
}

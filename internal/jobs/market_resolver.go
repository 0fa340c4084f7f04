package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"
	"sports-prediction/internal/services"
	"sports-prediction/internal/sportsdata"
)

// MarketResolver settles markets from final match results reported by the
// sports feed. It is the only path through which markets resolve.
type MarketResolver struct {
	repo       *repository.Repository
	resolution *services.ResolutionService
	markets    *services.MarketService
	feed       *sportsdata.Client
	batchSize  int
}

// NewMarketResolver creates a new market resolver job
func NewMarketResolver(
	repo *repository.Repository,
	resolution *services.ResolutionService,
	markets *services.MarketService,
	feed *sportsdata.Client,
	batchSize int,
) *MarketResolver {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MarketResolver{
		repo:       repo,
		resolution: resolution,
		markets:    markets,
		feed:       feed,
		batchSize:  batchSize,
	}
}

// Run processes one batch of markets whose events have started, plus any
// postponed markets awaiting a new date
func (mr *MarketResolver) Run(ctx context.Context) {
	mr.resolveDueMarkets(ctx)
	mr.revivePostponedMarkets(ctx)
}

// resolveDueMarkets checks the feed for every market whose event has
// started and settles the finished ones
func (mr *MarketResolver) resolveDueMarkets(ctx context.Context) {
	markets, err := mr.repo.GetMarketsDueForResolution(ctx, time.Now(), mr.batchSize)
	if err != nil {
		log.Printf("[MarketResolver] Error fetching due markets: %v", err)
		return
	}
	if len(markets) == 0 {
		return
	}

	log.Printf("[MarketResolver] Checking %d due markets", len(markets))
	resolvedCount := 0

	for _, market := range markets {
		event, err := mr.feed.GetEvent(ctx, market.EventID)
		if err != nil {
			log.Printf("[MarketResolver] Error fetching event %s: %v", market.EventID, err)
			continue
		}

		switch event.Status {
		case sportsdata.EventStatusFinished:
			if mr.resolveMarket(ctx, market, event) {
				resolvedCount++
			}
		case sportsdata.EventStatusLive:
			mr.advance(ctx, market, models.MarketStatusLive)
		case sportsdata.EventStatusPostponed:
			mr.advance(ctx, market, models.MarketStatusPostponed)
		case sportsdata.EventStatusCancelled:
			if _, err := mr.markets.CancelMarket(ctx, market.ID); err != nil {
				log.Printf("[MarketResolver] Error cancelling market %s: %v", market.ID, err)
			} else {
				log.Printf("[MarketResolver] Cancelled market %s: event called off", market.ID)
			}
		}
	}

	if resolvedCount > 0 {
		log.Printf("[MarketResolver] Resolved %d markets", resolvedCount)
	}
}

// resolveMarket settles one market from a finished event's score
func (mr *MarketResolver) resolveMarket(ctx context.Context, market *models.Market, event *sportsdata.Event) bool {
	home, away, ok := event.FinalScore()
	if !ok {
		log.Printf("[MarketResolver] Event %s finished without a final score", event.ID)
		return false
	}

	_, err := mr.resolution.ResolveFromScore(ctx, market.ID, home, away)
	if err != nil {
		var already *services.AlreadyResolvedError
		if errors.As(err, &already) {
			// Another worker settled it first
			return false
		}
		log.Printf("[MarketResolver] Error resolving market %s: %v", market.ID, err)
		return false
	}

	return true
}

// advance moves a market to a new in-flight status, guarded on its current
// one
func (mr *MarketResolver) advance(ctx context.Context, market *models.Market, to models.MarketStatus) {
	if market.Status == to {
		return
	}
	ok, err := mr.repo.TransitionMarketStatus(ctx, market.ID, market.Status, to)
	if err != nil {
		log.Printf("[MarketResolver] Error moving market %s to %s: %v", market.ID, to, err)
		return
	}
	if ok {
		log.Printf("[MarketResolver] Market %s moved to %s", market.ID, to)
	}
}

// revivePostponedMarkets returns postponed markets to the schedule once the
// feed reports a new start time
func (mr *MarketResolver) revivePostponedMarkets(ctx context.Context) {
	markets, _, err := mr.repo.ListMarkets(ctx, models.MarketStatusPostponed, "", mr.batchSize, 0)
	if err != nil {
		log.Printf("[MarketResolver] Error fetching postponed markets: %v", err)
		return
	}

	for _, market := range markets {
		event, err := mr.feed.GetEvent(ctx, market.EventID)
		if err != nil {
			log.Printf("[MarketResolver] Error fetching event %s: %v", market.EventID, err)
			continue
		}

		switch event.Status {
		case sportsdata.EventStatusScheduled:
			market.Status = models.MarketStatusScheduled
			market.StartsAt = event.StartsAt
			if err := mr.repo.UpdateMarket(ctx, market); err != nil {
				log.Printf("[MarketResolver] Error rescheduling market %s: %v", market.ID, err)
				continue
			}
			log.Printf("[MarketResolver] Market %s rescheduled for %s", market.ID, event.StartsAt)
		case sportsdata.EventStatusLive, sportsdata.EventStatusFinished:
			// Back in play; the due scan picks it up from here
			mr.advance(ctx, market, models.MarketStatusLive)
		case sportsdata.EventStatusCancelled:
			if _, err := mr.markets.CancelMarket(ctx, market.ID); err != nil {
				log.Printf("[MarketResolver] Error cancelling market %s: %v", market.ID, err)
			}
		}
	}
}

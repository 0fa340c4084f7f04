package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"sports-prediction/internal/currency"
	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// MinEntryFee is the smallest allowed market entry fee in atomic units.
	MinEntryFee = int64(100)

	// MaxEntryFee is the largest allowed market entry fee in atomic units.
	MaxEntryFee = int64(100000000)
)

type MarketService struct {
	repo       *repository.Repository
	settings   *SettingsService
	ledger     *TransactionService
	calculator *WinningsCalculator
}

func NewMarketService(
	repo *repository.Repository,
	settings *SettingsService,
	ledger *TransactionService,
	calculator *WinningsCalculator,
) *MarketService {
	return &MarketService{
		repo:       repo,
		settings:   settings,
		ledger:     ledger,
		calculator: calculator,
	}
}

// CreateMarket creates a Scheduled market for an upcoming event. The
// platform's current fee percentages are stamped onto the market so later
// settings changes never affect it.
func (s *MarketService) CreateMarket(ctx context.Context, req *models.CreateMarketRequest, creatorID *uuid.UUID) (*models.Market, error) {
	if err := currency.ValidateBounds(req.EntryFee, MinEntryFee, MaxEntryFee); err != nil {
		return nil, &ConfigurationError{Field: "entry_fee", Reason: err.Error()}
	}
	if !req.StartsAt.After(time.Now()) {
		return nil, &ConfigurationError{Field: "starts_at", Reason: "event start must be in the future"}
	}

	policy, err := s.settings.DefaultFeePolicy(ctx)
	if err != nil {
		return nil, err
	}

	market := &models.Market{
		ID:               uuid.New(),
		Title:            req.Title,
		Sport:            req.Sport,
		HomeTeam:         req.HomeTeam,
		AwayTeam:         req.AwayTeam,
		EventID:          req.EventID,
		StartsAt:         req.StartsAt,
		Status:           models.MarketStatusScheduled,
		EntryFee:         req.EntryFee,
		TotalPool:        0,
		PlatformFeePct:   policy.PlatformPct,
		CreatorRewardPct: policy.CreatorPct,
		CreatedBy:        creatorID,
	}

	if err := s.repo.CreateMarket(ctx, market); err != nil {
		return nil, &PersistenceError{Op: "create market", Err: err}
	}

	log.Printf("[Market] Created market %s: %s vs %s, entry fee %s",
		market.ID, market.HomeTeam, market.AwayTeam, currency.Format(market.EntryFee))

	return market, nil
}

// JoinMarket enters a user into a market with their predicted outcome. The
// entry fee moves from the user's balance into the pool, a completed
// market_entry transaction records it, and the participant's estimated
// payout is stored. All of it commits atomically or not at all.
func (s *MarketService) JoinMarket(ctx context.Context, marketID, userID uuid.UUID, prediction string) (*models.Participant, error) {
	if !models.IsValidOutcome(prediction) {
		return nil, &ConfigurationError{Field: "prediction", Reason: "unknown outcome label " + prediction}
	}

	var participant *models.Participant

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		market, err := txRepo.GetMarketByID(ctx, marketID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "market", ID: marketID.String()}
			}
			return fmt.Errorf("failed to get market: %w", err)
		}

		if market.Status != models.MarketStatusScheduled || !time.Now().Before(market.StartsAt) {
			return ErrMarketNotJoinable
		}

		if _, err := txRepo.GetParticipant(ctx, marketID, userID); err == nil {
			return ErrAlreadyJoined
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check existing entry: %w", err)
		}

		if _, err := txRepo.GetUserByID(ctx, userID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "user", ID: userID.String()}
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		debited, err := txRepo.DebitUserBalance(ctx, userID, market.EntryFee)
		if err != nil {
			return &PersistenceError{Op: "debit entry fee", Err: err}
		}
		if !debited {
			return ErrInsufficientBalance
		}

		policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
		if err != nil {
			return err
		}

		others, err := txRepo.GetMarketParticipants(ctx, marketID)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}

		potential, err := s.calculator.PotentialWinnings(market, others, prediction, market.EntryFee, policy)
		if err != nil {
			return err
		}

		participant = &models.Participant{
			ID:                uuid.New(),
			MarketID:          marketID,
			UserID:            userID,
			Prediction:        prediction,
			EntryAmount:       market.EntryFee,
			PotentialWinnings: potential,
			JoinedAt:          time.Now(),
		}
		if err := txRepo.CreateParticipant(ctx, participant); err != nil {
			return &PersistenceError{Op: "create participant", Err: err}
		}

		adjusted, err := txRepo.AdjustMarketPool(ctx, marketID, market.EntryFee)
		if err != nil {
			return &PersistenceError{Op: "grow market pool", Err: err}
		}
		if !adjusted {
			// Status changed between the check above and this update.
			return ErrMarketNotJoinable
		}

		_, err = s.ledger.WithTx(txRepo).Create(ctx, TransactionSpec{
			UserID:      userID,
			MarketID:    &marketID,
			Type:        models.TransactionTypeMarketEntry,
			Amount:      market.EntryFee,
			Description: fmt.Sprintf("Entry into market %q (%s)", market.Title, prediction),
			Metadata: map[string]interface{}{
				"prediction": prediction,
			},
			Completed: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Market] User %s joined market %s predicting %s", userID, marketID, prediction)
	return participant, nil
}

// LeaveMarket withdraws a user's entry while the market is still open. The
// entry fee returns to the user's balance and the pool shrinks accordingly.
func (s *MarketService) LeaveMarket(ctx context.Context, marketID, userID uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		market, err := txRepo.GetMarketByID(ctx, marketID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "market", ID: marketID.String()}
			}
			return fmt.Errorf("failed to get market: %w", err)
		}

		if market.Status != models.MarketStatusScheduled || !time.Now().Before(market.StartsAt) {
			return ErrMarketNotJoinable
		}

		participant, err := txRepo.GetParticipant(ctx, marketID, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrParticipantNotFound
			}
			return fmt.Errorf("failed to get participant: %w", err)
		}

		removed, err := txRepo.DeleteParticipant(ctx, marketID, userID)
		if err != nil {
			return &PersistenceError{Op: "remove participant", Err: err}
		}
		if !removed {
			return ErrParticipantNotFound
		}

		if err := txRepo.CreditUserBalance(ctx, userID, participant.EntryAmount); err != nil {
			return &PersistenceError{Op: "refund entry fee", Err: err}
		}

		adjusted, err := txRepo.AdjustMarketPool(ctx, marketID, -participant.EntryAmount)
		if err != nil {
			return &PersistenceError{Op: "shrink market pool", Err: err}
		}
		if !adjusted {
			// Status changed between the check above and this update.
			return ErrMarketNotJoinable
		}

		_, err = s.ledger.WithTx(txRepo).Create(ctx, TransactionSpec{
			UserID:      userID,
			MarketID:    &marketID,
			Type:        models.TransactionTypeAutomatedTransfer,
			Amount:      participant.EntryAmount,
			Description: fmt.Sprintf("Refund for leaving market %q", market.Title),
			Metadata: map[string]interface{}{
				"reason": "entry withdrawn",
			},
			Completed: true,
		})
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("[Market] User %s left market %s", userID, marketID)
	return nil
}

// CancelMarket voids a non-terminal market: every participant gets their
// entry fee back, the pool zeroes, and the market moves to Cancelled.
func (s *MarketService) CancelMarket(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	var (
		market   *models.Market
		refunded int
	)

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		var err error
		market, err = txRepo.GetMarketByID(ctx, marketID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "market", ID: marketID.String()}
			}
			return fmt.Errorf("failed to get market: %w", err)
		}

		cancelled, err := txRepo.CancelMarket(ctx, marketID)
		if err != nil {
			return &PersistenceError{Op: "cancel market", Err: err}
		}
		if !cancelled {
			return &AlreadyResolvedError{MarketID: marketID, Status: market.Status}
		}

		// Read participants after the status flip so a withdrawal
		// committed in between is not refunded twice.
		participants, err := txRepo.GetMarketParticipants(ctx, marketID)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}

		ledger := s.ledger.WithTx(txRepo)
		for _, p := range participants {
			if err := txRepo.CreditUserBalance(ctx, p.UserID, p.EntryAmount); err != nil {
				return &PersistenceError{Op: "refund participant", Err: err}
			}
			_, err := ledger.Create(ctx, TransactionSpec{
				UserID:      p.UserID,
				MarketID:    &marketID,
				Type:        models.TransactionTypeAutomatedTransfer,
				Amount:      p.EntryAmount,
				Description: fmt.Sprintf("Refund for cancelled market %q", market.Title),
				Metadata: map[string]interface{}{
					"reason": "market cancelled",
				},
				Completed: true,
			})
			if err != nil {
				return err
			}
			refunded++
		}

		market.Status = models.MarketStatusCancelled
		market.TotalPool = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Market] Cancelled market %s, refunded %d participants", marketID, refunded)
	return market, nil
}

// GetMarket retrieves a market with its creator and participants.
func (s *MarketService) GetMarket(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	market, err := s.repo.GetMarketDetail(ctx, marketID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "market", ID: marketID.String()}
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return market, nil
}

// ListMarkets retrieves markets filtered by optional status and sport.
func (s *MarketService) ListMarkets(
	ctx context.Context,
	status models.MarketStatus,
	sport string,
	limit, offset int,
) ([]*models.Market, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListMarkets(ctx, status, sport, limit, offset)
}

// GetMarketParticipants retrieves all entries in a market, oldest first.
func (s *MarketService) GetMarketParticipants(ctx context.Context, marketID uuid.UUID) ([]*models.Participant, error) {
	if _, err := s.repo.GetMarketByID(ctx, marketID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "market", ID: marketID.String()}
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return s.repo.GetMarketParticipants(ctx, marketID)
}

// PotentialWinnings previews what a new entry predicting the given outcome
// would pay out if that outcome wins, given the market's current pool.
func (s *MarketService) PotentialWinnings(ctx context.Context, marketID uuid.UUID, prediction string) (int64, error) {
	if !models.IsValidOutcome(prediction) {
		return 0, &ConfigurationError{Field: "prediction", Reason: "unknown outcome label " + prediction}
	}

	market, err := s.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, &NotFoundError{Resource: "market", ID: marketID.String()}
		}
		return 0, fmt.Errorf("failed to get market: %w", err)
	}

	participants, err := s.repo.GetMarketParticipants(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("failed to get participants: %w", err)
	}

	policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
	if err != nil {
		return 0, err
	}

	return s.calculator.PotentialWinnings(market, participants, prediction, market.EntryFee, policy)
}

package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResolutionService struct {
	repo            *repository.Repository
	calculator      *WinningsCalculator
	ledger          *TransactionService
	platformAccount uuid.UUID
}

// NewResolutionService wires a resolution service. platformAccount is the
// service-account user that carries platform_fee ledger entries.
func NewResolutionService(
	repo *repository.Repository,
	calculator *WinningsCalculator,
	ledger *TransactionService,
	platformAccount uuid.UUID,
) *ResolutionService {
	return &ResolutionService{
		repo:            repo,
		calculator:      calculator,
		ledger:          ledger,
		platformAccount: platformAccount,
	}
}

// ResolutionResult reports one completed market resolution.
type ResolutionResult struct {
	MarketID     uuid.UUID             `json:"market_id"`
	Outcome      string                `json:"outcome"`
	ResolvedAt   time.Time             `json:"resolved_at"`
	BatchID      string                `json:"batch_id,omitempty"`
	Settlement   *Settlement           `json:"settlement"`
	Transactions []*models.Transaction `json:"transactions,omitempty"`
}

// ResolveMarket settles a market to winningOutcome: winners receive an equal
// split of the post-fee pool, fees post to the ledger, and the market moves
// to Finished. The whole settlement is one atomic unit of work; a market
// already in a terminal status fails with AlreadyResolvedError and the first
// resolution's ledger entries stand untouched.
func (s *ResolutionService) ResolveMarket(ctx context.Context, marketID uuid.UUID, winningOutcome string) (*ResolutionResult, error) {
	market, err := s.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "market", ID: marketID.String()}
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	if market.Status.IsTerminal() {
		return nil, &AlreadyResolvedError{MarketID: marketID, Status: market.Status}
	}
	if !models.IsValidOutcome(winningOutcome) {
		return nil, &ConfigurationError{Field: "winning_outcome", Reason: "unknown outcome label " + winningOutcome}
	}

	// Re-validate the stored fee percentages. Market creation already
	// validated them, but a misconfigured market must never settle.
	policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var result *ResolutionResult

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// Compare-and-swap on the status guards against a concurrent
		// resolution: exactly one caller transitions the market.
		finished, err := txRepo.FinishMarket(ctx, marketID, winningOutcome, now)
		if err != nil {
			return &PersistenceError{Op: "finish market", Err: err}
		}
		if !finished {
			if fresh, ferr := txRepo.GetMarketByID(ctx, marketID); ferr == nil {
				return &AlreadyResolvedError{MarketID: marketID, Status: fresh.Status}
			}
			return &AlreadyResolvedError{MarketID: marketID, Status: market.Status}
		}

		// Settlement math must see the pool and participants as of this
		// unit of work. The snapshot read before the transaction can miss
		// a withdrawal committed since.
		market, err = txRepo.GetMarketByID(ctx, marketID)
		if err != nil {
			return &PersistenceError{Op: "reload market", Err: err}
		}

		participants, err := txRepo.GetMarketParticipants(ctx, marketID)
		if err != nil {
			return &PersistenceError{Op: "load participants", Err: err}
		}

		settlement, err := s.calculator.Settle(market, participants, winningOutcome, policy)
		if err != nil {
			return err
		}

		transactions, batchID, err := s.applySettlement(ctx, txRepo, market, settlement, policy, now)
		if err != nil {
			return err
		}

		result = &ResolutionResult{
			MarketID:     marketID,
			Outcome:      winningOutcome,
			ResolvedAt:   now,
			BatchID:      batchID,
			Settlement:   settlement,
			Transactions: transactions,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Resolution] Market %s resolved to %s: %d winners, %d per winner, fee %d, reward %d",
		marketID, winningOutcome, len(result.Settlement.Winners),
		result.Settlement.WinningsPerWinner, result.Settlement.PlatformFee, result.Settlement.CreatorReward)

	return result, nil
}

// applySettlement writes the ledger entries and balance updates for a
// computed settlement inside the resolution's unit of work. Any individual
// failure aborts the whole operation.
func (s *ResolutionService) applySettlement(
	ctx context.Context,
	txRepo *repository.Repository,
	market *models.Market,
	settlement *Settlement,
	policy FeePolicy,
	resolvedAt time.Time,
) ([]*models.Transaction, string, error) {
	batchID := uuid.New().String()
	ledger := s.ledger.WithTx(txRepo)
	marketID := market.ID

	baseMeta := func() map[string]interface{} {
		return map[string]interface{}{
			"automated":          true,
			"outcome":            settlement.WinningOutcome,
			"platform_fee_pct":   policy.PlatformPct.String(),
			"creator_reward_pct": policy.CreatorPct.String(),
		}
	}

	// Winners always get their settled amount recorded, but zero amounts
	// never reach the ledger.
	for _, w := range settlement.Winners {
		if err := txRepo.UpdateParticipantWinnings(ctx, w.ID, settlement.WinningsPerWinner); err != nil {
			return nil, "", &PersistenceError{Op: "record participant winnings", Err: err}
		}
	}

	var specs []TransactionSpec
	winnersPosted := 0
	if settlement.WinningsPerWinner > 0 {
		for _, w := range settlement.Winners {
			meta := baseMeta()
			meta["participant_id"] = w.ID.String()
			meta["winner_count"] = len(settlement.Winners)
			specs = append(specs, TransactionSpec{
				UserID:      w.UserID,
				MarketID:    &marketID,
				Type:        models.TransactionTypeWinnings,
				Amount:      settlement.WinningsPerWinner,
				Description: fmt.Sprintf("Winnings payout for market %q (%s)", market.Title, settlement.WinningOutcome),
				Metadata:    meta,
			})
		}
		winnersPosted = len(specs)
	}

	creatorIdx := -1
	if settlement.CreatorReward > 0 && market.CreatedBy != nil {
		creatorIdx = len(specs)
		specs = append(specs, TransactionSpec{
			UserID:      *market.CreatedBy,
			MarketID:    &marketID,
			Type:        models.TransactionTypeCreatorReward,
			Amount:      settlement.CreatorReward,
			Description: fmt.Sprintf("Creator reward for market %q", market.Title),
			Metadata:    baseMeta(),
		})
	}

	platformIdx := -1
	if settlement.PlatformFee > 0 {
		platformIdx = len(specs)
		specs = append(specs, TransactionSpec{
			UserID:      s.platformAccount,
			MarketID:    &marketID,
			Type:        models.TransactionTypePlatformFee,
			Amount:      settlement.PlatformFee,
			Description: fmt.Sprintf("Platform fee for market %q", market.Title),
			Metadata:    baseMeta(),
		})
	}

	if len(specs) == 0 {
		return nil, batchID, nil
	}

	batch, err := ledger.CreateBatch(ctx, specs, batchID)
	if err != nil {
		return nil, "", err
	}
	if len(batch.Failed) > 0 {
		// Partial batch success is not acceptable for a settlement.
		return nil, "", batch.Failed[0].Err
	}

	completionMeta := map[string]interface{}{"credited_at": resolvedAt.Format(time.RFC3339)}

	for i := 0; i < winnersPosted; i++ {
		w := settlement.Winners[i]
		if err := txRepo.CreditUserBalance(ctx, w.UserID, settlement.WinningsPerWinner); err != nil {
			return nil, "", &PersistenceError{Op: "credit winner balance", Err: err}
		}
		completed, err := ledger.Complete(ctx, batch.Created[i].ID, completionMeta)
		if err != nil {
			return nil, "", err
		}
		batch.Created[i] = completed
	}

	if creatorIdx >= 0 {
		if err := txRepo.CreditUserBalance(ctx, *market.CreatedBy, settlement.CreatorReward); err != nil {
			return nil, "", &PersistenceError{Op: "credit creator reward", Err: err}
		}
		completed, err := ledger.Complete(ctx, batch.Created[creatorIdx].ID, completionMeta)
		if err != nil {
			return nil, "", err
		}
		batch.Created[creatorIdx] = completed
	}

	if platformIdx >= 0 {
		completed, err := ledger.Complete(ctx, batch.Created[platformIdx].ID, completionMeta)
		if err != nil {
			return nil, "", err
		}
		batch.Created[platformIdx] = completed
	}

	return batch.Created, batchID, nil
}

// CalculateWinnings is the read-only settlement preview: the same
// computation ResolveMarket performs, without persisting anything. An empty
// outcome falls back to the market's recorded resolution outcome.
func (s *ResolutionService) CalculateWinnings(ctx context.Context, marketID uuid.UUID, outcome string) (*Settlement, error) {
	market, participants, err := s.loadMarketState(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if outcome == "" {
		if market.ResolutionOutcome == nil {
			return nil, &ConfigurationError{Field: "winning_outcome", Reason: "market is unresolved and no outcome was supplied"}
		}
		outcome = *market.ResolutionOutcome
	}

	policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
	if err != nil {
		return nil, err
	}

	return s.calculator.Settle(market, participants, outcome, policy)
}

// CalculateCreatorReward previews the creator reward for a market without
// persisting anything.
func (s *ResolutionService) CalculateCreatorReward(ctx context.Context, marketID uuid.UUID) (int64, error) {
	market, err := s.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, &NotFoundError{Resource: "market", ID: marketID.String()}
		}
		return 0, fmt.Errorf("failed to get market: %w", err)
	}

	if market.CreatedBy == nil {
		return 0, nil
	}

	policy, err := NewFeePolicy(market.PlatformFeePct, market.CreatorRewardPct)
	if err != nil {
		return 0, err
	}

	return policy.CreatorReward(market.TotalPool), nil
}

// ResolveFromScore maps a final score to an outcome and settles the market.
func (s *ResolutionService) ResolveFromScore(ctx context.Context, marketID uuid.UUID, homeScore, awayScore int) (*ResolutionResult, error) {
	return s.ResolveMarket(ctx, marketID, OutcomeFromScore(homeScore, awayScore))
}

// OutcomeFromScore maps a final score to the winning outcome label.
func OutcomeFromScore(homeScore, awayScore int) string {
	switch {
	case homeScore > awayScore:
		return models.OutcomeHome
	case homeScore < awayScore:
		return models.OutcomeAway
	default:
		return models.OutcomeDraw
	}
}

// ManualResolve is the retired operator-triggered resolution entry point.
// It rejects unconditionally: markets resolve only from match results.
func (s *ResolutionService) ManualResolve(ctx context.Context, marketID uuid.UUID, callerID uuid.UUID, outcome string) error {
	log.Printf("[Resolution] Rejected manual resolution of market %s by user %s", marketID, callerID)
	return &DeprecatedOperationError{Operation: "manual market resolution"}
}

// CanUserResolveMarket reports whether a user may resolve a market by hand.
// Always false, for every caller including admins.
func (s *ResolutionService) CanUserResolveMarket(userID uuid.UUID, market *models.Market) bool {
	return false
}

func (s *ResolutionService) loadMarketState(ctx context.Context, marketID uuid.UUID) (*models.Market, []*models.Participant, error) {
	market, err := s.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, &NotFoundError{Resource: "market", ID: marketID.String()}
		}
		return nil, nil, fmt.Errorf("failed to get market: %w", err)
	}

	participants, err := s.repo.GetMarketParticipants(ctx, marketID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get participants: %w", err)
	}

	return market, participants, nil
}

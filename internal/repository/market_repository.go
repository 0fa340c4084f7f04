package repository

import (
	"context"
	"time"

	"sports-prediction/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateMarket creates a new market
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarketByID retrieves a market by ID
func (r *Repository) GetMarketByID(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// GetMarketDetail retrieves a market with its creator and participants
// preloaded
func (r *Repository) GetMarketDetail(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Participants").
		Preload("Participants.User").
		Where("id = ?", marketID).
		First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// GetMarketByEventID retrieves the market tracking an external event
func (r *Repository) GetMarketByEventID(ctx context.Context, eventID string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// UpdateMarket saves market changes
func (r *Repository) UpdateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

// ListMarkets retrieves markets filtered by optional status and sport
func (r *Repository) ListMarkets(
	ctx context.Context,
	status models.MarketStatus,
	sport string,
	limit, offset int,
) ([]*models.Market, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Market{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if sport != "" {
		query = query.Where("sport = ?", sport)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var markets []*models.Market
	err := query.
		Order("starts_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&markets).Error
	if err != nil {
		return nil, 0, err
	}

	return markets, total, nil
}

// GetMarketsDueForResolution retrieves non-terminal markets whose event
// has already started
func (r *Repository) GetMarketsDueForResolution(ctx context.Context, now time.Time, limit int) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("status IN ? AND starts_at <= ?", []models.MarketStatus{
			models.MarketStatusScheduled,
			models.MarketStatusLive,
			models.MarketStatusInPlay,
		}, now).
		Order("starts_at ASC").
		Limit(limit).
		Find(&markets).Error
	if err != nil {
		return nil, err
	}
	return markets, nil
}

// FinishMarket transitions a market to Finished with its resolution outcome,
// guarded so only non-terminal markets transition. Returns false when the
// market was already Finished or Cancelled (or does not exist).
func (r *Repository) FinishMarket(
	ctx context.Context,
	marketID uuid.UUID,
	outcome string,
	resolvedAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND status NOT IN ?", marketID, []models.MarketStatus{
			models.MarketStatusFinished,
			models.MarketStatusCancelled,
		}).
		Updates(map[string]interface{}{
			"status":             models.MarketStatusFinished,
			"resolution_outcome": outcome,
			"resolved_at":        resolvedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// TransitionMarketStatus moves a market from one status to another, guarded
// by the expected current status. Returns false when the market was not in
// the expected status.
func (r *Repository) TransitionMarketStatus(
	ctx context.Context,
	marketID uuid.UUID,
	from, to models.MarketStatus,
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND status = ?", marketID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelMarket transitions a non-terminal market to Cancelled and zeroes its
// pool. Returns false when the market was already terminal.
func (r *Repository) CancelMarket(ctx context.Context, marketID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND status NOT IN ?", marketID, []models.MarketStatus{
			models.MarketStatusFinished,
			models.MarketStatusCancelled,
		}).
		Updates(map[string]interface{}{
			"status":     models.MarketStatusCancelled,
			"total_pool": 0,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AdjustMarketPool atomically adds delta (which may be negative) to a
// market's total pool, guarded so only Scheduled markets change. Returns
// false when the market has left Scheduled (or does not exist), so a join
// or leave racing a resolution fails instead of mutating a settled pool.
func (r *Repository) AdjustMarketPool(ctx context.Context, marketID uuid.UUID, delta int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND status = ?", marketID, models.MarketStatusScheduled).
		Update("total_pool", gorm.Expr("total_pool + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateParticipant creates a market participant
func (r *Repository) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

// GetParticipant retrieves one user's entry in a market
func (r *Repository) GetParticipant(ctx context.Context, marketID, userID uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND user_id = ?", marketID, userID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// GetMarketParticipants retrieves all participants of a market
func (r *Repository) GetMarketParticipants(ctx context.Context, marketID uuid.UUID) ([]*models.Participant, error) {
	var participants []*models.Participant
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// DeleteParticipant removes a user's entry from a market. Returns false when
// no entry existed.
func (r *Repository) DeleteParticipant(ctx context.Context, marketID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("market_id = ? AND user_id = ?", marketID, userID).
		Delete(&models.Participant{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateParticipantWinnings records the settled payout for a winning
// participant
func (r *Repository) UpdateParticipantWinnings(ctx context.Context, participantID uuid.UUID, amount int64) error {
	result := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ?", participantID).
		Update("actual_winnings", amount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

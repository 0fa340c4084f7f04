package services

import (
	"context"
	"fmt"
	"log"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettingsService struct {
	repo *repository.Repository
}

func NewSettingsService(repo *repository.Repository) *SettingsService {
	return &SettingsService{repo: repo}
}

// GetDecimal reads a decimal-valued setting, returning fallback when the key
// is absent. A present but malformed value is a configuration fault, not a
// reason to silently fall back.
func (s *SettingsService) GetDecimal(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err == gorm.ErrRecordNotFound {
		return fallback, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	value, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return decimal.Zero, &ConfigurationError{Field: key, Reason: "stored value is not a decimal"}
	}
	return value, nil
}

// Set validates and upserts a platform setting. Fee percentage keys must
// parse as decimals within the platform bounds.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	switch key {
	case models.SettingPlatformFeePct, models.SettingCreatorRewardPct:
		pct, err := decimal.NewFromString(value)
		if err != nil {
			return &ConfigurationError{Field: key, Reason: "must be a decimal"}
		}
		if pct.IsNegative() || pct.GreaterThan(MaxFeePct) {
			return &ConfigurationError{
				Field:  key,
				Reason: "must lie between 0 and " + MaxFeePct.String(),
			}
		}
	default:
		return &ConfigurationError{Field: "key", Reason: fmt.Sprintf("unknown setting %q", key)}
	}

	if err := s.repo.UpsertSetting(ctx, key, value); err != nil {
		return &PersistenceError{Op: "upsert setting", Err: err}
	}

	log.Printf("[Settings] %s set to %s", key, value)
	return nil
}

// DefaultFeePolicy assembles the platform-wide fee policy from the settings
// store, with compiled fallbacks for absent keys.
func (s *SettingsService) DefaultFeePolicy(ctx context.Context) (FeePolicy, error) {
	platformPct, err := s.GetDecimal(ctx, models.SettingPlatformFeePct, DefaultPlatformFeePct)
	if err != nil {
		return FeePolicy{}, err
	}
	creatorPct, err := s.GetDecimal(ctx, models.SettingCreatorRewardPct, DefaultCreatorRewardPct)
	if err != nil {
		return FeePolicy{}, err
	}
	return NewFeePolicy(platformPct, creatorPct)
}

package services

import (
	"github.com/shopspring/decimal"
)

// Platform-wide fee bounds and fallbacks. The defaults apply when the
// settings store carries no override; MaxFeePct bounds each percentage
// individually at market creation and again at resolution.
var (
	MaxFeePct               = decimal.NewFromFloat(0.20)
	DefaultPlatformFeePct   = decimal.NewFromFloat(0.05)
	DefaultCreatorRewardPct = decimal.NewFromFloat(0.02)
)

// FeePolicy is the validated pair of fee percentages applied to one market
// resolution. Percentages are rationals in [0,1]. The policy travels as an
// explicit value; nothing reads fee configuration from ambient state.
type FeePolicy struct {
	PlatformPct decimal.Decimal
	CreatorPct  decimal.Decimal
}

// NewFeePolicy validates and returns a fee policy. Each percentage must lie
// in [0, MaxFeePct] and the pair must sum below 1.
func NewFeePolicy(platformPct, creatorPct decimal.Decimal) (FeePolicy, error) {
	if platformPct.IsNegative() {
		return FeePolicy{}, &ConfigurationError{Field: "platform_fee_pct", Reason: "must not be negative"}
	}
	if creatorPct.IsNegative() {
		return FeePolicy{}, &ConfigurationError{Field: "creator_reward_pct", Reason: "must not be negative"}
	}
	if platformPct.GreaterThan(MaxFeePct) {
		return FeePolicy{}, &ConfigurationError{
			Field:  "platform_fee_pct",
			Reason: "exceeds the maximum of " + MaxFeePct.String(),
		}
	}
	if creatorPct.GreaterThan(MaxFeePct) {
		return FeePolicy{}, &ConfigurationError{
			Field:  "creator_reward_pct",
			Reason: "exceeds the maximum of " + MaxFeePct.String(),
		}
	}
	if platformPct.Add(creatorPct).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return FeePolicy{}, &ConfigurationError{
			Field:  "fee_percentages",
			Reason: "platform fee and creator reward must sum below 1",
		}
	}

	return FeePolicy{PlatformPct: platformPct, CreatorPct: creatorPct}, nil
}

// PlatformFee returns floor(totalPool * PlatformPct) in atomic units.
func (p FeePolicy) PlatformFee(totalPool int64) int64 {
	return decimal.NewFromInt(totalPool).Mul(p.PlatformPct).Floor().IntPart()
}

// CreatorReward returns floor(totalPool * CreatorPct) in atomic units.
func (p FeePolicy) CreatorReward(totalPool int64) int64 {
	return decimal.NewFromInt(totalPool).Mul(p.CreatorPct).Floor().IntPart()
}

package services

import (
	"sports-prediction/internal/models"

	"github.com/google/uuid"
)

// Settlement is the full payout breakdown for one market resolution.
// Division always truncates; the remainder stays with the platform and is
// reported here for audit.
type Settlement struct {
	WinningOutcome    string                `json:"winning_outcome"`
	TotalPool         int64                 `json:"total_pool"`
	PlatformFee       int64                 `json:"platform_fee"`
	CreatorReward     int64                 `json:"creator_reward"`
	ParticipantPool   int64                 `json:"participant_pool"`
	WinningsPerWinner int64                 `json:"winnings_per_winner"`
	Remainder         int64                 `json:"remainder"`
	Winners           []*models.Participant `json:"-"`
}

// WinnerIDs returns the participant IDs receiving a payout.
func (s *Settlement) WinnerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Winners))
	for _, w := range s.Winners {
		ids = append(ids, w.ID)
	}
	return ids
}

// WinningsCalculator computes payout amounts. Pure computation: no side
// effects, no storage access.
type WinningsCalculator struct{}

func NewWinningsCalculator() *WinningsCalculator {
	return &WinningsCalculator{}
}

// Settle computes the payout breakdown for a market resolving to
// winningOutcome. Payouts are an equal split of the post-fee pool across
// winners regardless of stake size. With no winners nothing is distributed
// but fees are still charged. A zero pool yields all-zero amounts.
func (c *WinningsCalculator) Settle(
	market *models.Market,
	participants []*models.Participant,
	winningOutcome string,
	policy FeePolicy,
) (*Settlement, error) {
	if !models.IsValidOutcome(winningOutcome) {
		return nil, &ConfigurationError{Field: "winning_outcome", Reason: "unknown outcome label " + winningOutcome}
	}
	if market.TotalPool < 0 {
		return nil, &ConfigurationError{Field: "total_pool", Reason: "must not be negative"}
	}

	totalPool := market.TotalPool
	platformFee := policy.PlatformFee(totalPool)

	// Markets seeded by the platform have no creator to reward; the pool
	// share is not shifted to the platform in that case.
	creatorReward := int64(0)
	if market.CreatedBy != nil {
		creatorReward = policy.CreatorReward(totalPool)
	}

	participantPool := totalPool - platformFee - creatorReward

	var winners []*models.Participant
	for _, p := range participants {
		if p.Prediction == winningOutcome {
			winners = append(winners, p)
		}
	}

	perWinner := int64(0)
	if len(winners) > 0 {
		perWinner = participantPool / int64(len(winners))
	}

	return &Settlement{
		WinningOutcome:    winningOutcome,
		TotalPool:         totalPool,
		PlatformFee:       platformFee,
		CreatorReward:     creatorReward,
		ParticipantPool:   participantPool,
		WinningsPerWinner: perWinner,
		Remainder:         participantPool - perWinner*int64(len(winners)),
		Winners:           winners,
	}, nil
}

// PotentialWinnings estimates the payout for a hypothetical new participant
// staking entryAmount on outcome, if that outcome wins. The estimate is
// computed against the pool as it would stand after joining, split among
// existing backers of the outcome plus the newcomer, with fees deducted the
// same way Settle deducts them. For a market with no participants at all
// the preview degenerates to the entry amount itself.
func (c *WinningsCalculator) PotentialWinnings(
	market *models.Market,
	participants []*models.Participant,
	outcome string,
	entryAmount int64,
	policy FeePolicy,
) (int64, error) {
	if !models.IsValidOutcome(outcome) {
		return 0, &ConfigurationError{Field: "outcome", Reason: "unknown outcome label " + outcome}
	}
	if entryAmount < 0 {
		return 0, &ConfigurationError{Field: "entry_amount", Reason: "must not be negative"}
	}

	if len(participants) == 0 {
		return entryAmount, nil
	}

	pool := market.TotalPool + entryAmount
	backers := int64(1)
	for _, p := range participants {
		if p.Prediction == outcome {
			backers++
		}
	}

	fees := policy.PlatformFee(pool)
	if market.CreatedBy != nil {
		fees += policy.CreatorReward(pool)
	}

	return (pool - fees) / backers, nil
}

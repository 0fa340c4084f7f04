package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MarketStatus string

const (
	MarketStatusScheduled MarketStatus = "Scheduled"
	MarketStatusLive      MarketStatus = "Live"
	MarketStatusInPlay    MarketStatus = "InPlay"
	MarketStatusPaused    MarketStatus = "Paused"
	MarketStatusFinished  MarketStatus = "Finished"
	MarketStatusPostponed MarketStatus = "Postponed"
	MarketStatusCancelled MarketStatus = "Cancelled"
	MarketStatusSuspended MarketStatus = "Suspended"
)

// IsTerminal reports whether the status permits no further transitions.
func (s MarketStatus) IsTerminal() bool {
	return s == MarketStatusFinished || s == MarketStatusCancelled
}

// Market outcome labels. Every market settles to exactly one of these.
const (
	OutcomeHome = "Home"
	OutcomeDraw = "Draw"
	OutcomeAway = "Away"
)

// ValidOutcomes returns the outcome labels a participant may predict.
func ValidOutcomes() []string {
	return []string{OutcomeHome, OutcomeDraw, OutcomeAway}
}

// IsValidOutcome reports whether label is a recognized outcome.
func IsValidOutcome(label string) bool {
	return label == OutcomeHome || label == OutcomeDraw || label == OutcomeAway
}

// Market represents a pooled-stake prediction market on a sports event
type Market struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title             string          `gorm:"size:500;not null" json:"title"`
	Sport             string          `gorm:"size:50;not null;index" json:"sport"` // Football, Basketball, Tennis
	HomeTeam          string          `gorm:"size:255;not null" json:"home_team"`
	AwayTeam          string          `gorm:"size:255;not null" json:"away_team"`
	EventID           string          `gorm:"size:255;not null;index" json:"event_id"`
	StartsAt          time.Time       `gorm:"not null;index" json:"starts_at"`
	Status            MarketStatus    `gorm:"size:50;not null;default:Scheduled;index" json:"status"`
	EntryFee          int64           `gorm:"not null" json:"entry_fee"`
	TotalPool         int64           `gorm:"not null;default:0" json:"total_pool"`
	PlatformFeePct    decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"platform_fee_pct"`
	CreatorRewardPct  decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"creator_reward_pct"`
	CreatedBy         *uuid.UUID      `gorm:"type:uuid;index" json:"created_by,omitempty"`
	Creator           *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Participants      []Participant   `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	ResolutionOutcome *string         `gorm:"size:50" json:"resolution_outcome,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

// CreateMarketRequest is the payload for creating a market
type CreateMarketRequest struct {
	Title    string    `json:"title" binding:"required,max=500"`
	Sport    string    `json:"sport" binding:"required"`
	HomeTeam string    `json:"home_team" binding:"required"`
	AwayTeam string    `json:"away_team" binding:"required"`
	EventID  string    `json:"event_id" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EntryFee int64     `json:"entry_fee" binding:"required,gt=0"` // Atomic units
}

// JoinMarketRequest is the payload for entering a market
type JoinMarketRequest struct {
	Prediction string `json:"prediction" binding:"required,outcome"`
}

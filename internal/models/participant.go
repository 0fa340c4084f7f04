package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant represents a user's single stake and prediction on one market
type Participant struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MarketID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participants_market_user" json:"market_id"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_participants_market_user" json:"user_id"`
	User              *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Prediction        string    `gorm:"size:50;not null" json:"prediction"`
	EntryAmount       int64     `gorm:"not null" json:"entry_amount"`
	PotentialWinnings int64     `gorm:"not null;default:0" json:"potential_winnings"`
	ActualWinnings    *int64    `json:"actual_winnings,omitempty"`
	JoinedAt          time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"joined_at"`
}

func (Participant) TableName() string {
	return "participants"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypeMarketEntry       TransactionType = "market_entry"
	TransactionTypeWinnings          TransactionType = "winnings"
	TransactionTypePlatformFee       TransactionType = "platform_fee"
	TransactionTypeCreatorReward     TransactionType = "creator_reward"
	TransactionTypeAutomatedTransfer TransactionType = "automated_transfer"
)

// IsValidTransactionType reports whether t is one of the ledger entry types.
func IsValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeMarketEntry, TransactionTypeWinnings, TransactionTypePlatformFee,
		TransactionTypeCreatorReward, TransactionTypeAutomatedTransfer:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusFailed    TransactionStatus = "Failed"
)

// Transaction represents one monetary movement in the append-only ledger.
// Amounts are atomic units and always positive; an entry is never mutated
// after creation except for the single Pending -> Completed/Failed
// transition, which stamps CompletedAt and the audit metadata.
type Transaction struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	MarketID    *uuid.UUID        `gorm:"type:uuid;index" json:"market_id,omitempty"`
	Type        TransactionType   `gorm:"size:50;not null;index" json:"type"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Status      TransactionStatus `gorm:"size:50;not null;default:Pending;index" json:"status"`
	Description string            `gorm:"size:500;not null" json:"description"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

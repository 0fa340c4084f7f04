package repository

import (
	"context"
	"time"

	"sports-prediction/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CreateTransaction appends a ledger entry
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetTransactionByID retrieves a ledger entry by ID
func (r *Repository) GetTransactionByID(ctx context.Context, txID uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", txID).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateTransactionStatus transitions a Pending ledger entry to a terminal
// status, stamping completion time and audit metadata. The update is guarded
// on the Pending status; returns false when the entry was already terminal.
func (r *Repository) UpdateTransactionStatus(
	ctx context.Context,
	txID uuid.UUID,
	status models.TransactionStatus,
	completedAt time.Time,
	metadata datatypes.JSONMap,
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completedAt,
			"metadata":     metadata,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetMarketTransactions retrieves all ledger entries for a market
func (r *Repository) GetMarketTransactions(ctx context.Context, marketID uuid.UUID) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetUserTransactions retrieves all ledger entries for a user
func (r *Repository) GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetTransactionsByStatus retrieves all ledger entries in a given status
func (r *Repository) GetTransactionsByStatus(ctx context.Context, status models.TransactionStatus) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetUserTransactionsByStatus retrieves a user's ledger entries in a given status
func (r *Repository) GetUserTransactionsByStatus(
	ctx context.Context,
	userID uuid.UUID,
	status models.TransactionStatus,
) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// CountMarketTransactions counts ledger entries attached to a market
func (r *Repository) CountMarketTransactions(ctx context.Context, marketID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("market_id = ?", marketID).
		Count(&count).Error
	return count, err
}

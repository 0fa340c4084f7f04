package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionService struct {
	repo *repository.Repository
}

func NewTransactionService(repo *repository.Repository) *TransactionService {
	return &TransactionService{repo: repo}
}

// WithTx returns a service bound to the given transactional repository, so
// ledger writes join a larger unit of work.
func (s *TransactionService) WithTx(txRepo *repository.Repository) *TransactionService {
	return &TransactionService{repo: txRepo}
}

// TransactionSpec describes one ledger entry to append.
type TransactionSpec struct {
	UserID      uuid.UUID              `json:"user_id"`
	MarketID    *uuid.UUID             `json:"market_id,omitempty"`
	Type        models.TransactionType `json:"type"`
	Amount      int64                  `json:"amount"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Completed   bool                   `json:"completed"` // post directly in Completed status
}

func (spec *TransactionSpec) validate() error {
	if !models.IsValidTransactionType(spec.Type) {
		return &ConfigurationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", spec.Type)}
	}
	if spec.Amount <= 0 {
		return &ConfigurationError{Field: "amount", Reason: "ledger entries must move a positive amount"}
	}
	if spec.Description == "" {
		return &ConfigurationError{Field: "description", Reason: "must not be empty"}
	}
	if spec.UserID == uuid.Nil {
		return &ConfigurationError{Field: "user_id", Reason: "must be set"}
	}
	return nil
}

// Create appends a ledger entry. Entries start Pending unless the spec marks
// them Completed (used for synchronous entry-fee and refund postings).
func (s *TransactionService) Create(ctx context.Context, spec TransactionSpec) (*models.Transaction, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      spec.UserID,
		MarketID:    spec.MarketID,
		Type:        spec.Type,
		Amount:      spec.Amount,
		Status:      models.TransactionStatusPending,
		Description: spec.Description,
		Metadata:    datatypes.JSONMap(spec.Metadata),
	}
	if spec.Completed {
		now := time.Now()
		tx.Status = models.TransactionStatusCompleted
		tx.CompletedAt = &now
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, &PersistenceError{Op: "create transaction", Err: err}
	}

	return tx, nil
}

// Complete transitions a Pending entry to Completed, merging extra audit
// metadata. Callable at most once per entry.
func (s *TransactionService) Complete(ctx context.Context, txID uuid.UUID, extra map[string]interface{}) (*models.Transaction, error) {
	return s.finalize(ctx, txID, models.TransactionStatusCompleted, extra)
}

// Fail transitions a Pending entry to Failed, recording the reason.
// Callable at most once per entry.
func (s *TransactionService) Fail(ctx context.Context, txID uuid.UUID, reason string, extra map[string]interface{}) (*models.Transaction, error) {
	if extra == nil {
		extra = map[string]interface{}{}
	}
	extra["failure_reason"] = reason
	return s.finalize(ctx, txID, models.TransactionStatusFailed, extra)
}

func (s *TransactionService) finalize(
	ctx context.Context,
	txID uuid.UUID,
	status models.TransactionStatus,
	extra map[string]interface{},
) (*models.Transaction, error) {
	tx, err := s.repo.GetTransactionByID(ctx, txID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "transaction", ID: txID.String()}
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	if tx.Status != models.TransactionStatusPending {
		return nil, ErrTransactionFinalized
	}

	merged := datatypes.JSONMap{}
	for k, v := range tx.Metadata {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}

	now := time.Now()
	ok, err := s.repo.UpdateTransactionStatus(ctx, txID, status, now, merged)
	if err != nil {
		return nil, &PersistenceError{Op: "update transaction status", Err: err}
	}
	if !ok {
		// Lost a race with a concurrent transition
		return nil, ErrTransactionFinalized
	}

	tx.Status = status
	tx.CompletedAt = &now
	tx.Metadata = merged
	return tx, nil
}

// GetByMarket retrieves a market's ledger entries, newest first
func (s *TransactionService) GetByMarket(ctx context.Context, marketID uuid.UUID) ([]*models.Transaction, error) {
	transactions, err := s.repo.GetMarketTransactions(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market transactions: %w", err)
	}
	return transactions, nil
}

// GetByUser retrieves a user's ledger entries, newest first
func (s *TransactionService) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	transactions, err := s.repo.GetUserTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user transactions: %w", err)
	}
	return transactions, nil
}

// GetByStatus retrieves all ledger entries in a status, newest first
func (s *TransactionService) GetByStatus(ctx context.Context, status models.TransactionStatus) ([]*models.Transaction, error) {
	transactions, err := s.repo.GetTransactionsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by status: %w", err)
	}
	return transactions, nil
}

// GetByUserAndStatus retrieves a user's ledger entries in a status, newest first
func (s *TransactionService) GetByUserAndStatus(
	ctx context.Context,
	userID uuid.UUID,
	status models.TransactionStatus,
) ([]*models.Transaction, error) {
	transactions, err := s.repo.GetUserTransactionsByStatus(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get user transactions: %w", err)
	}
	return transactions, nil
}

// BatchError reports the failure of one spec inside a batch.
type BatchError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// BatchResult reports the outcome of a batch append: entries created plus
// per-spec failures. Partial failure is reported, never silently dropped.
type BatchResult struct {
	BatchID string                `json:"batch_id"`
	Created []*models.Transaction `json:"created"`
	Failed  []BatchError          `json:"failed,omitempty"`
}

// CreateBatch appends a list of ledger entries sharing one batch identifier.
// Individual failures do not stop the batch; they are collected in the
// result. The call errors only when every spec failed.
func (s *TransactionService) CreateBatch(ctx context.Context, specs []TransactionSpec, batchID string) (*BatchResult, error) {
	if batchID == "" {
		batchID = uuid.New().String()
	}

	result := &BatchResult{BatchID: batchID}
	for i, spec := range specs {
		meta := map[string]interface{}{}
		for k, v := range spec.Metadata {
			meta[k] = v
		}
		meta["batch_id"] = batchID
		spec.Metadata = meta

		tx, err := s.Create(ctx, spec)
		if err != nil {
			log.Printf("[TransactionBatch] spec %d failed: %v", i, err)
			result.Failed = append(result.Failed, BatchError{Index: i, Message: err.Error(), Err: err})
			continue
		}
		result.Created = append(result.Created, tx)
	}

	if len(specs) > 0 && len(result.Created) == 0 {
		return result, fmt.Errorf("all %d transactions in batch %s failed", len(specs), batchID)
	}

	return result, nil
}

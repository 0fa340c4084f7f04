package services

import (
	"errors"
	"fmt"

	"sports-prediction/internal/models"

	"github.com/google/uuid"
)

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAlreadyJoined        = errors.New("user already joined this market")
	ErrMarketNotJoinable    = errors.New("market is not open for entries")
	ErrParticipantNotFound  = errors.New("user has no entry in this market")
	ErrTransactionFinalized = errors.New("transaction already in a terminal status")
	ErrInvalidCredentials   = errors.New("invalid email or password")
)

// NotFoundError reports a missing market, user, or transaction.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AlreadyResolvedError reports a resolution attempt on a market that is not
// in a resolvable state. Not retryable; the first resolution stands.
type AlreadyResolvedError struct {
	MarketID uuid.UUID
	Status   models.MarketStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("market %s is not resolvable in status %s", e.MarketID, e.Status)
}

// ConfigurationError reports invalid fee percentages, outcomes, or
// transaction specs. Blocks the operation entirely.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError reports a storage failure during an atomic commit. The
// whole unit of work has been rolled back; the caller may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DeprecatedOperationError reports use of a permanently disabled entry
// point. Not retryable.
type DeprecatedOperationError struct {
	Operation string
}

func (e *DeprecatedOperationError) Error() string {
	return fmt.Sprintf("%s is no longer supported: markets resolve automatically from match results", e.Operation)
}

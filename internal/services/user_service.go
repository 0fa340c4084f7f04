package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strings"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultStartingBalance is the play-money grant for new accounts, in
// atomic units.
var DefaultStartingBalance = int64(100000)

// UserService handles account creation, login checks, and balance grants
type UserService struct {
	repo            *repository.Repository
	ledger          *TransactionService
	startingBalance int64
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository, ledger *TransactionService, startingBalance int64) *UserService {
	return &UserService{
		repo:            repo,
		ledger:          ledger,
		startingBalance: startingBalance,
	}
}

// Register creates a new account and grants it the starting balance. The
// grant is recorded in the ledger so every balance movement stays traceable.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, &ConfigurationError{Field: "email", Reason: "already registered"}
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      s.startingBalance,
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.CreateUser(ctx, user); err != nil {
			return &PersistenceError{Op: "create user", Err: err}
		}
		if s.startingBalance <= 0 {
			return nil
		}
		_, err := s.ledger.WithTx(txRepo).Create(ctx, TransactionSpec{
			UserID:      user.ID,
			Type:        models.TransactionTypeAutomatedTransfer,
			Amount:      s.startingBalance,
			Description: "Starting balance for new account",
			Metadata: map[string]interface{}{
				"reason": "registration",
			},
			Completed: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[User] Registered %s (ID: %s)", username, user.ID)
	return user, nil
}

// Authenticate checks a login attempt against the stored credentials.
// Missing accounts and wrong passwords report the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "user", ID: userID.String()}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Deposit credits a user's balance and records the movement in the ledger.
func (s *UserService) Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, &ConfigurationError{Field: "amount", Reason: "deposit must be positive"}
	}

	var tx *models.Transaction
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.CreditUserBalance(ctx, userID, amount); err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "user", ID: userID.String()}
			}
			return &PersistenceError{Op: "credit balance", Err: err}
		}
		var err error
		tx, err = s.ledger.WithTx(txRepo).Create(ctx, TransactionSpec{
			UserID:      userID,
			Type:        models.TransactionTypeAutomatedTransfer,
			Amount:      amount,
			Description: "Balance deposit",
			Metadata: map[string]interface{}{
				"reason": "deposit",
			},
			Completed: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[User] Deposited %d to user %s", amount, userID)
	return tx, nil
}

// EnsureServiceAccount finds or creates the internal account that owns
// feed-seeded markets. It carries no balance grant and an unguessable
// password.
func (s *UserService) EnsureServiceAccount(ctx context.Context, username, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to get service account: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	user = &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      0,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, &PersistenceError{Op: "create service account", Err: err}
	}

	log.Printf("[User] Created service account %s (ID: %s)", username, user.ID)
	return user, nil
}

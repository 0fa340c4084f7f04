package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sports-prediction/internal/auth"
	"sports-prediction/internal/currency"
	"sports-prediction/internal/models"
	"sports-prediction/internal/services"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	users  *services.UserService
	ledger *services.TransactionService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService, ledger *services.TransactionService) *UserHandler {
	return &UserHandler{
		users:  users,
		ledger: ledger,
	}
}

// GetBalance returns the current user's balance
// GET /api/users/me/balance
func (h *UserHandler) GetBalance(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":         user.Balance,
		"balance_display": currency.FormatWithUnit(user.Balance),
	})
}

// GetTransactions returns the current user's ledger history, newest first
// GET /api/users/me/transactions
func (h *UserHandler) GetTransactions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var (
		transactions []*models.Transaction
		err          error
	)

	if status := c.Query("status"); status != "" {
		transactions, err = h.ledger.GetByUserAndStatus(c.Request.Context(), userID, models.TransactionStatus(status))
	} else {
		transactions, err = h.ledger.GetByUser(c.Request.Context(), userID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        len(transactions),
	})
}

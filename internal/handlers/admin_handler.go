package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sports-prediction/internal/services"
)

type AdminHandler struct {
	settings *services.SettingsService
	markets  *services.MarketService
	users    *services.UserService
	ledger   *services.TransactionService
}

func NewAdminHandler(
	settings *services.SettingsService,
	markets *services.MarketService,
	users *services.UserService,
	ledger *services.TransactionService,
) *AdminHandler {
	return &AdminHandler{
		settings: settings,
		markets:  markets,
		users:    users,
		ledger:   ledger,
	}
}

// GetSettings returns the fee percentages currently in force
// GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	policy, err := h.settings.DefaultFeePolicy(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"platform_fee_pct":   policy.PlatformPct.String(),
		"creator_reward_pct": policy.CreatorPct.String(),
	})
}

// UpdateSetting changes one platform setting. New markets pick the change
// up; already-created markets keep their stamped percentages.
// PUT /api/admin/settings
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.Set(c.Request.Context(), req.Key, req.Value); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "setting updated",
	})
}

// CancelMarket voids a market and refunds every entry
// POST /api/admin/markets/:id/cancel
func (h *AdminHandler) CancelMarket(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	market, err := h.markets.CancelMarket(c.Request.Context(), marketID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, market)
}

// Deposit credits a user's balance
// POST /api/admin/users/:id/deposit
func (h *AdminHandler) Deposit(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Amount int64 `json:"amount" binding:"required,gt=0"` // Atomic units
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.users.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

// CreateTransactionBatch posts a group of ledger entries under one batch id.
// Invalid entries are reported per index; valid ones still go through.
// POST /api/admin/transactions/batch
func (h *AdminHandler) CreateTransactionBatch(c *gin.Context) {
	var req struct {
		BatchID      string                     `json:"batch_id"`
		Transactions []services.TransactionSpec `json:"transactions" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.CreateBatch(c.Request.Context(), req.Transactions, req.BatchID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

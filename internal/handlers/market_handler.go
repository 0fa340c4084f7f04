package handlers

import (
	"net/http"
	"strconv"

	"sports-prediction/internal/auth"
	"sports-prediction/internal/models"
	"sports-prediction/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MarketHandler struct {
	markets    *services.MarketService
	resolution *services.ResolutionService
	ledger     *services.TransactionService
}

func NewMarketHandler(
	markets *services.MarketService,
	resolution *services.ResolutionService,
	ledger *services.TransactionService,
) *MarketHandler {
	return &MarketHandler{
		markets:    markets,
		resolution: resolution,
		ledger:     ledger,
	}
}

// GetMarkets returns markets with optional filtering
// GET /api/markets
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	status := c.Query("status")
	sport := c.Query("sport")
	limit, offset := parsePagination(c)

	markets, total, err := h.markets.ListMarkets(c.Request.Context(), models.MarketStatus(status), sport, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"markets": markets,
		"total":   total,
	})
}

// GetMarketByID returns a market with its creator and participants
// GET /api/markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	market, err := h.markets.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, market)
}

// CreateMarket opens a new market on an upcoming event
// POST /api/markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.markets.CreateMarket(c.Request.Context(), &req, &userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, market)
}

// JoinMarket enters the current user into a market
// POST /api/markets/:id/join
func (h *MarketHandler) JoinMarket(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	var req models.JoinMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.markets.JoinMarket(c.Request.Context(), marketID, userID, req.Prediction)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// LeaveMarket withdraws the current user's entry while the market is open
// POST /api/markets/:id/leave
func (h *MarketHandler) LeaveMarket(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	if err := h.markets.LeaveMarket(c.Request.Context(), marketID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "entry withdrawn",
	})
}

// GetParticipants returns all entries in a market, oldest first
// GET /api/markets/:id/participants
func (h *MarketHandler) GetParticipants(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	participants, err := h.markets.GetMarketParticipants(c.Request.Context(), marketID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"total":        len(participants),
	})
}

// GetPotentialWinnings previews the payout for a prospective entry
// GET /api/markets/:id/potential-winnings?prediction=Home
func (h *MarketHandler) GetPotentialWinnings(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	prediction := c.Query("prediction")
	if prediction == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prediction query parameter required"})
		return
	}

	potential, err := h.markets.PotentialWinnings(c.Request.Context(), marketID, prediction)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id":          marketID,
		"prediction":         prediction,
		"potential_winnings": potential,
	})
}

// GetSettlementPreview previews the full settlement for an outcome without
// writing anything
// GET /api/markets/:id/settlement-preview?outcome=Home
func (h *MarketHandler) GetSettlementPreview(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	outcome := c.Query("outcome")

	settlement, err := h.resolution.CalculateWinnings(c.Request.Context(), marketID, outcome)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settlement)
}

// GetMarketTransactions returns the ledger entries tied to a market, newest
// first
// GET /api/markets/:id/transactions
func (h *MarketHandler) GetMarketTransactions(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	transactions, err := h.ledger.GetByMarket(c.Request.Context(), marketID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        len(transactions),
	})
}

// ResolveMarket is the retired manual resolution endpoint. Markets settle
// automatically from match results; this always reports 410.
// POST /api/markets/:id/resolve
func (h *MarketHandler) ResolveMarket(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	var req struct {
		Outcome string `json:"outcome"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.resolution.ManualResolve(c.Request.Context(), marketID, userID, req.Outcome); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "market resolved"})
}

// CanResolve reports whether the current user may resolve a market by hand.
// Resolution is fully automated, so the answer is always no.
// GET /api/markets/:id/can-resolve
func (h *MarketHandler) CanResolve(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	market, err := h.markets.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id":   marketID,
		"can_resolve": h.resolution.CanUserResolveMarket(userID, market),
	})
}

// parsePagination reads limit and offset query parameters with bounds
func parsePagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}

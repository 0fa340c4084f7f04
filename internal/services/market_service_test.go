package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"sports-prediction/internal/models"
	"sports-prediction/internal/repository"

	"github.com/google/uuid"
)

func newMarketService(repo *repository.Repository) *MarketService {
	return NewMarketService(repo, NewSettingsService(repo), NewTransactionService(repo), NewWinningsCalculator())
}

func TestCreateMarket(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	req := &models.CreateMarketRequest{
		Title:    "Arsenal vs Chelsea",
		Sport:    "Football",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		EventID:  "evt-123",
		StartsAt: time.Now().Add(24 * time.Hour),
		EntryFee: 10000,
	}

	market, err := svc.CreateMarket(ctx, req, &creator.ID)
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	if market.Status != models.MarketStatusScheduled {
		t.Errorf("Expected status Scheduled, got %s", market.Status)
	}
	if market.TotalPool != 0 {
		t.Errorf("Expected empty pool, got %d", market.TotalPool)
	}

	// Current platform defaults are stamped onto the market
	if !market.PlatformFeePct.Equal(DefaultPlatformFeePct) {
		t.Errorf("Expected platform fee pct %s, got %s", DefaultPlatformFeePct, market.PlatformFeePct)
	}
	if !market.CreatorRewardPct.Equal(DefaultCreatorRewardPct) {
		t.Errorf("Expected creator reward pct %s, got %s", DefaultCreatorRewardPct, market.CreatorRewardPct)
	}

	stored, err := repo.GetMarketByID(ctx, market.ID)
	if err != nil {
		t.Fatalf("failed to reload market: %v", err)
	}
	if stored.EventID != "evt-123" {
		t.Errorf("Expected event id persisted, got %s", stored.EventID)
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != creator.ID {
		t.Errorf("Expected creator recorded, got %v", stored.CreatedBy)
	}
}

func TestCreateMarketValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	base := models.CreateMarketRequest{
		Title:    "Arsenal vs Chelsea",
		Sport:    "Football",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		EventID:  "evt-123",
		StartsAt: time.Now().Add(24 * time.Hour),
		EntryFee: 10000,
	}

	// 1. Entry fee below the minimum stake
	low := base
	low.EntryFee = 50
	_, err := svc.CreateMarket(ctx, &low, nil)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for low entry fee, got %v", err)
	}

	// 2. Entry fee above the maximum stake
	high := base
	high.EntryFee = 200000000
	if _, err := svc.CreateMarket(ctx, &high, nil); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for high entry fee, got %v", err)
	}

	// 3. Event already started
	past := base
	past.StartsAt = time.Now().Add(-time.Hour)
	if _, err := svc.CreateMarket(ctx, &past, nil); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for past start, got %v", err)
	}
}

func TestJoinMarket(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	alice := seedUser(t, db, "alice", 100000)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))

	participant, err := svc.JoinMarket(ctx, market.ID, alice.ID, models.OutcomeHome)
	if err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}
	if participant.EntryAmount != 10000 {
		t.Errorf("Expected entry amount 10000, got %d", participant.EntryAmount)
	}
	// Sole entrant of an empty market: the preview is just the stake back
	if participant.PotentialWinnings != 10000 {
		t.Errorf("Expected potential winnings 10000, got %d", participant.PotentialWinnings)
	}

	if got := getBalance(t, db, alice.ID); got != 90000 {
		t.Errorf("Expected alice balance 90000, got %d", got)
	}
	fresh, _ := repo.GetMarketByID(ctx, market.ID)
	if fresh.TotalPool != 10000 {
		t.Errorf("Expected pool 10000, got %d", fresh.TotalPool)
	}

	// The entry fee shows up as a completed ledger row with the prediction
	transactions, err := repo.GetMarketTransactions(ctx, market.ID)
	if err != nil {
		t.Fatalf("failed to load transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(transactions))
	}
	entry := transactions[0]
	if entry.Type != models.TransactionTypeMarketEntry || entry.Status != models.TransactionStatusCompleted {
		t.Errorf("Unexpected entry transaction: type %s status %s", entry.Type, entry.Status)
	}
	if got, _ := entry.Metadata["prediction"].(string); got != models.OutcomeHome {
		t.Errorf("Expected prediction metadata Home, got %v", entry.Metadata["prediction"])
	}

	// A second entrant on the same outcome halves the preview (minus fees)
	bob := seedUser(t, db, "bob", 100000)
	second, err := svc.JoinMarket(ctx, market.ID, bob.ID, models.OutcomeHome)
	if err != nil {
		t.Fatalf("JoinMarket failed for bob: %v", err)
	}
	// Pool 20000, fees 1000 + 400, 18600 split across two backers
	if second.PotentialWinnings != 9300 {
		t.Errorf("Expected potential winnings 9300, got %d", second.PotentialWinnings)
	}
}

func TestJoinMarketRejections(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	alice := seedUser(t, db, "alice", 100000)
	poor := seedUser(t, db, "poor", 5000)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))

	if _, err := svc.JoinMarket(ctx, market.ID, alice.ID, models.OutcomeHome); err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}

	// 1. Same user twice
	if _, err := svc.JoinMarket(ctx, market.ID, alice.ID, models.OutcomeAway); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("Expected ErrAlreadyJoined, got %v", err)
	}

	// 2. Balance below the entry fee, and nothing must change
	if _, err := svc.JoinMarket(ctx, market.ID, poor.ID, models.OutcomeHome); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
	if got := getBalance(t, db, poor.ID); got != 5000 {
		t.Errorf("Expected balance untouched at 5000, got %d", got)
	}
	fresh, _ := repo.GetMarketByID(ctx, market.ID)
	if fresh.TotalPool != 10000 {
		t.Errorf("Expected pool unchanged at 10000, got %d", fresh.TotalPool)
	}
	if _, err := repo.GetParticipant(ctx, market.ID, poor.ID); err == nil {
		t.Error("Expected no participant row for rejected join")
	}

	// 3. Unknown outcome label
	bob := seedUser(t, db, "bob", 100000)
	var cfgErr *ConfigurationError
	if _, err := svc.JoinMarket(ctx, market.ID, bob.ID, "Banana"); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}

	// 4. Market that already started
	started := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(-time.Minute))
	if _, err := svc.JoinMarket(ctx, started.ID, bob.ID, models.OutcomeHome); !errors.Is(err, ErrMarketNotJoinable) {
		t.Errorf("Expected ErrMarketNotJoinable for started market, got %v", err)
	}

	// 5. Market no longer Scheduled
	live := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))
	if err := db.Model(&models.Market{}).Where("id = ?", live.ID).Update("status", models.MarketStatusLive).Error; err != nil {
		t.Fatalf("failed to update market status: %v", err)
	}
	if _, err := svc.JoinMarket(ctx, live.ID, bob.ID, models.OutcomeHome); !errors.Is(err, ErrMarketNotJoinable) {
		t.Errorf("Expected ErrMarketNotJoinable for live market, got %v", err)
	}

	// 6. Missing market and missing user
	var notFound *NotFoundError
	if _, err := svc.JoinMarket(ctx, uuid.New(), bob.ID, models.OutcomeHome); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for missing market, got %v", err)
	}
	if _, err := svc.JoinMarket(ctx, market.ID, uuid.New(), models.OutcomeHome); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for missing user, got %v", err)
	}
}

func TestLeaveMarket(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	alice := seedUser(t, db, "alice", 100000)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))

	if _, err := svc.JoinMarket(ctx, market.ID, alice.ID, models.OutcomeHome); err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}

	if err := svc.LeaveMarket(ctx, market.ID, alice.ID); err != nil {
		t.Fatalf("LeaveMarket failed: %v", err)
	}

	if got := getBalance(t, db, alice.ID); got != 100000 {
		t.Errorf("Expected balance restored to 100000, got %d", got)
	}
	fresh, _ := repo.GetMarketByID(ctx, market.ID)
	if fresh.TotalPool != 0 {
		t.Errorf("Expected pool back to 0, got %d", fresh.TotalPool)
	}
	if _, err := repo.GetParticipant(ctx, market.ID, alice.ID); err == nil {
		t.Error("Expected participant row removed")
	}

	// Entry plus refund on the ledger
	count, err := repo.CountMarketTransactions(ctx, market.ID)
	if err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 transactions, got %d", count)
	}

	// Leaving again has nothing to remove
	if err := svc.LeaveMarket(ctx, market.ID, alice.ID); !errors.Is(err, ErrParticipantNotFound) {
		t.Errorf("Expected ErrParticipantNotFound, got %v", err)
	}

	// No exit once the event started
	bob := seedUser(t, db, "bob", 100000)
	locked := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))
	if _, err := svc.JoinMarket(ctx, locked.ID, bob.ID, models.OutcomeHome); err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}
	err = db.Model(&models.Market{}).Where("id = ?", locked.ID).Update("starts_at", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("failed to backdate market: %v", err)
	}
	if err := svc.LeaveMarket(ctx, locked.ID, bob.ID); !errors.Is(err, ErrMarketNotJoinable) {
		t.Errorf("Expected ErrMarketNotJoinable after start, got %v", err)
	}
	if got := getBalance(t, db, bob.ID); got != 90000 {
		t.Errorf("Expected bob's stake to stay in the pool, got balance %d", got)
	}
}

func TestAdjustMarketPoolOnlyWhileScheduled(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))
	setMarketPool(t, db, market.ID, 20000)

	adjusted, err := repo.AdjustMarketPool(ctx, market.ID, 10000)
	if err != nil {
		t.Fatalf("AdjustMarketPool failed: %v", err)
	}
	if !adjusted {
		t.Fatal("Expected adjustment on a Scheduled market")
	}

	// A withdrawal racing a resolution must not shrink a settled pool;
	// once the status leaves Scheduled the update matches zero rows.
	if _, err := repo.FinishMarket(ctx, market.ID, models.OutcomeHome, time.Now()); err != nil {
		t.Fatalf("FinishMarket failed: %v", err)
	}
	adjusted, err = repo.AdjustMarketPool(ctx, market.ID, -10000)
	if err != nil {
		t.Fatalf("AdjustMarketPool failed: %v", err)
	}
	if adjusted {
		t.Error("Expected no adjustment on a Finished market")
	}
	fresh, err := repo.GetMarketByID(ctx, market.ID)
	if err != nil {
		t.Fatalf("failed to reload market: %v", err)
	}
	if fresh.TotalPool != 30000 {
		t.Errorf("Expected pool frozen at 30000, got %d", fresh.TotalPool)
	}

	// Missing market reports the same way
	adjusted, err = repo.AdjustMarketPool(ctx, uuid.New(), 100)
	if err != nil {
		t.Fatalf("AdjustMarketPool failed: %v", err)
	}
	if adjusted {
		t.Error("Expected no adjustment for a missing market")
	}
}

func TestCancelMarket(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	alice := seedUser(t, db, "alice", 100000)
	bob := seedUser(t, db, "bob", 100000)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))

	if _, err := svc.JoinMarket(ctx, market.ID, alice.ID, models.OutcomeHome); err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}
	if _, err := svc.JoinMarket(ctx, market.ID, bob.ID, models.OutcomeAway); err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}

	cancelled, err := svc.CancelMarket(ctx, market.ID)
	if err != nil {
		t.Fatalf("CancelMarket failed: %v", err)
	}
	if cancelled.Status != models.MarketStatusCancelled {
		t.Errorf("Expected status Cancelled, got %s", cancelled.Status)
	}
	if cancelled.TotalPool != 0 {
		t.Errorf("Expected pool drained, got %d", cancelled.TotalPool)
	}

	// Every stake goes back
	if got := getBalance(t, db, alice.ID); got != 100000 {
		t.Errorf("Expected alice refunded to 100000, got %d", got)
	}
	if got := getBalance(t, db, bob.ID); got != 100000 {
		t.Errorf("Expected bob refunded to 100000, got %d", got)
	}

	// Two entries plus two refunds
	count, err := repo.CountMarketTransactions(ctx, market.ID)
	if err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 transactions, got %d", count)
	}

	// Cancelling again is refused without touching balances
	_, err = svc.CancelMarket(ctx, market.ID)
	var already *AlreadyResolvedError
	if !errors.As(err, &already) {
		t.Errorf("Expected AlreadyResolvedError, got %v", err)
	}
	if got := getBalance(t, db, alice.ID); got != 100000 {
		t.Errorf("Expected no double refund, got %d", got)
	}

	var notFound *NotFoundError
	if _, err := svc.CancelMarket(ctx, uuid.New()); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestListMarkets(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	football1 := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))
	football2 := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(2*time.Hour))
	basketball := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(3*time.Hour))
	err := db.Model(&models.Market{}).Where("id = ?", basketball.ID).
		Updates(map[string]interface{}{"sport": "Basketball", "status": models.MarketStatusLive}).Error
	if err != nil {
		t.Fatalf("failed to adjust market: %v", err)
	}

	all, total, err := svc.ListMarkets(ctx, "", "", 50, 0)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("Expected 3 markets, got %d (total %d)", len(all), total)
	}
	// Latest start first
	if all[0].ID != basketball.ID || all[1].ID != football2.ID || all[2].ID != football1.ID {
		t.Error("Expected markets ordered by starts_at descending")
	}

	footballOnly, total, err := svc.ListMarkets(ctx, "", "Football", 50, 0)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if total != 2 || len(footballOnly) != 2 {
		t.Errorf("Expected 2 football markets, got %d (total %d)", len(footballOnly), total)
	}

	liveOnly, total, err := svc.ListMarkets(ctx, models.MarketStatusLive, "", 50, 0)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if total != 1 || len(liveOnly) != 1 || liveOnly[0].ID != basketball.ID {
		t.Errorf("Expected only the live market, got %d rows", len(liveOnly))
	}

	// Pagination still reports the full count
	page, total, err := svc.ListMarkets(ctx, "", "", 2, 0)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if len(page) != 2 || total != 3 {
		t.Errorf("Expected page of 2 with total 3, got %d (total %d)", len(page), total)
	}
}

func TestGetMarketDetail(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	alice := seedUser(t, db, "alice", 100000)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))
	if _, err := svc.JoinMarket(ctx, market.ID, alice.ID, models.OutcomeHome); err != nil {
		t.Fatalf("JoinMarket failed: %v", err)
	}

	detail, err := svc.GetMarket(ctx, market.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if detail.Creator == nil || detail.Creator.Username != "creator" {
		t.Error("Expected creator preloaded")
	}
	if len(detail.Participants) != 1 {
		t.Fatalf("Expected 1 participant preloaded, got %d", len(detail.Participants))
	}
	if detail.Participants[0].User == nil || detail.Participants[0].User.Username != "alice" {
		t.Error("Expected participant user preloaded")
	}

	var notFound *NotFoundError
	if _, err := svc.GetMarket(ctx, uuid.New()); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestPotentialWinningsPreview(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := newMarketService(repo)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", 0)
	market := seedMarket(t, db, &creator.ID, 10000, time.Now().Add(time.Hour))

	// Empty market: a lone backer would get exactly their stake back
	preview, err := svc.PotentialWinnings(ctx, market.ID, models.OutcomeHome)
	if err != nil {
		t.Fatalf("PotentialWinnings failed: %v", err)
	}
	if preview != 10000 {
		t.Errorf("Expected preview 10000, got %d", preview)
	}

	var cfgErr *ConfigurationError
	if _, err := svc.PotentialWinnings(ctx, market.ID, "Banana"); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}
	var notFound *NotFoundError
	if _, err := svc.PotentialWinnings(ctx, uuid.New(), models.OutcomeHome); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

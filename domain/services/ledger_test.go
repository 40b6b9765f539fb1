package services

import (
	"context"
	"testing"
	"time"

	"rifa/clock"
	"rifa/domain/entities"
	"rifa/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() entities.RaffleConfig {
	return entities.RaffleConfig{
		TotalNumbers:       1_000_000,
		PricePerNumber:     10.00,
		MaxPurchaseLimit:   50,
		MaxEntriesPerPhone: 100,
	}
}

func newTestLedger(t *testing.T) (*Ledger, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	return NewLedger(testConfig(), nil, clk), clk
}

func TestLedger_Reserve_MutualExclusivity(t *testing.T) {
	ledger, _ := newTestLedger(t)

	require.NoError(t, ledger.Reserve([]int64{7}, 5*time.Minute))
	assert.False(t, ledger.IsAvailable(7))

	// A second reservation on the same number fails
	assert.ErrorIs(t, ledger.Reserve([]int64{7}, 5*time.Minute), entities.ErrAlreadyTaken)
}

func TestLedger_Reserve_AllOrNothing(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{6}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	// 6 is sold, so the whole batch is rejected and 5 stays free
	assert.ErrorIs(t, ledger.Reserve([]int64{5, 6}, 5*time.Minute), entities.ErrAlreadyTaken)
	assert.True(t, ledger.IsAvailable(5))
}

func TestLedger_Reserve_DuplicateInBatch(t *testing.T) {
	ledger, _ := newTestLedger(t)

	assert.ErrorIs(t, ledger.Reserve([]int64{3, 3}, 5*time.Minute), entities.ErrAlreadyTaken)
	assert.True(t, ledger.IsAvailable(3))
}

func TestLedger_LogicalExpiryPrecedesSweep(t *testing.T) {
	ledger, clk := newTestLedger(t)

	require.NoError(t, ledger.Reserve([]int64{42}, 5*time.Minute))
	assert.False(t, ledger.IsAvailable(42))

	// Past the deadline the number is available even though no sweep ran
	clk.Advance(5 * time.Minute)
	assert.True(t, ledger.IsAvailable(42))

	// And a fresh reservation can take it over
	require.NoError(t, ledger.Reserve([]int64{42}, 5*time.Minute))
	assert.False(t, ledger.IsAvailable(42))
}

func TestLedger_ExpireReservations(t *testing.T) {
	ledger, clk := newTestLedger(t)

	require.NoError(t, ledger.Reserve([]int64{10, 30, 20}, 5*time.Minute))
	clk.Advance(2 * time.Minute)
	require.NoError(t, ledger.Reserve([]int64{40}, 5*time.Minute))

	clk.Advance(3 * time.Minute)
	released := ledger.ExpireReservations(clk.Now())
	assert.Equal(t, []int64{10, 20, 30}, released)

	// 40 still has two minutes left
	assert.False(t, ledger.IsAvailable(40))
	assert.Empty(t, ledger.ExpireReservations(clk.Now()))
}

func TestLedger_ReserveRandom(t *testing.T) {
	ledger, _ := newTestLedger(t)

	numbers, err := ledger.ReserveRandom(2, 10, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, numbers, 10)

	seen := make(map[int64]bool)
	for _, n := range numbers {
		// Page 2 covers [200, 300)
		assert.GreaterOrEqual(t, n, int64(200))
		assert.Less(t, n, int64(300))
		assert.False(t, seen[n], "number %d drawn twice", n)
		seen[n] = true
		assert.False(t, ledger.IsAvailable(n))
	}
}

func TestLedger_ReserveRandom_ExceedsPurchaseLimit(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.ReserveRandom(0, 51, 5*time.Minute)
	assert.ErrorIs(t, err, entities.ErrLimitExceeded)
}

func TestLedger_ReserveRandom_InsufficientAvailability(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	// Sell 60 of the 100 numbers on page 0
	sold := make([]int64, 0, 60)
	for n := int64(0); n < 60; n++ {
		sold = append(sold, n)
	}
	// Split across participants to stay under the per-phone cap
	_, err := ledger.CommitPurchase(ctx, sold[:30], "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)
	_, err = ledger.CommitPurchase(ctx, sold[30:], "João Souza", "21912345678", "joao@example.com")
	require.NoError(t, err)

	_, err = ledger.ReserveRandom(0, 41, 5*time.Minute)
	assert.ErrorIs(t, err, entities.ErrInsufficientAvailability)

	numbers, err := ledger.ReserveRandom(0, 40, 5*time.Minute)
	require.NoError(t, err)
	assert.Len(t, numbers, 40)
}

func TestLedger_CancelReservation_Idempotent(t *testing.T) {
	ledger, _ := newTestLedger(t)

	require.NoError(t, ledger.Reserve([]int64{5}, 5*time.Minute))
	ledger.CancelReservation([]int64{5})
	assert.True(t, ledger.IsAvailable(5))

	// Cancelling again, or cancelling never-reserved numbers, is a no-op
	ledger.CancelReservation([]int64{5, 99})
	assert.True(t, ledger.IsAvailable(5))
}

func TestLedger_CommitPurchase_UpdatesIndices(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve([]int64{10, 11, 12}, 5*time.Minute))
	participant, err := ledger.CommitPurchase(ctx, []int64{10, 11, 12}, "Maria Silva", "(11) 98765-4321", "maria@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, participant.ID)
	assert.Equal(t, "(11) 98765-4321", participant.Phone)

	for _, n := range []int64{10, 11, 12} {
		assert.False(t, ledger.IsAvailable(n))
		owner, ok := ledger.OwnerOf(n)
		require.True(t, ok)
		assert.Equal(t, participant.ID, owner.ID)
	}

	// Entry count keys off normalized digits
	assert.Equal(t, 3, ledger.EntryCount("11987654321"))
	assert.Equal(t, 3, ledger.EntryCount("(11) 98765-4321"))

	summary := ledger.Summarize()
	assert.Equal(t, 3, summary.Sold)
	assert.Equal(t, 0, summary.Reserved)
	assert.Equal(t, 30.0, summary.Revenue)
}

func TestLedger_CommitPurchase_SoldRace(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{20}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	// A competing commit on the same number loses, whole batch rejected
	_, err = ledger.CommitPurchase(ctx, []int64{20, 21}, "João Souza", "21912345678", "joao@example.com")
	assert.ErrorIs(t, err, entities.ErrAlreadyTaken)
	assert.True(t, ledger.IsAvailable(21))
}

func TestLedger_CommitPurchase_EntryLimit(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	ledger.UpdateConfig(ctx, 0, 0, 5)

	_, err := ledger.CommitPurchase(ctx, []int64{1, 2, 3, 4}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	// 4 existing + 2 would exceed the cap of 5
	_, err = ledger.CommitPurchase(ctx, []int64{5, 6}, "Maria Silva", "11987654321", "maria@example.com")
	assert.ErrorIs(t, err, entities.ErrLimitExceeded)

	// One more is exactly at the cap
	_, err = ledger.CommitPurchase(ctx, []int64{5}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, ledger.EntryCount("11987654321"))
}

func TestLedger_RandomSoldNumber(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.RandomSoldNumber()
	assert.ErrorIs(t, err, entities.ErrNoSoldNumbers)

	_, err = ledger.CommitPurchase(ctx, []int64{3, 7, 9}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		n, err := ledger.RandomSoldNumber()
		require.NoError(t, err)
		assert.Contains(t, []int64{3, 7, 9}, n)
	}
}

func TestLedger_Search(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{100, 200}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)
	_, err = ledger.CommitPurchase(ctx, []int64{300}, "João Souza", "21912345678", "joao@example.com")
	require.NoError(t, err)

	// A plain number resolves to itself regardless of sale state
	assert.Equal(t, []int64{123456}, ledger.Search("123456"))
	assert.Empty(t, ledger.Search("9999999")) // out of range

	// Name search is case-insensitive substring
	assert.Equal(t, []int64{100, 200}, ledger.Search("maria"))
	assert.Equal(t, []int64{100, 200}, ledger.Search("SILVA"))

	// Phone fragments need at least eight digits
	assert.Equal(t, []int64{300}, ledger.Search("(21) 91234-5678"))
	assert.Empty(t, ledger.Search("misses"))
	assert.Empty(t, ledger.Search("   "))
}

func TestLedger_Search_TruncatesAtHundred(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	ledger.UpdateConfig(ctx, 0, 0, 200)

	numbers := make([]int64, 0, 120)
	for n := int64(0); n < 120; n++ {
		numbers = append(numbers, n)
	}
	_, err := ledger.CommitPurchase(ctx, numbers, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	results := ledger.Search("maria")
	require.Len(t, results, 100)
	// Ascending: the cap keeps the lowest hundred matches
	assert.Equal(t, numbers[:100], results)
}

func TestLedger_Search_DeduplicatesNameAndPhoneMatches(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	// Name contains the phone digits, so both match paths find the same
	// participant's numbers.
	_, err := ledger.CommitPurchase(ctx, []int64{500, 501}, "Cliente 21912345678", "21912345678", "cliente@example.com")
	require.NoError(t, err)

	assert.Equal(t, []int64{500, 501}, ledger.Search("21912345678"))
}

func TestLedger_StatusPage(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{1}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)
	require.NoError(t, ledger.Reserve([]int64{2}, 5*time.Minute))

	statuses := ledger.StatusPage(0, false)
	require.Len(t, statuses, entities.PageSize)
	assert.Equal(t, entities.StatusAvailable, statuses[0].Status)
	assert.Equal(t, entities.StatusSold, statuses[1].Status)
	assert.Empty(t, statuses[1].OwnerName)
	assert.Equal(t, entities.StatusReserved, statuses[2].Status)

	// Admin view includes owner names on sold numbers
	adminStatuses := ledger.StatusPage(0, true)
	assert.Equal(t, "Maria Silva", adminStatuses[1].OwnerName)
}

func TestLedger_UpdateConfigAndPrize(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	cfg := ledger.UpdateConfig(ctx, 25.0, 10, 0)
	assert.Equal(t, 25.0, cfg.PricePerNumber)
	assert.Equal(t, 10, cfg.MaxPurchaseLimit)
	// Zero leaves the current value unchanged
	assert.Equal(t, 100, cfg.MaxEntriesPerPhone)
	assert.Equal(t, int64(1_000_000), cfg.TotalNumbers)

	prize := ledger.UpdatePrize(ctx, "Moto 0km", "Nova descrição", "")
	assert.Equal(t, "Moto 0km", prize.Name)
	assert.Equal(t, "Nova descrição", prize.Description)
	assert.Equal(t, entities.DefaultPrizeInfo().ImageData, prize.ImageData)
}

func TestLedger_SnapshotRoundTrip(t *testing.T) {
	store := testhelpers.NewMemorySnapshotStore()
	clk := clock.NewManual(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(testConfig(), store, clk)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{10, 11}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)
	require.NoError(t, ledger.Reserve([]int64{50}, 5*time.Minute))
	ledger.UpdatePrize(ctx, "Moto 0km", "", "")

	// A fresh ledger restored from the same store sees the sold state but
	// never the reservations.
	restored := NewLedger(testConfig(), store, clk)
	require.NoError(t, restored.Load(ctx))

	assert.False(t, restored.IsAvailable(10))
	assert.False(t, restored.IsAvailable(11))
	assert.True(t, restored.IsAvailable(50))
	assert.Equal(t, 2, restored.EntryCount("11987654321"))
	assert.Equal(t, "Moto 0km", restored.Prize().Name)

	owner, ok := restored.OwnerOf(10)
	require.True(t, ok)
	assert.Equal(t, "Maria Silva", owner.Name)
}

func TestLedger_LoadWithoutSnapshotKeepsDefaults(t *testing.T) {
	store := testhelpers.NewMemorySnapshotStore()
	clk := clock.NewManual(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(testConfig(), store, clk)

	require.NoError(t, ledger.Load(context.Background()))
	assert.Equal(t, testConfig(), ledger.Config())
	assert.Equal(t, entities.DefaultPrizeInfo(), ledger.Prize())
	assert.Nil(t, ledger.Winner())
}

func TestLedger_WinnerLifecycle(t *testing.T) {
	ledger, clk := newTestLedger(t)
	ctx := context.Background()

	participant, err := ledger.CommitPurchase(ctx, []int64{7}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	winner := &entities.Winner{
		Number:       7,
		Participant:  participant,
		Announcement: entities.FallbackAnnouncement(participant.Name, 7),
		DrawnAt:      clk.Now(),
	}
	ledger.SetWinner(ctx, winner)
	require.NotNil(t, ledger.Winner())
	assert.Equal(t, int64(7), ledger.Winner().Number)

	ledger.ClearWinner(ctx)
	assert.Nil(t, ledger.Winner())
}

package services

import (
	"context"
	"errors"
	"testing"

	"rifa/domain/entities"
	"rifa/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDrawService_NoSoldNumbers(t *testing.T) {
	ledger, clk := newTestLedger(t)
	service := NewDrawService(ledger, nil, nil, clk)

	winner, err := service.Draw(context.Background())
	assert.ErrorIs(t, err, entities.ErrNoSoldNumbers)
	assert.Nil(t, winner)
	assert.Nil(t, ledger.Winner())
}

func TestDrawService_Draw(t *testing.T) {
	ledger, clk := newTestLedger(t)
	ctx := context.Background()

	participant, err := ledger.CommitPurchase(ctx, []int64{7}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	generator := new(testhelpers.MockContentGenerator)
	generator.On("AnnounceWinner", mock.Anything, "Maria Silva", entities.DefaultPrizeName, int64(7)).
		Return("🎉 Parabéns Maria!", nil)

	notifier := new(testhelpers.MockWinnerNotifier)
	notifier.On("NotifyWinner", mock.Anything, mock.MatchedBy(func(w *entities.Winner) bool {
		return w.Number == 7 && w.Participant.ID == participant.ID
	})).Return(nil)

	service := NewDrawService(ledger, generator, notifier, clk)
	winner, err := service.Draw(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(7), winner.Number)
	assert.Equal(t, participant.ID, winner.Participant.ID)
	assert.Equal(t, "🎉 Parabéns Maria!", winner.Announcement)
	assert.Equal(t, clk.Now(), winner.DrawnAt)

	// The winner record is persisted on the ledger
	require.NotNil(t, ledger.Winner())
	assert.Equal(t, winner.Number, ledger.Winner().Number)

	generator.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestDrawService_GeneratorFailureFallsBack(t *testing.T) {
	ledger, clk := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{42}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	generator := new(testhelpers.MockContentGenerator)
	generator.On("AnnounceWinner", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("api unavailable"))

	service := NewDrawService(ledger, generator, nil, clk)
	winner, err := service.Draw(ctx)
	require.NoError(t, err)

	assert.Equal(t, entities.FallbackAnnouncement("Maria Silva", 42), winner.Announcement)
	generator.AssertExpectations(t)
}

func TestDrawService_NotifierFailureDoesNotFailDraw(t *testing.T) {
	ledger, clk := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{3}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	notifier := new(testhelpers.MockWinnerNotifier)
	notifier.On("NotifyWinner", mock.Anything, mock.Anything).Return(errors.New("channel gone"))

	service := NewDrawService(ledger, nil, notifier, clk)
	winner, err := service.Draw(ctx)
	require.NoError(t, err)
	assert.NotNil(t, winner)
	assert.NotNil(t, ledger.Winner())
}

func TestDrawService_RedrawOverwritesWinner(t *testing.T) {
	ledger, clk := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitPurchase(ctx, []int64{9}, "Maria Silva", "11987654321", "maria@example.com")
	require.NoError(t, err)

	service := NewDrawService(ledger, nil, nil, clk)
	first, err := service.Draw(ctx)
	require.NoError(t, err)

	second, err := service.Draw(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, second.Announcement, ledger.Winner().Announcement)
}

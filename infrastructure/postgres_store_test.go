package infrastructure

import (
	"context"
	"testing"
	"time"

	"rifa/database/testutil"
	"rifa/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSnapshotStore_LoadEmpty(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	store := NewPostgresSnapshotStore(testDB.DB)

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestPostgresSnapshotStore_SaveAndLoad(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	store := NewPostgresSnapshotStore(testDB.DB)
	ctx := context.Background()

	participant := entities.NewParticipant("Maria Silva", "(11) 98765-4321", "maria@example.com", time.Now().UTC().Truncate(time.Second))
	saved := &entities.Snapshot{
		Config: entities.RaffleConfig{
			TotalNumbers:       1_000_000,
			PricePerNumber:     10.00,
			MaxPurchaseLimit:   50,
			MaxEntriesPerPhone: 100,
		},
		Prize: entities.PrizeInfo{
			Name:        "Moto 0km",
			Description: "Concorra a uma moto zero!",
		},
		SoldOwners: map[int64]string{
			10: participant.ID,
			11: participant.ID,
		},
		Participants: map[string]entities.Participant{
			participant.ID: participant,
		},
		PhoneToNumbers: map[string][]int64{
			"11987654321": {10, 11},
		},
		ParticipantToNumbers: map[string][]int64{
			participant.ID: {10, 11},
		},
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Config, loaded.Config)
	assert.Equal(t, saved.Prize, loaded.Prize)
	assert.Equal(t, saved.SoldOwners, loaded.SoldOwners)
	assert.Equal(t, saved.PhoneToNumbers, loaded.PhoneToNumbers)
	assert.Equal(t, "Maria Silva", loaded.Participants[participant.ID].Name)
	assert.Nil(t, loaded.Winner)
}

func TestPostgresSnapshotStore_SaveOverwrites(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	store := NewPostgresSnapshotStore(testDB.DB)
	ctx := context.Background()

	first := &entities.Snapshot{
		Config: entities.RaffleConfig{TotalNumbers: 1_000_000, PricePerNumber: 10.00, MaxPurchaseLimit: 50, MaxEntriesPerPhone: 100},
		Prize:  entities.DefaultPrizeInfo(),
	}
	require.NoError(t, store.Save(ctx, first))

	second := &entities.Snapshot{
		Config: first.Config,
		Prize:  entities.PrizeInfo{Name: "Novo prêmio", Description: "Atualizado"},
		Winner: &entities.Winner{
			Number:       42,
			Participant:  entities.NewParticipant("Maria Silva", "11987654321", "maria@example.com", time.Now().UTC().Truncate(time.Second)),
			Announcement: "Parabéns!",
			DrawnAt:      time.Now().UTC().Truncate(time.Second),
		},
	}
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Novo prêmio", loaded.Prize.Name)
	require.NotNil(t, loaded.Winner)
	assert.Equal(t, int64(42), loaded.Winner.Number)
}

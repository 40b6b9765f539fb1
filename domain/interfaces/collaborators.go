package interfaces

import (
	"context"

	"rifa/domain/entities"
)

// SnapshotStore persists the full ledger + configuration as a serializable
// snapshot. Load returns (nil, nil) when no snapshot has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*entities.Snapshot, error)
	Save(ctx context.Context, snapshot *entities.Snapshot) error
}

// ContentGenerator produces promotional text. Callers must tolerate failure
// by falling back to fixed default strings; a generator error never blocks
// the purchase or draw flow.
type ContentGenerator interface {
	GenerateDescription(ctx context.Context, prizeName, instruction string) (string, error)
	AnnounceWinner(ctx context.Context, winnerName, prizeName string, number int64) (string, error)
}

// ImageGenerator produces a prize image as a data URI. An error or empty
// result means unavailable, handled by leaving the existing image unchanged.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prizeName string) (string, error)
}

// WinnerNotifier publishes a draw result to an external channel. Failures
// are logged, never surfaced as blocking errors.
type WinnerNotifier interface {
	NotifyWinner(ctx context.Context, winner *entities.Winner) error
}

package testhelpers

import (
	"context"
	"sync"

	"rifa/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockSnapshotStore is a mock implementation of SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*entities.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Snapshot), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// MockContentGenerator is a mock implementation of ContentGenerator
type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateDescription(ctx context.Context, prizeName, instruction string) (string, error) {
	args := m.Called(ctx, prizeName, instruction)
	return args.String(0), args.Error(1)
}

func (m *MockContentGenerator) AnnounceWinner(ctx context.Context, winnerName, prizeName string, number int64) (string, error) {
	args := m.Called(ctx, winnerName, prizeName, number)
	return args.String(0), args.Error(1)
}

// MockImageGenerator is a mock implementation of ImageGenerator
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, prizeName string) (string, error) {
	args := m.Called(ctx, prizeName)
	return args.String(0), args.Error(1)
}

// MockWinnerNotifier is a mock implementation of WinnerNotifier
type MockWinnerNotifier struct {
	mock.Mock
}

func (m *MockWinnerNotifier) NotifyWinner(ctx context.Context, winner *entities.Winner) error {
	args := m.Called(ctx, winner)
	return args.Error(0)
}

// MemorySnapshotStore keeps the last saved snapshot in memory. It is a
// functioning store for tests that exercise save/load round-trips without
// testify expectations on every mutation.
type MemorySnapshotStore struct {
	mu       sync.Mutex
	snapshot *entities.Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (m *MemorySnapshotStore) Load(ctx context.Context) (*entities.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, nil
}

func (m *MemorySnapshotStore) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot
	return nil
}

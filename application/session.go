package application

import (
	"context"
	"sync"
	"time"

	"rifa/clock"
	"rifa/domain/entities"
	"rifa/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SessionState is the purchase workflow state. Selecting is transient: a
// session only becomes visible once its reservation succeeded, already
// awaiting identification.
type SessionState string

const (
	StateAwaitingIdentification SessionState = "awaiting_identification"
	StateCommitted              SessionState = "committed"
	StateCancelled              SessionState = "cancelled"
	StateExpired                SessionState = "expired"
)

// terminalSessionRetention is how long finished sessions stay queryable so
// the buyer can still fetch their purchase history.
const terminalSessionRetention = 24 * time.Hour

// PurchaseSession tracks one selection -> reservation -> identification ->
// commit/cancel flow. The authoritative deadline is ExpiresAt; any countdown
// shown to the user is display only.
type PurchaseSession struct {
	ID        string             `json:"id"`
	Numbers   []int64            `json:"numbers"`
	State     SessionState       `json:"state"`
	ExpiresAt time.Time          `json:"expires_at"`
	CreatedAt time.Time          `json:"created_at"`
	History   []entities.Purchase `json:"history,omitempty"`
}

// RemainingSeconds returns the countdown value for display.
func (s *PurchaseSession) RemainingSeconds(now time.Time) int64 {
	if s.State != StateAwaitingIdentification {
		return 0
	}
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

func (s *PurchaseSession) holds(n int64) bool {
	for _, held := range s.Numbers {
		if held == n {
			return true
		}
	}
	return false
}

// SessionManager orchestrates purchase workflows against the ledger. All
// session mutation is serialized on one mutex, and reservation changes go
// through the ledger's own atomic operations.
type SessionManager struct {
	mu       sync.Mutex
	ledger   *services.Ledger
	clock    clock.Clock
	ttl      time.Duration
	sessions map[string]*PurchaseSession
}

// NewSessionManager creates a session manager with the given reservation TTL.
func NewSessionManager(ledger *services.Ledger, clk clock.Clock, ttl time.Duration) *SessionManager {
	return &SessionManager{
		ledger:   ledger,
		clock:    clk,
		ttl:      ttl,
		sessions: make(map[string]*PurchaseSession),
	}
}

// SelectNumber reserves a single explicitly chosen number and opens a
// session awaiting identification.
func (m *SessionManager) SelectNumber(n int64) (*PurchaseSession, error) {
	if err := m.ledger.Reserve([]int64{n}, m.ttl); err != nil {
		return nil, err
	}
	return m.open([]int64{n}), nil
}

// SelectRandom reserves count random available numbers from the given grid
// page and opens a session awaiting identification.
func (m *SessionManager) SelectRandom(page, count int) (*PurchaseSession, error) {
	numbers, err := m.ledger.ReserveRandom(page, count, m.ttl)
	if err != nil {
		return nil, err
	}
	return m.open(numbers), nil
}

func (m *SessionManager) open(numbers []int64) *PurchaseSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.pruneLocked(now)

	session := &PurchaseSession{
		ID:        uuid.NewString(),
		Numbers:   numbers,
		State:     StateAwaitingIdentification,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	m.sessions[session.ID] = session

	log.WithFields(log.Fields{
		"session": session.ID,
		"count":   len(numbers),
	}).Info("Reservation opened")

	return session
}

// Submit completes the identification step and commits the purchase. The
// identity must validate and the session must still be within its deadline;
// the ledger re-checks sold conflicts and the per-phone cap atomically.
func (m *SessionManager) Submit(ctx context.Context, sessionID, name, phone, email string) (*PurchaseSession, error) {
	if err := entities.ValidateIdentity(name, phone, email); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	if session.State != StateAwaitingIdentification {
		return nil, entities.ErrSessionNotActive
	}

	now := m.clock.Now()
	if !now.Before(session.ExpiresAt) {
		// The deadline passed even if the sweeper has not run yet.
		session.State = StateExpired
		return nil, entities.ErrReservationExpired
	}

	participant, err := m.ledger.CommitPurchase(ctx, session.Numbers, name, phone, email)
	if err != nil {
		return nil, err
	}

	prizeName := m.ledger.Prize().Name
	for _, n := range session.Numbers {
		session.History = append(session.History, entities.Purchase{
			Number:      n,
			PurchasedAt: now,
			PrizeName:   prizeName,
		})
	}
	session.State = StateCommitted

	log.WithFields(log.Fields{
		"session":     session.ID,
		"participant": participant.ID,
		"count":       len(session.Numbers),
	}).Info("Purchase committed")

	return session, nil
}

// Cancel releases the session's reservation immediately.
func (m *SessionManager) Cancel(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return entities.ErrSessionNotFound
	}
	if session.State != StateAwaitingIdentification {
		return entities.ErrSessionNotActive
	}

	m.ledger.CancelReservation(session.Numbers)
	session.State = StateCancelled
	return nil
}

// Get returns the session by id.
func (m *SessionManager) Get(sessionID string) (*PurchaseSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	return session, nil
}

// InvalidateNumbers forces any active session holding one of the released
// numbers into the Expired terminal state. Called by the sweeper after it
// removes expired reservations.
func (m *SessionManager) InvalidateNumbers(released []int64) {
	if len(released) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, session := range m.sessions {
		if session.State != StateAwaitingIdentification {
			continue
		}
		for _, n := range released {
			if session.holds(n) {
				session.State = StateExpired
				log.WithField("session", session.ID).Info("Reservation expired before purchase")
				break
			}
		}
	}
}

// pruneLocked drops terminal sessions past the retention window.
func (m *SessionManager) pruneLocked(now time.Time) {
	for id, session := range m.sessions {
		if session.State == StateAwaitingIdentification {
			continue
		}
		if now.Sub(session.CreatedAt) > terminalSessionRetention {
			delete(m.sessions, id)
		}
	}
}

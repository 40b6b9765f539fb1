package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"rifa/clock"
	"rifa/domain/entities"
	"rifa/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Ledger is the authoritative mapping of number -> status, owner linkage and
// phone/participant aggregation. Every number is in exactly one of three
// states at any instant: available, reserved (with an expiry), or sold.
//
// All mutations run under a single mutex and update every derived index in
// the same critical section, so no reader ever observes an intermediate
// snapshot. Batch operations (Reserve, CommitPurchase) are all-or-nothing.
type Ledger struct {
	mu    sync.Mutex
	clock clock.Clock
	store interfaces.SnapshotStore

	cfg   entities.RaffleConfig
	prize entities.PrizeInfo

	soldOwners           map[int64]string // number -> participant id
	reservations         map[int64]time.Time
	participants         map[string]entities.Participant
	phoneToNumbers       map[string][]int64 // normalized phone -> numbers
	participantToNumbers map[string][]int64
	winner               *entities.Winner
}

// NewLedger creates an empty ledger with the given configuration. The store
// may be nil, in which case state is held in memory only.
func NewLedger(cfg entities.RaffleConfig, store interfaces.SnapshotStore, clk clock.Clock) *Ledger {
	return &Ledger{
		clock:                clk,
		store:                store,
		cfg:                  cfg,
		prize:                entities.DefaultPrizeInfo(),
		soldOwners:           make(map[int64]string),
		reservations:         make(map[int64]time.Time),
		participants:         make(map[string]entities.Participant),
		phoneToNumbers:       make(map[string][]int64),
		participantToNumbers: make(map[string][]int64),
	}
}

// Load restores the ledger from the snapshot store. Reservations are always
// reset to empty regardless of saved content. A missing snapshot leaves the
// configured defaults in place.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	snapshot, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load raffle snapshot: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cfg = snapshot.Config
	l.prize = snapshot.Prize
	l.winner = snapshot.Winner
	l.soldOwners = make(map[int64]string, len(snapshot.SoldOwners))
	for n, id := range snapshot.SoldOwners {
		l.soldOwners[n] = id
	}
	l.participants = make(map[string]entities.Participant, len(snapshot.Participants))
	for id, p := range snapshot.Participants {
		l.participants[id] = p
	}
	l.phoneToNumbers = copyIndex(snapshot.PhoneToNumbers)
	l.participantToNumbers = copyIndex(snapshot.ParticipantToNumbers)
	l.reservations = make(map[int64]time.Time)

	log.WithFields(log.Fields{
		"sold":         len(l.soldOwners),
		"participants": len(l.participants),
	}).Info("Raffle ledger restored from snapshot")

	return nil
}

// IsAvailable reports whether n is neither sold nor actively reserved. A
// reservation whose expiry has passed counts as available even before the
// sweeper physically removes it.
func (l *Ledger) IsAvailable(n int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isAvailableLocked(n, l.clock.Now())
}

func (l *Ledger) isAvailableLocked(n int64, now time.Time) bool {
	if !l.cfg.InRange(n) {
		return false
	}
	if _, sold := l.soldOwners[n]; sold {
		return false
	}
	expiresAt, reserved := l.reservations[n]
	if !reserved {
		return true
	}
	return !now.Before(expiresAt) // logical expiry precedes physical cleanup
}

// Reserve places a time-limited hold on every number in the batch. The batch
// is evaluated as one atomic step: if any member is sold or actively
// reserved, nothing is reserved and ErrAlreadyTaken is returned.
func (l *Ledger) Reserve(numbers []int64, ttl time.Duration) error {
	if len(numbers) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	seen := make(map[int64]bool, len(numbers))
	for _, n := range numbers {
		if seen[n] || !l.isAvailableLocked(n, now) {
			return entities.ErrAlreadyTaken
		}
		seen[n] = true
	}

	expiresAt := now.Add(ttl)
	for _, n := range numbers {
		l.reservations[n] = expiresAt
	}
	return nil
}

// ReserveRandom reserves count numbers drawn uniformly without replacement
// from the numbers available on the given grid page at the instant of the
// draw. It fails with ErrLimitExceeded when count exceeds the per-transaction
// cap and ErrInsufficientAvailability when the page holds fewer free numbers
// than requested.
func (l *Ledger) ReserveRandom(page, count int, ttl time.Duration) ([]int64, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if count > l.cfg.MaxPurchaseLimit {
		return nil, entities.ErrLimitExceeded
	}

	now := l.clock.Now()
	start, end := l.cfg.PageBounds(page)
	available := make([]int64, 0, end-start)
	for n := start; n < end; n++ {
		if l.isAvailableLocked(n, now) {
			available = append(available, n)
		}
	}
	if len(available) < count {
		return nil, entities.ErrInsufficientAvailability
	}

	chosen, err := sampleWithoutReplacement(available, count)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(ttl)
	for _, n := range chosen {
		l.reservations[n] = expiresAt
	}
	return chosen, nil
}

// CancelReservation removes the reservation entries for the given numbers.
// Idempotent: numbers already expired or never reserved are skipped.
func (l *Ledger) CancelReservation(numbers []int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range numbers {
		delete(l.reservations, n)
	}
}

// ExpireReservations removes every reservation whose expiry has passed and
// returns the released numbers in ascending order.
func (l *Ledger) ExpireReservations(now time.Time) []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var released []int64
	for n, expiresAt := range l.reservations {
		if !now.Before(expiresAt) {
			delete(l.reservations, n)
			released = append(released, n)
		}
	}
	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	return released
}

// CommitPurchase marks the batch sold under a newly created participant.
// The sold-status of every number is re-checked atomically so two flows
// racing on the same number cannot both commit: the loser fails with
// ErrAlreadyTaken and the whole batch is rejected. The per-phone entry cap is
// enforced before anything is mutated; on success all indices are updated in
// the same critical section and the snapshot is persisted.
func (l *Ledger) CommitPurchase(ctx context.Context, numbers []int64, name, phone, email string) (entities.Participant, error) {
	if len(numbers) == 0 {
		return entities.Participant{}, fmt.Errorf("no numbers to purchase")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[int64]bool, len(numbers))
	for _, n := range numbers {
		if !l.cfg.InRange(n) {
			return entities.Participant{}, fmt.Errorf("number %d out of range", n)
		}
		if _, sold := l.soldOwners[n]; sold || seen[n] {
			return entities.Participant{}, entities.ErrAlreadyTaken
		}
		seen[n] = true
	}

	if CheckEntryLimit(phone, len(numbers), l.phoneToNumbers, l.cfg.MaxEntriesPerPhone) {
		return entities.Participant{}, entities.ErrLimitExceeded
	}

	participant := entities.NewParticipant(name, phone, email, l.clock.Now())
	normalized := entities.NormalizePhone(phone)
	for _, n := range numbers {
		l.soldOwners[n] = participant.ID
		delete(l.reservations, n)
	}
	l.participants[participant.ID] = participant
	l.phoneToNumbers[normalized] = append(l.phoneToNumbers[normalized], numbers...)
	l.participantToNumbers[participant.ID] = append(l.participantToNumbers[participant.ID], numbers...)

	l.persistLocked(ctx)
	return participant, nil
}

// EntryCount returns how many numbers the normalized phone has ever
// purchased. Phones with fewer than eight digits always count as zero.
func (l *Ledger) EntryCount(phone string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	normalized := entities.NormalizePhone(phone)
	if len(normalized) < entities.MinPhoneDigits {
		return 0
	}
	return len(l.phoneToNumbers[normalized])
}

// RandomSoldNumber selects one number uniformly at random from the sold set.
func (l *Ledger) RandomSoldNumber() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.soldOwners) == 0 {
		return 0, entities.ErrNoSoldNumbers
	}
	sold := make([]int64, 0, len(l.soldOwners))
	for n := range l.soldOwners {
		sold = append(sold, n)
	}
	idx, err := randomIndex(len(sold))
	if err != nil {
		return 0, err
	}
	return sold[idx], nil
}

// OwnerOf resolves the participant owning a sold number.
func (l *Ledger) OwnerOf(n int64) (entities.Participant, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.soldOwners[n]
	if !ok {
		return entities.Participant{}, false
	}
	p, ok := l.participants[id]
	return p, ok
}

// Search resolves a raw query to a bounded set of numbers. A plain
// non-negative integer below the number space returns that single number;
// anything else matches participant names (case-insensitive) and phone digit
// fragments (eight digits or more). Results are deduplicated, ascending and
// capped at 100.
func (l *Ledger) Search(query string) []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	if isDigits(query) {
		if n, err := strconv.ParseInt(query, 10, 64); err == nil && l.cfg.InRange(n) {
			return []int64{n}
		}
	}

	found := make(map[int64]bool)
	queryDigits := entities.NormalizePhone(query)
	if len(queryDigits) >= entities.MinPhoneDigits {
		for phone, numbers := range l.phoneToNumbers {
			if strings.Contains(phone, queryDigits) {
				for _, n := range numbers {
					found[n] = true
				}
			}
		}
	}

	for id, p := range l.participants {
		if strings.Contains(strings.ToLower(p.Name), query) {
			for _, n := range l.participantToNumbers[id] {
				found[n] = true
			}
		}
	}

	results := make([]int64, 0, len(found))
	for n := range found {
		results = append(results, n)
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	if len(results) > 100 {
		results = results[:100]
	}
	return results
}

// StatusPage returns the per-number state for one grid page. Owner names are
// included only when requested (admin view).
func (l *Ledger) StatusPage(page int, includeOwners bool) []entities.TicketStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	start, end := l.cfg.PageBounds(page)
	statuses := make([]entities.TicketStatus, 0, end-start)
	for n := start; n < end; n++ {
		status := entities.TicketStatus{Number: n, Status: entities.StatusAvailable}
		if ownerID, sold := l.soldOwners[n]; sold {
			status.Status = entities.StatusSold
			if includeOwners {
				status.OwnerName = l.participants[ownerID].Name
			}
		} else if !l.isAvailableLocked(n, now) {
			status.Status = entities.StatusReserved
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Statuses returns the states of an arbitrary set of numbers (search results).
func (l *Ledger) Statuses(numbers []int64, includeOwners bool) []entities.TicketStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	statuses := make([]entities.TicketStatus, 0, len(numbers))
	for _, n := range numbers {
		if !l.cfg.InRange(n) {
			continue
		}
		status := entities.TicketStatus{Number: n, Status: entities.StatusAvailable}
		if ownerID, sold := l.soldOwners[n]; sold {
			status.Status = entities.StatusSold
			if includeOwners {
				status.OwnerName = l.participants[ownerID].Name
			}
		} else if !l.isAvailableLocked(n, now) {
			status.Status = entities.StatusReserved
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Summary describes the overall sales state for the dashboard.
type Summary struct {
	TotalNumbers int64   `json:"total_numbers"`
	Sold         int     `json:"sold"`
	Reserved     int     `json:"reserved"`
	Revenue      float64 `json:"revenue"`
}

// Summarize returns sold/reserved counts and revenue at the current price.
func (l *Ledger) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	reserved := 0
	for _, expiresAt := range l.reservations {
		if now.Before(expiresAt) {
			reserved++
		}
	}
	return Summary{
		TotalNumbers: l.cfg.TotalNumbers,
		Sold:         len(l.soldOwners),
		Reserved:     reserved,
		Revenue:      float64(len(l.soldOwners)) * l.cfg.PricePerNumber,
	}
}

// Config returns the current raffle configuration.
func (l *Ledger) Config() entities.RaffleConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Prize returns the current prize information.
func (l *Ledger) Prize() entities.PrizeInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prize
}

// UpdateConfig changes the admin-tunable raffle parameters. The number space
// itself is fixed at creation. Non-positive values leave the current setting
// unchanged.
func (l *Ledger) UpdateConfig(ctx context.Context, pricePerNumber float64, maxPurchaseLimit, maxEntriesPerPhone int) entities.RaffleConfig {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pricePerNumber > 0 {
		l.cfg.PricePerNumber = pricePerNumber
	}
	if maxPurchaseLimit > 0 {
		l.cfg.MaxPurchaseLimit = maxPurchaseLimit
	}
	if maxEntriesPerPhone > 0 {
		l.cfg.MaxEntriesPerPhone = maxEntriesPerPhone
	}
	l.persistLocked(ctx)
	return l.cfg
}

// UpdatePrize changes the prize name, description and image. An empty image
// leaves the current one unchanged.
func (l *Ledger) UpdatePrize(ctx context.Context, name, description, imageData string) entities.PrizeInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(name) != "" {
		l.prize.Name = name
	}
	if strings.TrimSpace(description) != "" {
		l.prize.Description = description
	}
	if strings.TrimSpace(imageData) != "" {
		l.prize.ImageData = imageData
	}
	l.persistLocked(ctx)
	return l.prize
}

// Winner returns the current winner record, or nil if none is set.
func (l *Ledger) Winner() *entities.Winner {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.winner
}

// SetWinner records the draw result, overwriting any previous record.
func (l *Ledger) SetWinner(ctx context.Context, winner *entities.Winner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.winner = winner
	l.persistLocked(ctx)
}

// ClearWinner removes the winner record on explicit dismissal.
func (l *Ledger) ClearWinner(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.winner = nil
	l.persistLocked(ctx)
}

// Snapshot returns a copy of the persistable ledger state.
func (l *Ledger) Snapshot() *entities.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() *entities.Snapshot {
	snapshot := &entities.Snapshot{
		Config:               l.cfg,
		Prize:                l.prize,
		SoldOwners:           make(map[int64]string, len(l.soldOwners)),
		Participants:         make(map[string]entities.Participant, len(l.participants)),
		PhoneToNumbers:       copyIndex(l.phoneToNumbers),
		ParticipantToNumbers: copyIndex(l.participantToNumbers),
		Winner:               l.winner,
	}
	for n, id := range l.soldOwners {
		snapshot.SoldOwners[n] = id
	}
	for id, p := range l.participants {
		snapshot.Participants[id] = p
	}
	return snapshot
}

// persistLocked writes the current snapshot to the store. Persistence is
// best-effort: a failed save is logged and never fails the mutation, matching
// local single-device durability semantics.
func (l *Ledger) persistLocked(ctx context.Context) {
	if l.store == nil {
		return
	}
	if err := l.store.Save(ctx, l.snapshotLocked()); err != nil {
		log.WithError(err).Warn("Failed to persist raffle snapshot")
	}
}

func copyIndex(src map[string][]int64) map[string][]int64 {
	dst := make(map[string][]int64, len(src))
	for key, numbers := range src {
		dst[key] = append([]int64(nil), numbers...)
	}
	return dst
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sampleWithoutReplacement picks count elements uniformly from the candidate
// set via a partial Fisher-Yates shuffle. The order of the remaining
// candidates is irrelevant to the output distribution.
func sampleWithoutReplacement(candidates []int64, count int) ([]int64, error) {
	for i := 0; i < count; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates)-i)))
		if err != nil {
			return nil, fmt.Errorf("random generation failed: %w", err)
		}
		j := i + int(n.Int64())
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	return candidates[:count], nil
}

func randomIndex(n int) (int, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random generation failed: %w", err)
	}
	return int(idx.Int64()), nil
}

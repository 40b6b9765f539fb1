package application

import (
	"context"
	"time"

	"rifa/clock"
	"rifa/domain/services"

	log "github.com/sirupsen/logrus"
)

// ReservationSweeper periodically releases reservations past their deadline.
// It is the only background mutator of the ledger; every tick is one atomic
// ExpireReservations step followed by invalidating the affected sessions.
type ReservationSweeper struct {
	ledger   *services.Ledger
	sessions *SessionManager
	clock    clock.Clock
	interval time.Duration
}

// NewReservationSweeper creates a sweeper running at the given interval.
func NewReservationSweeper(ledger *services.Ledger, sessions *SessionManager, clk clock.Clock, interval time.Duration) *ReservationSweeper {
	return &ReservationSweeper{
		ledger:   ledger,
		sessions: sessions,
		clock:    clk,
		interval: interval,
	}
}

// Start begins the sweep loop and returns a stop function.
func (w *ReservationSweeper) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", w.interval).Info("Reservation sweeper started")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Reservation sweeper shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Reservation sweeper shutting down (stop requested)...")
				return
			case <-ticker.C:
				w.Sweep()
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// Sweep performs one expiry pass.
func (w *ReservationSweeper) Sweep() {
	released := w.ledger.ExpireReservations(w.clock.Now())
	if len(released) == 0 {
		return
	}

	w.sessions.InvalidateNumbers(released)
	log.WithField("released", len(released)).Info("Expired reservations released")
}

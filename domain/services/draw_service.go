package services

import (
	"context"
	"fmt"
	"time"

	"rifa/clock"
	"rifa/domain/entities"
	"rifa/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// announcementTimeout bounds the generator call so a slow collaborator can
// never hold up the draw.
const announcementTimeout = 15 * time.Second

// DrawService selects a uniformly random sold number, resolves its owner and
// produces the winner record.
type DrawService struct {
	ledger    *Ledger
	generator interfaces.ContentGenerator
	notifier  interfaces.WinnerNotifier
	clock     clock.Clock
}

// NewDrawService creates a draw service. The notifier may be nil when no
// announcement channel is configured.
func NewDrawService(ledger *Ledger, generator interfaces.ContentGenerator, notifier interfaces.WinnerNotifier, clk clock.Clock) *DrawService {
	return &DrawService{
		ledger:    ledger,
		generator: generator,
		notifier:  notifier,
		clock:     clk,
	}
}

// Draw runs the raffle draw. It fails with ErrNoSoldNumbers when nothing has
// been sold; otherwise it records (and returns) the winner, overwriting any
// previous record. The announcement text comes from the content generator,
// with a static fallback when the generator fails, and is produced outside
// the ledger lock so generation never blocks ledger mutation.
func (s *DrawService) Draw(ctx context.Context) (*entities.Winner, error) {
	number, err := s.ledger.RandomSoldNumber()
	if err != nil {
		return nil, err
	}

	participant, ok := s.ledger.OwnerOf(number)
	if !ok {
		return nil, fmt.Errorf("sold number %d has no owner record", number)
	}

	prizeName := s.ledger.Prize().Name
	announcement := s.announce(ctx, participant.Name, prizeName, number)

	winner := &entities.Winner{
		Number:       number,
		Participant:  participant,
		Announcement: announcement,
		DrawnAt:      s.clock.Now(),
	}
	s.ledger.SetWinner(ctx, winner)

	if s.notifier != nil {
		if err := s.notifier.NotifyWinner(ctx, winner); err != nil {
			log.WithError(err).WithField("number", number).Warn("Failed to notify winner announcement")
		}
	}

	log.WithFields(log.Fields{
		"number":      number,
		"participant": participant.ID,
	}).Info("Raffle draw completed")

	return winner, nil
}

func (s *DrawService) announce(ctx context.Context, winnerName, prizeName string, number int64) string {
	if s.generator == nil {
		return entities.FallbackAnnouncement(winnerName, number)
	}

	genCtx, cancel := context.WithTimeout(ctx, announcementTimeout)
	defer cancel()

	announcement, err := s.generator.AnnounceWinner(genCtx, winnerName, prizeName, number)
	if err != nil || announcement == "" {
		if err != nil {
			log.WithError(err).Warn("Announcement generator failed, using fallback")
		}
		return entities.FallbackAnnouncement(winnerName, number)
	}
	return announcement
}

package entities

import (
	"fmt"
	"time"
)

// Winner is the singleton draw result. Repeated draws overwrite it; explicit
// dismissal clears it.
type Winner struct {
	Number       int64       `json:"number"`
	Participant  Participant `json:"participant"`
	Announcement string      `json:"announcement"`
	DrawnAt      time.Time   `json:"drawn_at"`
}

// FallbackAnnouncement is used when the announcement generator fails or is
// unavailable.
func FallbackAnnouncement(winnerName string, number int64) string {
	return fmt.Sprintf("Parabéns ao ganhador %s com o número %s!", winnerName, FormatNumber(number))
}

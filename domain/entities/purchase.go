package entities

import "time"

// Purchase is one entry of the local purchase history: what the buyer sees in
// "my tickets". It records the prize name at the time of purchase and is
// independent of the authoritative ledger.
type Purchase struct {
	Number      int64     `json:"number"`
	PurchasedAt time.Time `json:"purchased_at"`
	PrizeName   string    `json:"prize_name"`
}

package entities

// PageSize is the number of entries shown per grid page. Random batch
// selection draws from the currently viewed page only.
const PageSize = 100

// RaffleConfig holds the raffle parameters mutated only by the admin
// workflow. It is passed explicitly into the operations that need it rather
// than read from ambient global state.
type RaffleConfig struct {
	TotalNumbers       int64   `json:"total_numbers"`
	PricePerNumber     float64 `json:"price_per_number"`
	MaxPurchaseLimit   int     `json:"max_purchase_limit"`
	MaxEntriesPerPhone int     `json:"max_entries_per_phone"`
}

// InRange reports whether n is a valid number for this raffle.
func (c RaffleConfig) InRange(n int64) bool {
	return n >= 0 && n < c.TotalNumbers
}

// PageBounds returns the [start, end) number range of a grid page, clamped
// to the number space.
func (c RaffleConfig) PageBounds(page int) (int64, int64) {
	if page < 0 {
		page = 0
	}
	start := int64(page) * PageSize
	if start > c.TotalNumbers {
		start = c.TotalNumbers
	}
	end := start + PageSize
	if end > c.TotalNumbers {
		end = c.TotalNumbers
	}
	return start, end
}

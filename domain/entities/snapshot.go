package entities

// Snapshot is the serializable ledger state persisted after every mutation
// and reloaded at start. Reservations are deliberately absent: expiry
// timestamps from a previous session are meaningless, so reloads always start
// with an empty reservation map.
type Snapshot struct {
	Config               RaffleConfig           `json:"config"`
	Prize                PrizeInfo              `json:"prize"`
	SoldOwners           map[int64]string       `json:"sold_owners"`
	Participants         map[string]Participant `json:"participants"`
	PhoneToNumbers       map[string][]int64     `json:"phone_to_numbers"`
	ParticipantToNumbers map[string][]int64     `json:"participant_to_numbers"`
	Winner               *Winner                `json:"winner,omitempty"`
}

// TicketStatus is the per-number state exposed to the grid.
type TicketStatus struct {
	Number    int64  `json:"number"`
	Status    string `json:"status"` // "available", "reserved" or "sold"
	OwnerName string `json:"owner_name,omitempty"`
}

const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusSold      = "sold"
)

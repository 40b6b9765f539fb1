package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Brazilian phone format: optional country code 55, optional two-digit area
// code, then a 4/5-digit prefix and a 4-digit suffix. The digit count (10-11)
// is enforced separately.
var (
	phonePattern    = regexp.MustCompile(`^(?:(?:\+|00)?55\s?)?(?:\(?([1-9][0-9])\)?\s?)?(?:((?:9\d|[2-9])\d{3})-?(\d{4}))$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// MinPhoneDigits is the shortest normalized phone the indices track. Anything
// shorter is unvalidated input and counts as having no existing entries.
const MinPhoneDigits = 8

// Participant is a purchaser identity record, created once per completed
// purchase transaction. Immutable once created; the same phone may appear on
// many participant records.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"` // raw user input
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewParticipant creates a participant record with a generated id.
func NewParticipant(name, phone, email string, now time.Time) Participant {
	return Participant{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Email:     email,
		CreatedAt: now,
	}
}

// NormalizePhone strips all non-digit characters from a raw phone input.
func NormalizePhone(raw string) string {
	return nonDigitPattern.ReplaceAllString(raw, "")
}

// ValidatePhone checks a raw phone input against the expected
// country/area/subscriber digit groups with 10-11 total digits.
func ValidatePhone(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &ValidationError{Field: "phone", Message: "Telefone é obrigatório."}
	}
	if !phonePattern.MatchString(raw) {
		return &ValidationError{Field: "phone", Message: "Telefone inválido."}
	}
	digits := NormalizePhone(raw)
	if len(digits) < 10 || len(digits) > 11 {
		return &ValidationError{Field: "phone", Message: "Deve ter 10 ou 11 dígitos."}
	}
	return nil
}

// ValidateEmail checks a raw email input for the standard local@domain.tld shape.
func ValidateEmail(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &ValidationError{Field: "email", Message: "E-mail é obrigatório."}
	}
	if !emailPattern.MatchString(raw) {
		return &ValidationError{Field: "email", Message: "E-mail inválido."}
	}
	return nil
}

// ValidateIdentity checks the full identification form: all three fields
// non-empty, phone and email well-formed.
func ValidateIdentity(name, phone, email string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "Nome é obrigatório."}
	}
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	return ValidateEmail(email)
}

package services

import "rifa/domain/entities"

// CheckEntryLimit reports whether adding additionalCount numbers under the
// given phone would exceed the lifetime per-phone cap. The phone is
// normalized to digits only; inputs shorter than eight digits are treated as
// having zero existing entries, so unvalidated partial input never blocks a
// purchase prematurely (format validation rejects it separately).
func CheckEntryLimit(phone string, additionalCount int, phoneToNumbers map[string][]int64, maxEntriesPerPhone int) bool {
	normalized := entities.NormalizePhone(phone)
	existing := 0
	if len(normalized) >= entities.MinPhoneDigits {
		existing = len(phoneToNumbers[normalized])
	}
	return existing+additionalCount > maxEntriesPerPhone
}

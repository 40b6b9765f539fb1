package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckEntryLimit(t *testing.T) {
	index := map[string][]int64{
		"11987654321": {1, 2, 3, 4},
	}

	// 4 existing + 1 = 5, at the cap
	assert.False(t, CheckEntryLimit("11987654321", 1, index, 5))

	// 4 existing + 2 = 6, over the cap
	assert.True(t, CheckEntryLimit("11987654321", 2, index, 5))

	// Formatting differences normalize to the same phone
	assert.True(t, CheckEntryLimit("(11) 98765-4321", 2, index, 5))

	// Unknown phone only counts the new batch
	assert.False(t, CheckEntryLimit("11912345678", 5, index, 5))
	assert.True(t, CheckEntryLimit("11912345678", 6, index, 5))
}

func TestCheckEntryLimit_ShortPhoneHasNoHistory(t *testing.T) {
	index := map[string][]int64{
		"1234567": {1, 2, 3, 4, 5},
	}

	// Fewer than eight digits: existing entries are ignored
	assert.False(t, CheckEntryLimit("1234567", 3, index, 5))
	assert.True(t, CheckEntryLimit("1234567", 6, index, 5))
}

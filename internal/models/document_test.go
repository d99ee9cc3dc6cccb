package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusUploaded.Known())
	assert.True(t, StatusExtracted.Known())
	assert.True(t, StatusProcessed.Known())
	assert.True(t, StatusError.Known())
	assert.False(t, Status("").Known())
	assert.False(t, Status("pending").Known())
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusUploaded, StatusExtracted, true},
		{StatusUploaded, StatusProcessed, true},
		{StatusExtracted, StatusProcessed, true},
		{StatusUploaded, StatusError, true},
		{StatusExtracted, StatusError, true},
		{StatusError, StatusUploaded, true},

		// Forward-only: no regressions outside retry.
		{StatusExtracted, StatusUploaded, false},
		{StatusProcessed, StatusExtracted, false},
		{StatusProcessed, StatusUploaded, false},
		// Both processed and error are terminal for their own paths.
		{StatusProcessed, StatusError, false},
		{StatusError, StatusExtracted, false},
		{StatusError, StatusProcessed, false},
		// Unknown statuses never transition.
		{Status("pending"), StatusUploaded, false},
		{StatusUploaded, Status("pending"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

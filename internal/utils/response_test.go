package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseEnvelopes(t *testing.T) {
	ok := SuccessResponse("Booking created successfully", map[string]string{"id": "b1"})
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Error)
	assert.False(t, ok.Timestamp.IsZero())

	fail := ErrorResponse("Internal server error", "Internal server error")
	assert.False(t, fail.Success)
	assert.Nil(t, fail.Data)
	assert.False(t, fail.Timestamp.IsZero())
}

func TestRejectionResponse(t *testing.T) {
	rej := RejectionResponse("SESSION_FULL", "This session is fully booked")
	assert.False(t, rej.Success)
	assert.Equal(t, "SESSION_FULL", rej.Error)
	assert.Equal(t, "This session is fully booked", rej.Message)
	assert.False(t, rej.Timestamp.IsZero())
}

package qr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-gymbooking/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestGenerateCheckInQR(t *testing.T) {
	g := NewGenerator("test-secret")

	booking := &models.Booking{
		ID:        "booking-1",
		UserID:    "user-1",
		SessionID: "session-1",
		Status:    models.StatusConfirmed,
	}

	img, err := g.GenerateCheckInQR(booking)
	require.NoError(t, err)
	require.NotEmpty(t, img)
	assert.True(t, bytes.HasPrefix(img, pngHeader), "output should be a PNG image")
}

func TestGeneratorSecretNormalization(t *testing.T) {
	// Any secret length must yield a usable AES key.
	for _, secret := range []string{"", "short", "a-much-longer-secret-than-a-block-size-allows"} {
		g := NewGenerator(secret)
		_, err := g.GenerateCheckInQR(&models.Booking{ID: "b", UserID: "u", SessionID: "s"})
		assert.NoError(t, err, "secret %q", secret)
	}
}

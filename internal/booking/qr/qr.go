package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/skip2/go-qrcode"

	"ms-gymbooking/internal/models"
)

// Generator issues encrypted check-in QR codes for confirmed bookings. The
// front desk scanner holds the same secret and decrypts the payload offline.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

type checkInPayload struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// GenerateCheckInQR encodes the booking's identity into an AES-encrypted QR
// image (PNG bytes).
func (g *Generator) GenerateCheckInQR(booking *models.Booking) ([]byte, error) {
	data, err := json.Marshal(checkInPayload{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		SessionID: booking.SessionID,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

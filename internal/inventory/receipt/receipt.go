package receipt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"matchday/internal/models"

	"github.com/skip2/go-qrcode"
)

// Generator renders purchase records as QR codes whose payload is the
// encrypted JSON snapshot, so a scanned receipt can be verified server-side
// without exposing the buyer's data.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to a 32-byte key
	return &Generator{secret: hashed[:]}
}

// Encode returns a PNG QR code for the given purchase record.
func (g *Generator) Encode(purchase models.UserTicket) ([]byte, error) {
	data, err := json.Marshal(purchase)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// Decode reverses Encode, returning the purchase record embedded in a
// scanned payload.
func (g *Generator) Decode(payload string) (*models.UserTicket, error) {
	data, err := decryptAES(payload, g.secret)
	if err != nil {
		return nil, err
	}

	var purchase models.UserTicket
	if err := json.Unmarshal(data, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// AES-GCM with the nonce prefixed to the sealed payload. The auth tag means
// a tampered or wrong-key payload fails to open instead of decrypting to
// garbage.
func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, data, nil)

	return base64.URLEncoding.EncodeToString(sealed), nil
}

func decryptAES(payload string, key []byte) ([]byte, error) {
	sealed, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, io.ErrUnexpectedEOF
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

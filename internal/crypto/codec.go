package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrMisconfiguredEncryption is returned when the process has no usable
// encryption key. It is a construction-time failure: a Codec that exists
// can always encrypt and decrypt.
var ErrMisconfiguredEncryption = errors.New("token encryption key missing or invalid")

const keySize = 32 // AES-256

// Codec seals credential snapshots with AES-256-GCM before they reach the
// database. Ciphertext format: base64(nonce || ciphertext || tag).
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a base64-encoded 32-byte key.
func NewCodec(encodedKey string) (*Codec, error) {
	if encodedKey == "" {
		return nil, ErrMisconfiguredEncryption
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64", ErrMisconfiguredEncryption)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrMisconfiguredEncryption, keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfiguredEncryption, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfiguredEncryption, err)
	}

	return &Codec{aead: aead}, nil
}

// EncryptString seals plaintext and returns a base64 string with the nonce prepended.
func (c *Codec) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func (c *Codec) DecryptString(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

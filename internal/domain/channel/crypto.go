package channel

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	// ErrInvalidCipherKey indicates the encryption key is not 32 bytes
	ErrInvalidCipherKey = errors.New("channel: cipher key must be 32 bytes")
	// ErrCiphertextTooShort indicates a truncated or corrupted secret
	ErrCiphertextTooShort = errors.New("channel: ciphertext too short")
)

// SecretCipher encrypts credential secrets at rest with AES-256-GCM.
// Ciphertexts are base64-encoded with the nonce prepended.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher creates a cipher from a 32-byte key
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidCipherKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretCipher{aead: aead}, nil
}

// Encrypt encrypts a plaintext secret for storage
func (s *SecretCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt recovers a plaintext secret from its stored form
func (s *SecretCipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

package service

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// SecretService encrypts and decrypts provider credentials with a fernet
// key so the token never reaches the database in plaintext.
type SecretService struct {
	key *fernet.Key
}

// NewSecretService creates a SecretService from a base64 fernet key.
func NewSecretService(encodedKey string) (*SecretService, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}
	return &SecretService{key: key}, nil
}

// Encrypt returns the fernet ciphertext for the given plaintext.
func (s *SecretService) Encrypt(plaintext string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(plaintext), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return string(token), nil
}

// Decrypt verifies and decrypts a fernet ciphertext. Stored tokens do not
// expire with the ciphertext, only with the provider-side expiry date, so
// the fernet TTL is disabled.
func (s *SecretService) Decrypt(ciphertext string) (string, error) {
	plaintext := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, []*fernet.Key{s.key})
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt secret: invalid ciphertext or key")
	}
	return string(plaintext), nil
}

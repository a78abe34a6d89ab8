package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// TokenTTL is how long an issued API token stays valid.
const TokenTTL = 24 * time.Hour

// ErrTokenExpired is returned by DecryptCredentials for tokens older than TokenTTL.
var ErrTokenExpired = errors.New("token expired")

// Credentials represents the store login details carried inside an API token
type Credentials struct {
	Endpoint     string    `json:"endpoint"`
	Region       string    `json:"region,omitempty"`
	AccessKey    string    `json:"accessKey"`
	SecretKey    string    `json:"secretKey"`
	SessionToken string    `json:"sessionToken,omitempty"` // For STS
	IssuedAt     time.Time `json:"issuedAt"`
}

type AuthService struct {
	encryptionKey []byte
	now           func() time.Time
}

// NewAuthService creates an auth service. A key that is not exactly 32 bytes
// is replaced by a random one, so tokens do not survive a restart.
func NewAuthService(key string) *AuthService {
	if len(key) != 32 {
		newKey := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, newKey); err != nil {
			panic("failed to generate random key")
		}
		return &AuthService{encryptionKey: newKey, now: time.Now}
	}
	return &AuthService{encryptionKey: []byte(key), now: time.Now}
}

// EncryptCredentials stamps IssuedAt, serializes and encrypts creds into an
// opaque token usable as a bearer token or cookie value.
func (s *AuthService) EncryptCredentials(creds Credentials) (string, error) {
	creds.IssuedAt = s.now().UTC()
	data, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredentials decodes a token back into Credentials
func (s *AuthService) DecryptCredentials(encrypted string) (*Credentials, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}

	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("malformed ciphertext")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, err
	}

	if s.now().Sub(creds.IssuedAt) > TokenTTL {
		return nil, ErrTokenExpired
	}

	return &creds, nil
}

func (s *AuthService) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Package securecache provides a security wrapper for httpcache.Store
// implementations: SHA-256 key hashing (always enabled) and optional
// AES-256-GCM encryption of stored values with a scrypt-derived key.
package securecache

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	httpcache "github.com/yan4rust/http-cache"
)

const (
	// scryptN is the CPU/memory cost parameter for scrypt key derivation.
	scryptN = 32768
	// scryptR is the block size parameter for scrypt.
	scryptR = 8
	// scryptP is the parallelization parameter for scrypt.
	scryptP = 1
	// keyLength is the derived key length for AES-256.
	keyLength = 32
	// nonceSize is the size of the GCM nonce.
	nonceSize = 12
)

// SecureStore wraps a httpcache.Store so cache keys never reach the backend
// in clear text and, when a passphrase is configured, neither do values.
type SecureStore struct {
	store httpcache.Store
	gcm   cipher.AEAD
}

// Config holds the configuration for creating a SecureStore.
type Config struct {
	// Store is the underlying store to wrap. Required.
	Store httpcache.Store

	// Passphrase is the secret used to encrypt/decrypt stored values. If
	// empty, only key hashing is performed. It must stay consistent across
	// application restarts or existing entries become unreadable.
	Passphrase string
}

// New creates a SecureStore over config.Store.
func New(config Config) (*SecureStore, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("securecache: store cannot be nil")
	}

	s := &SecureStore{store: config.Store}
	if config.Passphrase != "" {
		gcm, err := newGCM(config.Passphrase)
		if err != nil {
			return nil, err
		}
		s.gcm = gcm
	}
	return s, nil
}

// newGCM derives an AES-256 key from the passphrase with scrypt and returns
// the GCM cipher over it.
func newGCM(passphrase string) (cipher.AEAD, error) {
	salt := sha256.Sum256([]byte("httpcache-securecache-salt-v1"))
	key, err := scrypt.Key([]byte(passphrase), salt[:], scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("securecache: deriving key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("securecache: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("securecache: creating GCM: %w", err)
	}
	return gcm, nil
}

// hashKey converts a cache key to its SHA-256 hex representation before it
// is handed to the backend.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get returns the value stored under key, decrypting it when encryption is
// enabled. A value that fails to decrypt (wrong passphrase, tampering) is
// reported as a miss.
func (s *SecureStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := s.store.Get(ctx, hashKey(key))
	if err != nil || !found {
		return nil, found, err
	}
	if s.gcm == nil {
		return value, true, nil
	}

	plaintext, err := s.decrypt(value)
	if err != nil {
		return nil, false, nil
	}
	return plaintext, true, nil
}

// Set stores value under the hashed key, encrypted when enabled.
func (s *SecureStore) Set(ctx context.Context, key string, value []byte) error {
	if s.gcm != nil {
		ciphertext, err := s.encrypt(value)
		if err != nil {
			return err
		}
		value = ciphertext
	}
	return s.store.Set(ctx, hashKey(key), value)
}

// Delete removes the hashed key from the backend.
func (s *SecureStore) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, hashKey(key))
}

// encrypt seals data with a random nonce prepended to the ciphertext.
func (s *SecureStore) encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("securecache: generating nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, data, nil), nil
}

// decrypt opens data produced by encrypt.
func (s *SecureStore) decrypt(data []byte) ([]byte, error) {
	if len(data) < nonceSize {
		return nil, fmt.Errorf("securecache: ciphertext too short")
	}
	return s.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
}

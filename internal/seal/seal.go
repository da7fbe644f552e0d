// Package seal provides a passphrase-protected envelope for secret bytes
// that a caller has already read out of a shardkey.KeyStore. It never
// touches an executable image; it exists so a decrypted secret can be
// moved off a host (backed up, mailed, staged for a migration) without the
// caller having to invent their own wire format for it.
package seal

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = chacha20poly1305.NonceSize
	keySize   = chacha20poly1305.KeySize

	// scrypt cost parameters. N=2^15 costs roughly 30-60ms on a modern
	// core, which is deliberately most of the latency budget: sealing is
	// an occasional, human-initiated operation, not a hot path.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// Seal derives a key from passphrase with scrypt under a fresh random
// salt, encrypts plaintext with ChaCha20-Poly1305 under a fresh random
// nonce, and returns salt || nonce || ciphertext as a single envelope.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("seal: read salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal: read nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	envelope := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, ciphertext...)
	return envelope, nil
}

// Open reverses Seal: it splits the envelope back into salt, nonce and
// ciphertext, re-derives the key from passphrase and the recovered salt,
// and authenticates and decrypts the ciphertext. A wrong passphrase or a
// tampered envelope both fail here, indistinguishably.
func Open(passphrase string, envelope []byte) ([]byte, error) {
	if len(envelope) < saltSize+nonceSize {
		return nil, errors.New("seal: envelope too short")
	}
	salt := envelope[:saltSize]
	nonce := envelope[saltSize : saltSize+nonceSize]
	ciphertext := envelope[saltSize+nonceSize:]

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("seal: open envelope: %w", err)
	}
	return plaintext, nil
}

func newAEAD(passphrase string, salt []byte) (aeadCipher, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("seal: derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("seal: construct aead: %w", err)
	}
	return aead, nil
}

// aeadCipher is the minimal surface seal needs from cipher.AEAD, named
// locally so newAEAD's return type doesn't force every caller to import
// crypto/cipher just to spell it.
type aeadCipher interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

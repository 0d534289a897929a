// Package envelope implements the authenticated-encryption byte layout used
// for every payload the vault stores. A sealed envelope is self-contained:
//
//	IV(16 bytes) || TAG(16 bytes) || CIPHERTEXT(variable)
//
// AES-256-GCM is the underlying primitive. Its native 12-byte nonce is
// zero-padded to 16 bytes on seal and truncated back on open, so the stored
// layout is always 16+16+N regardless of the primitive.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the required symmetric key length (AES-256).
	KeySize = 32

	ivSize     = 16
	tagSize    = 16
	nonceSize  = 12 // GCM native nonce
	headerSize = ivSize + tagSize
)

var (
	// ErrAuthentication is returned by Open for any envelope whose tag does
	// not verify: corruption, tampering, truncation or a wrong key. No
	// partial plaintext is ever returned alongside it.
	ErrAuthentication = errors.New("envelope authentication failed")

	// ErrKeySize is returned when the keyring yields a key that is not
	// KeySize bytes long.
	ErrKeySize = errors.New("invalid envelope key size")
)

// Codec seals and opens envelopes with a key obtained from its Keyring.
// It is stateless and safe for concurrent use.
type Codec struct {
	keyring Keyring
}

func NewCodec(keyring Keyring) *Codec {
	return &Codec{keyring: keyring}
}

// Seal encrypts plaintext under a fresh random nonce and returns the
// fixed-layout envelope.
func (c *Codec) Seal(plaintext []byte) ([]byte, error) {
	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	// GCM appends the tag to the ciphertext; relocate it into the fixed
	// TAG field so the stored layout stays 16+16+N.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	body := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	env := make([]byte, headerSize+len(body))
	copy(env, nonce) // bytes 12..15 stay zero
	copy(env[ivSize:], tag)
	copy(env[headerSize:], body)
	return env, nil
}

// Open authenticates and decrypts an envelope produced by Seal. Any tag
// mismatch fails closed with ErrAuthentication.
func (c *Codec) Open(env []byte) ([]byte, error) {
	if len(env) < headerSize {
		return nil, ErrAuthentication
	}
	// The nonce padding is part of the fixed layout; a mutated pad byte is
	// tampering even though GCM never sees it.
	for _, b := range env[nonceSize:ivSize] {
		if b != 0 {
			return nil, ErrAuthentication
		}
	}

	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonce := env[:nonceSize]
	sealed := make([]byte, 0, len(env)-headerSize+tagSize)
	sealed = append(sealed, env[headerSize:]...)
	sealed = append(sealed, env[ivSize:headerSize]...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func (c *Codec) aead() (cipher.AEAD, error) {
	key, err := c.keyring.Key()
	if err != nil {
		return nil, fmt.Errorf("keyring: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return aead, nil
}

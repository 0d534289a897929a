package envelope

import (
	"encoding/hex"
	"fmt"
)

// Keyring supplies the symmetric key the Codec seals and opens with. It is
// an explicit collaborator so tests can inject fixed keys and deployments
// can rotate key material without touching the codec.
type Keyring interface {
	Key() ([]byte, error)
}

// StaticKeyring holds a single deployment-wide key. Files sealed with it
// remain decryptable across restarts as long as the configured key does not
// change.
type StaticKeyring struct {
	key []byte
}

func NewStaticKeyring(key []byte) (*StaticKeyring, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySize, len(key), KeySize)
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &StaticKeyring{key: k}, nil
}

// StaticKeyringFromHex builds a keyring from a hex-encoded 32-byte key, the
// form the master key takes in configuration.
func StaticKeyringFromHex(s string) (*StaticKeyring, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	return NewStaticKeyring(key)
}

func (k *StaticKeyring) Key() ([]byte, error) {
	key := make([]byte, KeySize)
	copy(key, k.key)
	return key, nil
}

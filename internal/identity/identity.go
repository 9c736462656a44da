package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidSeed = errors.New("invalid identity seed")

// Identity is the long-lived keypair of a player. The hex-encoded public key
// is the player's address on the relay network.
type Identity struct {
	priv ed25519.PrivateKey
	pub  string
}

// New - generates a fresh keypair.
func New() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	return &Identity{
		priv: priv,
		pub:  hex.EncodeToString(pub),
	}, nil
}

// FromSeed - rebuilds the keypair from a hex-encoded persisted seed.
func FromSeed(seedHex string) (*Identity, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidSeed, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, ErrInvalidSeed
	}

	return &Identity{
		priv: priv,
		pub:  hex.EncodeToString(pub),
	}, nil
}

// Seed - returns the hex seed to persist between sessions.
func (that *Identity) Seed() string {
	return hex.EncodeToString(that.priv.Seed())
}

// PublicKey - returns the hex-encoded public key.
func (that *Identity) PublicKey() string {
	return that.pub
}

// Sign - returns the hex-encoded signature over the data.
func (that *Identity) Sign(data []byte) string {
	return hex.EncodeToString(ed25519.Sign(that.priv, data))
}

// Verify - checks a hex signature against a hex public key.
func Verify(pubHex string, data []byte, sigHex string) bool {
	pub, err := hex.DecodeString(pubHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pub), data, sig)
}

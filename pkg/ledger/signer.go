package ledger

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidSeed = errors.New("invalid seed")

// Signer signs extrinsic payloads on behalf of an account.
type Signer interface {
	AccountID() AccountID
	Sign(payload []byte) ([64]byte, error)
}

// Ed25519Signer signs with an ed25519 key; extrinsics carry its signature
// as the Ed25519 variant of a multi-signature.
type Ed25519Signer struct {
	key solana.PrivateKey
}

func NewEd25519Signer(key solana.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrInvalidSeed, ed25519.PrivateKeySize)
	}
	return &Ed25519Signer{key: key}, nil
}

func (s *Ed25519Signer) AccountID() AccountID {
	return AccountID(s.key.PublicKey())
}

func (s *Ed25519Signer) Sign(payload []byte) ([64]byte, error) {
	sig, err := s.key.Sign(payload)
	if err != nil {
		return [64]byte{}, err
	}
	return [64]byte(sig), nil
}

// ParseSeed loads a signing key from a 0x prefixed 32 byte hex seed, a
// keypair file in the solana-keygen JSON format, or a base58 encoded
// private key.
func ParseSeed(seed string) (*Ed25519Signer, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}

	if strings.HasPrefix(seed, "0x") {
		raw, err := DecodeHex(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
		}
		if len(raw) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: hex seed must be %d bytes, got %d", ErrInvalidSeed, ed25519.SeedSize, len(raw))
		}
		return NewEd25519Signer(solana.PrivateKey(ed25519.NewKeyFromSeed(raw)))
	}

	if _, err := os.Stat(seed); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
		}
		return NewEd25519Signer(key)
	}

	key, err := solana.PrivateKeyFromBase58(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: not a hex seed, keypair file or base58 key", ErrInvalidSeed)
	}
	return NewEd25519Signer(key)
}

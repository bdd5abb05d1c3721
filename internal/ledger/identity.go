package ledger

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Signer identifies the authority that signs ledger writes. The actual
// signing happens node-side; the gateway only forwards the public key.
type Signer struct {
	PublicKey string
}

// Validate checks that the signer key is a well-formed wallet address.
// Wallet keys must lie on the ed25519 curve; only program-derived
// addresses are allowed off-curve, and those cannot sign.
func (s Signer) Validate() error {
	raw, err := decodeIdentifier(s.PublicKey)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("signer %s: public key is not on the ed25519 curve", s.PublicKey)
	}
	return nil
}

// ValidateIdentifier checks that an asset, pool, or program identifier is
// a well-formed base58 32-byte address. Identifiers may be program-derived
// and are not required to be on-curve.
func ValidateIdentifier(id string) error {
	_, err := decodeIdentifier(id)
	return err
}

func decodeIdentifier(id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("empty identifier")
	}
	raw, err := base58.Decode(id)
	if err != nil {
		return nil, fmt.Errorf("identifier %s: %w", id, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("identifier %s: expected 32 bytes, got %d", id, len(raw))
	}
	return raw, nil
}

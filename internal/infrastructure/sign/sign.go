// Package sign issues and verifies short-lived signed capability tokens.
package sign

import (
	"errors"
	"fmt"

	"github.com/btmxh/gym-tsfr/internal/infrastructure/configs"
)

var (
	ErrTokenInvalid   = errors.New("token invalid")
	ErrSignInvalid    = errors.New("sign invalid")
	ErrSignExpired    = errors.New("sign expired")
	ErrKeyUnavailable = errors.New("signing key unavailable")
)

// Signer produces and checks detached signatures over msg.
type Signer interface {
	Sign(msg []byte) ([]byte, error)
	// Verify returns ErrSignInvalid when sig does not match msg.
	Verify(msg, sig []byte) error
	CanSign() bool
}

// NewFromConfig picks the backend once, at startup. An ed25519 config
// without a private key yields a verify-only signer.
func NewFromConfig(cfg configs.QRConfig) (Signer, error) {
	switch cfg.Mode {
	case "ed25519":
		if cfg.PrivateKey == "" {
			return NewEd25519Verifier(cfg.PublicKey)
		}
		return NewEd25519Signer(cfg.PrivateKey, cfg.PublicKey)
	case "hmac":
		return NewHMACSign([]byte(cfg.Secret)), nil
	}

	return nil, fmt.Errorf("unsupported signing mode %q", cfg.Mode)
}

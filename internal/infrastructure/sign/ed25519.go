package sign

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

type Ed25519Sign struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewEd25519Signer loads a keypair from standard base64 DER blobs
// (PKCS#8 private key, SPKI public key).
func NewEd25519Signer(privateKeyBase64, publicKeyBase64 string) (*Ed25519Sign, error) {
	der, err := base64.StdEncoding.DecodeString(privateKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	privateKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an ed25519 key")
	}

	publicKey, err := parsePublicKey(publicKeyBase64)
	if err != nil {
		return nil, err
	}

	if !publicKey.Equal(privateKey.Public()) {
		return nil, errors.New("public key does not match private key")
	}

	return &Ed25519Sign{privateKey: privateKey, publicKey: publicKey}, nil
}

// NewEd25519Verifier is the scanner side: it can only verify.
func NewEd25519Verifier(publicKeyBase64 string) (*Ed25519Sign, error) {
	publicKey, err := parsePublicKey(publicKeyBase64)
	if err != nil {
		return nil, err
	}

	return &Ed25519Sign{publicKey: publicKey}, nil
}

func parsePublicKey(publicKeyBase64 string) (ed25519.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}

	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	publicKey, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an ed25519 key")
	}

	return publicKey, nil
}

func (s *Ed25519Sign) Sign(msg []byte) ([]byte, error) {
	if s.privateKey == nil {
		return nil, ErrKeyUnavailable
	}
	return ed25519.Sign(s.privateKey, msg), nil
}

func (s *Ed25519Sign) Verify(msg, sig []byte) error {
	if !ed25519.Verify(s.publicKey, msg, sig) {
		return ErrSignInvalid
	}
	return nil
}

func (s *Ed25519Sign) CanSign() bool {
	return s.privateKey != nil
}

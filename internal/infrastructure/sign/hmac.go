package sign

import (
	"crypto/hmac"
	"crypto/sha256"
)

type HMACSign struct {
	secret []byte
}

func NewHMACSign(secret []byte) *HMACSign {
	return &HMACSign{secret: secret}
}

func (s *HMACSign) Sign(msg []byte) ([]byte, error) {
	if len(s.secret) == 0 {
		return nil, ErrKeyUnavailable
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(msg)
	return mac.Sum(nil), nil
}

func (s *HMACSign) Verify(msg, sig []byte) error {
	want, err := s.Sign(msg)
	if err != nil {
		return err
	}

	// constant-time compare
	if !hmac.Equal(want, sig) {
		return ErrSignInvalid
	}
	return nil
}

func (s *HMACSign) CanSign() bool {
	return len(s.secret) > 0
}

package sign

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultWindow = 60 * time.Second
	nonceSize     = 16
	tokenParam    = "token"
)

type Subject struct {
	UserID   string
	UserName string
}

type Payload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	// Exp is an epoch in milliseconds.
	Exp   int64  `json:"exp"`
	Nonce string `json:"nonce"`
}

func (p *Payload) ExpiresAt() time.Time {
	return time.UnixMilli(p.Exp)
}

type Option func(*Tokens)

func WithClock(now func() time.Time) Option {
	return func(t *Tokens) { t.now = now }
}

func WithRandom(r io.Reader) Option {
	return func(t *Tokens) { t.random = r }
}

// Tokens holds no state besides its key material; verification is a pure
// function of the token, the key and the clock.
type Tokens struct {
	signer Signer
	now    func() time.Time
	random io.Reader
}

func NewTokens(signer Signer, opts ...Option) *Tokens {
	t := &Tokens{
		signer: signer,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tokens) CanIssue() bool {
	return t.signer.CanSign()
}

// Issue returns base64url(payload JSON) "." base64url(signature), the
// signature being computed over the encoded payload segment.
func (t *Tokens) Issue(_ context.Context, subject Subject, window time.Duration) (string, error) {
	if !t.signer.CanSign() {
		return "", ErrKeyUnavailable
	}
	if window <= 0 {
		window = DefaultWindow
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(t.random, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	payload := Payload{
		UserID:   subject.UserID,
		UserName: subject.UserName,
		Exp:      t.now().Add(window).UnixMilli(),
		Nonce:    base64.RawURLEncoding.EncodeToString(nonce),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	segment := base64.RawURLEncoding.EncodeToString(raw)
	sig, err := t.signer.Sign([]byte(segment))
	if err != nil {
		return "", err
	}

	return segment + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks the signature before looking at the payload. Anything but
// exactly one separator is ErrTokenInvalid; anything wrong after the
// separator is ErrSignInvalid. Expiry is enforced at or after exp.
func (t *Tokens) Verify(_ context.Context, token string, checkExpiry bool) (*Payload, error) {
	if strings.Count(token, ".") != 1 {
		return nil, ErrTokenInvalid
	}

	segment, sigSegment, _ := strings.Cut(token, ".")
	if segment == "" {
		return nil, ErrTokenInvalid
	}

	sig, err := decodeSegment(sigSegment)
	if err != nil {
		return nil, ErrSignInvalid
	}

	if err := t.signer.Verify([]byte(segment), sig); err != nil {
		return nil, ErrSignInvalid
	}

	raw, err := decodeSegment(segment)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrTokenInvalid
	}

	if payload.UserID == "" || payload.Exp == 0 {
		return nil, ErrTokenInvalid
	}

	if checkExpiry && t.now().UnixMilli() >= payload.Exp {
		return nil, ErrSignExpired
	}

	return &payload, nil
}

func (t *Tokens) IssueURL(ctx context.Context, subject Subject, window time.Duration, baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	token, err := t.Issue(ctx, subject, window)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set(tokenParam, token)
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// VerifyURL does not filter on host or path; the token is what is trusted.
func (t *Tokens) VerifyURL(ctx context.Context, rawURL string, checkExpiry bool) (*Payload, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	token := u.Query().Get(tokenParam)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	return t.Verify(ctx, token, checkExpiry)
}

// decodeSegment accepts padded and unpadded base64url but rejects
// non-canonical trailing bits.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.Strict().DecodeString(strings.TrimRight(s, "="))
}

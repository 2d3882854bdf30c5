package checkin

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/domain/mocks"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/sign"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	clock      *clock
	repository *mocks.MockCheckInRepository
	metrics    *metrics.Metrics
	useCase    CheckInUseCase
}

func newFixture(t *testing.T, signer sign.Signer) *fixture {
	t.Helper()

	c := &clock{now: time.UnixMilli(1_700_000_000_000)}
	repository := mocks.NewMockCheckInRepository(gomock.NewController(t))
	m := metrics.New()
	tokens := sign.NewTokens(signer, sign.WithClock(c.Now))

	uc := NewCheckInUseCase(tokens, repository, m, logging.NewNop(), Options{
		Window:  time.Minute,
		BaseURL: "https://gym.example/qr",
	}).(*checkInUseCase)
	uc.now = c.Now

	return &fixture{clock: c, repository: repository, metrics: m, useCase: uc}
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestIssueAndRecord(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, sign.NewHMACSign([]byte("secret")))

	qr, err := f.useCase.IssueQRCode(ctx, "u1", "Ann")
	req.NoError(err)

	parsed, err := url.Parse(qr)
	req.NoError(err)
	req.Equal("gym.example", parsed.Host)
	req.NotEmpty(parsed.Query().Get("token"))

	f.repository.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *domain.CheckIn) (string, error) {
			req.Equal("u1", c.UserID)
			req.Equal(domain.CheckInModeIn, c.Mode)
			req.Equal(f.clock.now, c.CreatedAt)
			return "doc-1", nil
		})

	id, err := f.useCase.Record(ctx, "check-in", qr)
	req.NoError(err)
	req.Equal("doc-1", id)

	body := scrape(t, f.metrics)
	req.Contains(body, `qr_token_verifications_total{result="ok"} 1`)
	req.Contains(body, `qr_tokens_issued_total 1`)
}

func TestRecordExpiredToken(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, sign.NewHMACSign([]byte("secret")))

	qr, err := f.useCase.IssueQRCode(ctx, "u1", "")
	req.NoError(err)

	f.clock.now = f.clock.now.Add(time.Minute)

	_, err = f.useCase.Record(ctx, "check-out", qr)
	req.ErrorIs(err, sign.ErrSignExpired)
	req.Contains(scrape(t, f.metrics), `qr_token_verifications_total{result="expired"} 1`)
}

func TestRecordForeignSignature(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	issuer := newFixture(t, sign.NewHMACSign([]byte("other")))
	qr, err := issuer.useCase.IssueQRCode(ctx, "u1", "")
	req.NoError(err)

	f := newFixture(t, sign.NewHMACSign([]byte("secret")))
	_, err = f.useCase.Record(ctx, "check-in", qr)
	req.ErrorIs(err, sign.ErrSignInvalid)
	req.Contains(scrape(t, f.metrics), `qr_token_verifications_total{result="signature_invalid"} 1`)
}

func TestRecordRejectsBadInput(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, sign.NewHMACSign([]byte("secret")))

	_, err := f.useCase.Record(ctx, "teleport", "https://gym.example/qr?token=a.b")
	req.ErrorIs(err, domain.ErrInvalidCheckInMode)

	_, err = f.useCase.Record(ctx, "check-in", "https://gym.example/qr")
	req.ErrorIs(err, sign.ErrTokenInvalid)
	req.Contains(scrape(t, f.metrics), `qr_token_verifications_total{result="invalid"} 1`)
}

func TestRecordStoreFailure(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, sign.NewHMACSign([]byte("secret")))

	qr, err := f.useCase.IssueQRCode(ctx, "u1", "")
	req.NoError(err)

	f.repository.EXPECT().Insert(gomock.Any(), gomock.Any()).Return("", domain.ErrStoreUnavailable)

	_, err = f.useCase.Record(ctx, "check-in", qr)
	req.ErrorIs(err, domain.ErrStoreUnavailable)
}

func TestIssueWithVerifyOnlyKey(t *testing.T) {
	f := newFixture(t, verifyOnly{})

	_, err := f.useCase.IssueQRCode(context.Background(), "u1", "")
	require.ErrorIs(t, err, sign.ErrKeyUnavailable)
}

func TestListMineCapsLimit(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, sign.NewHMACSign([]byte("secret")))

	f.repository.EXPECT().ListByUser(gomock.Any(), "u1", defaultHistoryLimit).Return([]domain.CheckIn{{ID: "a"}}, nil)

	got, err := f.useCase.ListMine(context.Background(), "u1", 10_000)
	req.NoError(err)
	req.Len(got, 1)
}

type verifyOnly struct{}

func (verifyOnly) Sign([]byte) ([]byte, error) { return nil, errors.New("unused") }
func (verifyOnly) Verify([]byte, []byte) error { return sign.ErrSignInvalid }
func (verifyOnly) CanSign() bool               { return false }

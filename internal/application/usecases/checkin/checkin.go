package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/sign"
)

const defaultHistoryLimit = 50

type CheckInUseCase interface {
	// IssueQRCode returns a check-in URL carrying a token for userID.
	IssueQRCode(ctx context.Context, userID, userName string) (string, error)
	// Record verifies the scanned URL and stores a check-in for the
	// token's subject. It returns the stored document id.
	Record(ctx context.Context, mode, url string) (string, error)
	ListMine(ctx context.Context, userID string, limit int) ([]domain.CheckIn, error)
}

type Options struct {
	Window  time.Duration
	BaseURL string
}

type checkInUseCase struct {
	tokens     *sign.Tokens
	repository domain.CheckInRepository
	metrics    *metrics.Metrics
	logger     logging.Logger
	options    Options
	now        func() time.Time
}

func NewCheckInUseCase(
	tokens *sign.Tokens,
	repository domain.CheckInRepository,
	metrics *metrics.Metrics,
	logger logging.Logger,
	options Options,
) CheckInUseCase {
	if options.Window <= 0 {
		options.Window = sign.DefaultWindow
	}

	return &checkInUseCase{
		tokens:     tokens,
		repository: repository,
		metrics:    metrics,
		logger:     logger,
		options:    options,
		now:        time.Now,
	}
}

func (uc *checkInUseCase) IssueQRCode(ctx context.Context, userID, userName string) (string, error) {
	url, err := uc.tokens.IssueURL(ctx, sign.Subject{UserID: userID, UserName: userName}, uc.options.Window, uc.options.BaseURL)
	if err != nil {
		uc.logger.Error(logging.Token, logging.Issue, "failed to issue qr token", map[logging.ExtraKey]any{
			logging.UserID:       userID,
			logging.ErrorMessage: err.Error(),
		})
		return "", fmt.Errorf("failed to issue qr code: %w", err)
	}

	uc.metrics.TokenIssued()
	return url, nil
}

func (uc *checkInUseCase) Record(ctx context.Context, mode, url string) (string, error) {
	checkInMode, err := domain.ParseCheckInMode(mode)
	if err != nil {
		return "", err
	}

	payload, err := uc.tokens.VerifyURL(ctx, url, true)
	result := verificationResult(err)
	uc.metrics.TokenVerified(result)
	if err != nil {
		uc.logger.Warn(logging.Token, logging.Verify, "qr token rejected", map[logging.ExtraKey]any{
			logging.Result: result,
		})
		return "", err
	}

	checkIn := &domain.CheckIn{
		UserID:    payload.UserID,
		Mode:      checkInMode,
		CreatedAt: uc.now(),
	}

	id, err := uc.repository.Insert(ctx, checkIn)
	if err != nil {
		uc.logger.Error(logging.MongoDB, logging.Insert, "failed to record check-in", map[logging.ExtraKey]any{
			logging.UserID:       payload.UserID,
			logging.ErrorMessage: err.Error(),
		})
		return "", fmt.Errorf("failed to record check-in: %w", err)
	}

	uc.logger.Info(logging.Token, logging.Verify, "check-in recorded", map[logging.ExtraKey]any{
		logging.UserID: payload.UserID,
		"mode":         string(checkInMode),
	})
	return id, nil
}

func (uc *checkInUseCase) ListMine(ctx context.Context, userID string, limit int) ([]domain.CheckIn, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	return uc.repository.ListByUser(ctx, userID, limit)
}

func verificationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, sign.ErrSignInvalid):
		return metrics.ResultSignatureInvalid
	case errors.Is(err, sign.ErrSignExpired):
		return metrics.ResultExpired
	default:
		return metrics.ResultInvalid
	}
}

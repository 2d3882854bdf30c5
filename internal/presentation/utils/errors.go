package utils

import (
	"errors"
	"net/http"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/sign"
)

// InvalidQRCodeMessage is the single answer for every token failure.
const InvalidQRCodeMessage = "invalid or expired QR code"

// WriteDomainError maps domain failures to responses. Store failures never
// leak their cause to the client.
func WriteDomainError(w http.ResponseWriter, logger logging.Logger, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		json.WriteNotFoundError(w, "Room does not exist")
	case errors.Is(err, domain.ErrRoomFull):
		json.WriteForbiddenError(w, "Room is full")
	case errors.Is(err, domain.ErrInvalidCheckInMode):
		json.WriteBadRequestError(w, "mode must be one of check-in, check-out")
	case errors.Is(err, sign.ErrTokenInvalid),
		errors.Is(err, sign.ErrSignInvalid),
		errors.Is(err, sign.ErrSignExpired):
		json.WriteBadRequestError(w, InvalidQRCodeMessage)
	case errors.Is(err, sign.ErrKeyUnavailable):
		logger.Error(logging.Token, logging.Issue, "signing key unavailable", map[logging.ExtraKey]any{
			logging.Path: r.URL.Path,
		})
		json.WriteServiceUnavailableError(w, err)
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrAdmissionContended):
		logger.Error(logging.IO, logging.ExternalService, "store unavailable", map[logging.ExtraKey]any{
			logging.Path:         r.URL.Path,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteServiceUnavailableError(w, err)
	default:
		logger.Error(logging.Internal, logging.ExternalService, "unexpected error", map[logging.ExtraKey]any{
			logging.Path:         r.URL.Path,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w, err)
	}
}

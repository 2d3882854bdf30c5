package events

import (
	"net/http"
	"strconv"

	"github.com/btmxh/gym-tsfr/internal/application/usecases/checkin"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/auth"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/validate"
	"github.com/btmxh/gym-tsfr/internal/presentation/utils"
	"rsc.io/qr"
)

type Handler struct {
	checkIns checkin.CheckInUseCase
	logger   logging.Logger
}

func NewHandler(checkIns checkin.CheckInUseCase, logger logging.Logger) *Handler {
	return &Handler{
		checkIns: checkIns,
		logger:   logger,
	}
}

func (h *Handler) QRCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	url, ok := h.issue(w, r)
	if !ok {
		return
	}

	json.Write(w, http.StatusOK, qrCodeResponse{URL: url})
}

// QRCodePNGHandler renders the same URL as QRCodeHandler for screens that
// cannot draw one themselves.
func (h *Handler) QRCodePNGHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	url, ok := h.issue(w, r)
	if !ok {
		return
	}

	code, err := qr.Encode(url, qr.M)
	if err != nil {
		h.logger.Error(logging.Token, logging.Issue, "failed to encode qr code", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(code.PNG())
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Unauthorized")
		return "", false
	}

	url, err := h.checkIns.IssueQRCode(r.Context(), principal.ID, principal.Name)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return "", false
	}

	return url, true
}

func (h *Handler) NewEventHandler(w http.ResponseWriter, r *http.Request) {
	var req newEventRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteBadRequestError(w, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	id, err := h.checkIns.Record(r.Context(), req.Mode, req.URL)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusOK, newEventResponse{DocID: id})
}

func (h *Handler) MyEventsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.checkIns.ListMine(r.Context(), principal.ID, limit)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusOK, myEventsResponse{Events: events})
}

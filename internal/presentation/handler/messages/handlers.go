package messages

import (
	"net/http"

	"github.com/btmxh/gym-tsfr/internal/application/usecases/message"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/validate"
	"github.com/btmxh/gym-tsfr/internal/presentation/utils"
)

type Handler struct {
	messages message.MessageUseCase
	logger   logging.Logger
}

func NewHandler(messages message.MessageUseCase, logger logging.Logger) *Handler {
	return &Handler{
		messages: messages,
		logger:   logger,
	}
}

func (h *Handler) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := utils.MemberFromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing roomId or token")
		return
	}

	var req createMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteBadRequestError(w, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	posted, err := h.messages.Post(r.Context(), member.RoomID, req.Sender, req.Text, member.Token)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusCreated, posted)
}

func (h *Handler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := utils.MemberFromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing roomId or token")
		return
	}

	messages, err := h.messages.List(r.Context(), member.RoomID, member.Token)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusOK, listMessagesResponse{Messages: messages})
}

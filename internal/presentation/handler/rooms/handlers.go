package rooms

import (
	"net/http"

	"github.com/btmxh/gym-tsfr/internal/application/usecases/room"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/presentation/utils"
)

type Handler struct {
	rooms  room.RoomUseCase
	logger logging.Logger
}

func NewHandler(rooms room.RoomUseCase, logger logging.Logger) *Handler {
	return &Handler{
		rooms:  rooms,
		logger: logger,
	}
}

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	newRoom, err := h.rooms.Create(r.Context())
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusOK, createRoomResponse{RoomID: newRoom.ID})
}

func (h *Handler) GetTTLHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := utils.MemberFromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing roomId or token")
		return
	}

	ttl, err := h.rooms.RemainingTTL(r.Context(), member.RoomID)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusOK, ttlResponse{TTL: int64(ttl.Seconds())})
}

func (h *Handler) DestroyRoomHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := utils.MemberFromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing roomId or token")
		return
	}

	if err := h.rooms.Destroy(r.Context(), member.RoomID); err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RoomPageHandler serves the room page once the admission proxy let the
// request through.
func (h *Handler) RoomPageHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := utils.MemberFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	room, err := h.rooms.Get(r.Context(), member.RoomID)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	ttl, err := h.rooms.RemainingTTL(r.Context(), member.RoomID)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	json.Write(w, http.StatusOK, roomPageResponse{
		RoomID:       room.ID,
		TTL:          int64(ttl.Seconds()),
		Participants: len(room.Connected),
	})
}

package realtime

import (
	"context"
	"errors"
	"net/http"

	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/realtime"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/ws"
	"github.com/btmxh/gym-tsfr/internal/presentation/utils"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Bus interface {
	History(ctx context.Context, roomID string) ([]realtime.Event, error)
	Subscribe(ctx context.Context, roomID string) (*realtime.Subscription, error)
}

type Handler struct {
	bus      Bus
	upgrader *websocket.Upgrader
	logger   logging.Logger
}

func NewHandler(bus Bus, upgrader *websocket.Upgrader, logger logging.Logger) *Handler {
	return &Handler{
		bus:      bus,
		upgrader: upgrader,
		logger:   logger,
	}
}

// SubscribeHandler subscribes before reading the replay stream so nothing
// published in between is lost; the client drops the overlap by event id.
func (h *Handler) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := utils.MemberFromContext(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing roomId or token")
		return
	}

	ctx := r.Context()

	sub, err := h.bus.Subscribe(ctx, member.RoomID)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}
	defer sub.Close()

	history, err := h.bus.History(ctx, member.RoomID)
	if err != nil {
		utils.WriteDomainError(w, h.logger, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered the client
		h.logger.Warn(logging.Realtime, logging.Subscribe, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.RoomID:       member.RoomID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), member.RoomID, h.logger)

	h.logger.Debug(logging.Realtime, logging.Subscribe, "client subscribed", map[logging.ExtraKey]any{
		logging.RoomID: member.RoomID,
		"client":       client.ID,
	})

	err = client.Serve(ctx, history, sub)
	if err != nil && !errors.Is(err, ws.ErrRoomDestroyed) && !errors.Is(err, context.Canceled) {
		h.logger.Debug(logging.Realtime, logging.Subscribe, "client disconnected", map[logging.ExtraKey]any{
			logging.RoomID:       member.RoomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

package ws

import (
	"context"
	"errors"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/realtime"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var ErrRoomDestroyed = errors.New("room destroyed")

// Client is one browser subscribed to one room channel. Inbound frames are
// ignored; messages are posted over HTTP.
type Client struct {
	conn   *connWrapper
	ID     string
	RoomID string
	logger logging.Logger
}

func NewClient(conn *websocket.Conn, id, roomID string, logger logging.Logger) *Client {
	return &Client{
		conn:   newConnWrapper(conn),
		ID:     id,
		RoomID: roomID,
		logger: logger,
	}
}

// Serve writes history, then live events, until the peer goes away, ctx
// ends, the subscription closes or the room is destroyed.
func (c *Client) Serve(ctx context.Context, history []realtime.Event, sub *realtime.Subscription) error {
	defer func() {
		_ = c.conn.Close()
	}()

	closed := make(chan struct{})
	go c.readPump(closed)

	seen := make(map[string]struct{}, len(history))
	for _, event := range history {
		seen[event.ID] = struct{}{}
		if err := c.conn.WriteJSON(event); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteClose(websocket.CloseGoingAway, "server shutting down")
			return ctx.Err()

		case <-closed:
			return nil

		case <-ticker.C:
			if err := c.conn.WritePing(); err != nil {
				return err
			}

		case event, ok := <-sub.Events():
			if !ok {
				_ = c.conn.WriteClose(websocket.CloseGoingAway, "subscription ended")
				return nil
			}

			if event.ID != "" {
				if _, dup := seen[event.ID]; dup {
					continue
				}
			}

			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Warn(logging.Realtime, logging.Publish, "ws write failed", map[logging.ExtraKey]any{
					logging.RoomID:       c.RoomID,
					logging.ErrorMessage: err.Error(),
				})
				return err
			}

			if event.Event == domain.EventChatDestroy {
				_ = c.conn.WriteClose(websocket.CloseNormalClosure, "room destroyed")
				return ErrRoomDestroyed
			}
		}
	}
}

func (c *Client) readPump(closed chan<- struct{}) {
	defer close(closed)

	conn := c.conn.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Debug(logging.Realtime, logging.Subscribe, "ws read error", map[logging.ExtraKey]any{
					logging.RoomID:       c.RoomID,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}
	}
}

//go:generate go run go.uber.org/mock/mockgen -source=realtime.go -destination=mocks/mock_realtime.go -package=mocks
package domain

import "context"

const (
	EventChatMessage = "chat.message"
	EventChatDestroy = "chat.destroy"
)

type DestroyPayload struct {
	IsDestroyed bool `json:"isDestroyed"`
}

// Broadcaster fans an event out to every subscriber of a room channel.
type Broadcaster interface {
	Emit(ctx context.Context, roomID string, event string, payload any) error
}

//go:generate go run go.uber.org/mock/mockgen -source=room_auditlog.go -destination=mocks/mock_room_auditlog.go -package=mocks
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RoomEventType string

const (
	EventRoomCreated  RoomEventType = "room_created"
	EventRoomDeleted  RoomEventType = "room_deleted"
	EventMemberJoined RoomEventType = "member_joined"
	EventRoomFull     RoomEventType = "room_full_rejected"
	EventMessageSent  RoomEventType = "message_sent"
)

type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"roomId"`
	EventType RoomEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]RoomAuditLog, error)
	EnsureIndexes(ctx context.Context) error
}

// RoomEventPublisher announces room lifecycle changes to other services.
// Publishing is best effort and never fails the originating request.
type RoomEventPublisher interface {
	PublishRoomCreated(ctx context.Context, roomID string, ttl time.Duration) error
	PublishRoomDeleted(ctx context.Context, roomID string) error
	PublishMemberJoined(ctx context.Context, roomID string, members int) error
	PublishRoomFullRejected(ctx context.Context, roomID string) error
	PublishMessageSent(ctx context.Context, roomID string, messageID string) error
}

func NewRoomAuditLog(roomID string, eventType RoomEventType, at time.Time, metadata map[string]any) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: eventType,
		Timestamp: at,
		Metadata:  metadata,
	}
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/contracts"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/messaging"
)

type messagePublisher interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

type RoomPublisher struct {
	rabbitmq messagePublisher
}

var _ domain.RoomEventPublisher = (*RoomPublisher)(nil)

func NewRoomPublisher(rabbitmq messagePublisher) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey, roomID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		RoomID: roomID,
		Data:   payload,
	})
}

func (p *RoomPublisher) PublishRoomCreated(ctx context.Context, roomID string, ttl time.Duration) error {
	return p.publish(ctx, contracts.EventRoomCreated, roomID, messaging.RoomCreatedData{
		TTLSeconds: ttl.Seconds(),
	})
}

func (p *RoomPublisher) PublishRoomDeleted(ctx context.Context, roomID string) error {
	return p.publish(ctx, contracts.EventRoomDeleted, roomID, struct{}{})
}

func (p *RoomPublisher) PublishMemberJoined(ctx context.Context, roomID string, members int) error {
	return p.publish(ctx, contracts.EventMemberJoined, roomID, messaging.MemberJoinedData{
		Members: members,
	})
}

func (p *RoomPublisher) PublishRoomFullRejected(ctx context.Context, roomID string) error {
	return p.publish(ctx, contracts.EventRoomFullRejected, roomID, struct{}{})
}

func (p *RoomPublisher) PublishMessageSent(ctx context.Context, roomID string, messageID string) error {
	return p.publish(ctx, contracts.EventMessageSent, roomID, messaging.MessageSentData{
		MessageID: messageID,
	})
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

var _ domain.RoomEventPublisher = NoopPublisher{}

func (NoopPublisher) PublishRoomCreated(context.Context, string, time.Duration) error { return nil }
func (NoopPublisher) PublishRoomDeleted(context.Context, string) error                { return nil }
func (NoopPublisher) PublishMemberJoined(context.Context, string, int) error          { return nil }
func (NoopPublisher) PublishRoomFullRejected(context.Context, string) error           { return nil }
func (NoopPublisher) PublishMessageSent(context.Context, string, string) error        { return nil }

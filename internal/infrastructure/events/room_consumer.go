package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/contracts"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
)

var routingKeyToAuditEvent = map[string]domain.RoomEventType{
	contracts.EventRoomCreated:      domain.EventRoomCreated,
	contracts.EventRoomDeleted:      domain.EventRoomDeleted,
	contracts.EventMemberJoined:     domain.EventMemberJoined,
	contracts.EventRoomFullRejected: domain.EventRoomFull,
	contracts.EventMessageSent:      domain.EventMessageSent,
}

// RoomConsumer turns room events from the broker into audit log entries.
type RoomConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.RoomAuditRepository
	logger   logging.Logger
	now      func() time.Time
}

func NewRoomConsumer(rabbitmq *messaging.RabbitMQ, audit domain.RoomAuditRepository, logger logging.Logger) *RoomConsumer {
	return &RoomConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *RoomConsumer) Listen(ctx context.Context) error {
	return c.rabbitmq.ConsumeMessages(ctx, messaging.RoomsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		return c.Handle(ctx, msg.RoutingKey, msg.Body, msg.Timestamp)
	})
}

func (c *RoomConsumer) Handle(ctx context.Context, routingKey string, body []byte, at time.Time) error {
	eventType, ok := routingKeyToAuditEvent[routingKey]
	if !ok {
		c.logger.Warn(logging.RabbitMQ, logging.ExternalService, "unknown routing key", map[logging.ExtraKey]any{
			logging.EventName: routingKey,
		})
		return fmt.Errorf("unknown routing key %q", routingKey)
	}

	var message contracts.AmqpMessage
	if err := json.Unmarshal(body, &message); err != nil {
		c.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal message", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return err
	}

	var metadata map[string]any
	if len(message.Data) > 0 {
		if err := json.Unmarshal(message.Data, &metadata); err != nil {
			return fmt.Errorf("decode %s data: %w", routingKey, err)
		}
	}

	if at.IsZero() {
		at = c.now()
	}

	return c.audit.Log(ctx, domain.NewRoomAuditLog(message.RoomID, eventType, at, metadata))
}

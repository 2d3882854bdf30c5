package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/cache"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type messageRepository struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewMessageRepository(client *redis.Client, tracer trace.Tracer) domain.MessageRepository {
	return &messageRepository{
		client: client,
		tracer: tracer,
	}
}

func (r *messageRepository) Append(ctx context.Context, message *domain.Message) error {
	ctx, span := r.tracer.Start(ctx, "messageRepository.Append")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", message.RoomID),
		attribute.String("message.id", message.ID),
	)

	data, err := json.Marshal(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode message")
		return err
	}

	if err := r.client.RPush(ctx, cache.RoomMessagesKey(message.RoomID), data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append message")
		return storeError("append message", err)
	}

	span.SetStatus(codes.Ok, "message appended successfully")
	return nil
}

func (r *messageRepository) GetByRoomID(ctx context.Context, roomID string) ([]domain.Message, error) {
	ctx, span := r.tracer.Start(ctx, "messageRepository.GetByRoomID")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	raw, err := r.client.LRange(ctx, cache.RoomMessagesKey(roomID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list messages")
		return nil, storeError("list messages", err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var message domain.Message
		if err := json.Unmarshal([]byte(item), &message); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode message")
			return nil, fmt.Errorf("decode message in room %s: %w", roomID, err)
		}
		messages = append(messages, message)
	}

	span.SetAttributes(attribute.Int("messages.count", len(messages)))
	span.SetStatus(codes.Ok, "messages retrieved successfully")
	return messages, nil
}

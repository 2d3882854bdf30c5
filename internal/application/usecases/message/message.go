package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
)

type MessageUseCase interface {
	Post(ctx context.Context, roomID, sender, text, token string) (*domain.Message, error)
	List(ctx context.Context, roomID, token string) ([]domain.Message, error)
}

type messageUseCase struct {
	rooms       domain.RoomRepository
	messages    domain.MessageRepository
	broadcaster domain.Broadcaster
	publisher   domain.RoomEventPublisher
	metrics     *metrics.Metrics
	logger      logging.Logger
	now         func() time.Time
}

func NewMessageUseCase(
	rooms domain.RoomRepository,
	messages domain.MessageRepository,
	broadcaster domain.Broadcaster,
	publisher domain.RoomEventPublisher,
	metrics *metrics.Metrics,
	logger logging.Logger,
) MessageUseCase {
	return &messageUseCase{
		rooms:       rooms,
		messages:    messages,
		broadcaster: broadcaster,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Post appends, broadcasts and then realigns the dependent keys with the
// room's deadline. The broadcast copy never carries the poster's token.
// A room that expires between the existence check and the renewal fails
// the post with ErrRoomNotFound.
func (uc *messageUseCase) Post(ctx context.Context, roomID, sender, text, token string) (*domain.Message, error) {
	if err := uc.ensureRoom(ctx, roomID); err != nil {
		return nil, err
	}

	message := domain.NewMessage(roomID, sender, text, token, uc.now())

	if err := uc.messages.Append(ctx, message); err != nil {
		uc.logger.Error(logging.Room, logging.Relay, "failed to append message", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	if err := uc.broadcaster.Emit(ctx, roomID, domain.EventChatMessage, message.ForReader("")); err != nil {
		uc.logger.Warn(logging.Realtime, logging.Publish, "failed to broadcast message", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	// The message is already appended, so only a vanished room fails the post.
	if err := uc.rooms.RenewTTL(ctx, roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, err
		}
		uc.logger.Warn(logging.Room, logging.Relay, "failed to renew room ttl", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	uc.metrics.MessagePosted()

	if err := uc.publisher.PublishMessageSent(ctx, roomID, message.ID); err != nil {
		uc.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish message sent event", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	posted := message.ForReader(token)
	return &posted, nil
}

func (uc *messageUseCase) List(ctx context.Context, roomID, token string) ([]domain.Message, error) {
	if err := uc.ensureRoom(ctx, roomID); err != nil {
		return nil, err
	}

	stored, err := uc.messages.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, m.ForReader(token))
	}

	return messages, nil
}

func (uc *messageUseCase) ensureRoom(ctx context.Context, roomID string) error {
	exists, err := uc.rooms.Exists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrRoomNotFound
	}
	return nil
}

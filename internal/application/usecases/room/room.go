package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
)

type RoomUseCase interface {
	Create(ctx context.Context) (*domain.Room, error)
	Get(ctx context.Context, roomID string) (*domain.Room, error)
	RemainingTTL(ctx context.Context, roomID string) (time.Duration, error)
	Destroy(ctx context.Context, roomID string) error
	RenewTTL(ctx context.Context, roomID string) error
	Admit(ctx context.Context, roomID, token string) (*domain.Admission, error)
	IsMember(ctx context.Context, roomID, token string) (bool, error)
}

type roomUseCase struct {
	repository  domain.RoomRepository
	broadcaster domain.Broadcaster
	publisher   domain.RoomEventPublisher
	metrics     *metrics.Metrics
	logger      logging.Logger
	ttl         time.Duration
	now         func() time.Time
}

func NewRoomUseCase(
	repository domain.RoomRepository,
	broadcaster domain.Broadcaster,
	publisher domain.RoomEventPublisher,
	metrics *metrics.Metrics,
	logger logging.Logger,
	ttl time.Duration,
) RoomUseCase {
	if ttl <= 0 {
		ttl = domain.DefaultRoomTTL
	}

	return &roomUseCase{
		repository:  repository,
		broadcaster: broadcaster,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (uc *roomUseCase) Create(ctx context.Context) (*domain.Room, error) {
	room := domain.NewRoom(uc.now())

	if err := uc.repository.Create(ctx, room, uc.ttl); err != nil {
		uc.logger.Error(logging.Room, logging.Lifecycle, "failed to create room", map[logging.ExtraKey]any{
			logging.RoomID:       room.ID,
			logging.ErrorMessage: err.Error(),
		})
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	uc.metrics.RoomCreated()

	if err := uc.publisher.PublishRoomCreated(ctx, room.ID, uc.ttl); err != nil {
		uc.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish room created event", map[logging.ExtraKey]any{
			logging.RoomID:       room.ID,
			logging.ErrorMessage: err.Error(),
		})
	}

	uc.logger.Info(logging.Room, logging.Lifecycle, "room created", map[logging.ExtraKey]any{
		logging.RoomID: room.ID,
	})
	return room, nil
}

func (uc *roomUseCase) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	return uc.repository.GetByID(ctx, roomID)
}

func (uc *roomUseCase) RemainingTTL(ctx context.Context, roomID string) (time.Duration, error) {
	return uc.repository.TTL(ctx, roomID)
}

// Destroy is a no-op for a room that is already gone. Subscribers are only
// told when this call removed something.
func (uc *roomUseCase) Destroy(ctx context.Context, roomID string) error {
	deleted, err := uc.repository.Delete(ctx, roomID)
	if err != nil {
		uc.logger.Error(logging.Room, logging.Lifecycle, "failed to destroy room", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		return fmt.Errorf("failed to destroy room: %w", err)
	}

	if !deleted {
		return nil
	}

	uc.metrics.RoomDestroyed()

	if err := uc.broadcaster.Emit(ctx, roomID, domain.EventChatDestroy, domain.DestroyPayload{IsDestroyed: true}); err != nil {
		uc.logger.Warn(logging.Realtime, logging.Publish, "failed to announce room destruction", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	if err := uc.publisher.PublishRoomDeleted(ctx, roomID); err != nil {
		uc.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish room deleted event", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	uc.logger.Info(logging.Room, logging.Lifecycle, "room destroyed", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
	})
	return nil
}

func (uc *roomUseCase) RenewTTL(ctx context.Context, roomID string) error {
	return uc.repository.RenewTTL(ctx, roomID)
}

func (uc *roomUseCase) Admit(ctx context.Context, roomID, token string) (*domain.Admission, error) {
	admission, err := uc.repository.Admit(ctx, roomID, token)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		uc.metrics.Admission(metrics.AdmissionNotFound)
		return nil, err
	case errors.Is(err, domain.ErrRoomFull):
		uc.metrics.Admission(metrics.AdmissionFull)
		if pubErr := uc.publisher.PublishRoomFullRejected(ctx, roomID); pubErr != nil {
			uc.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish room full event", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.ErrorMessage: pubErr.Error(),
			})
		}
		return nil, err
	case err != nil:
		uc.metrics.Admission(metrics.AdmissionError)
		uc.logger.Error(logging.Room, logging.Admission, "admission failed", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		return nil, err
	}

	if !admission.Joined {
		uc.metrics.Admission(metrics.AdmissionReturning)
		return admission, nil
	}

	uc.metrics.Admission(metrics.AdmissionJoined)

	if err := uc.publisher.PublishMemberJoined(ctx, roomID, admission.Members); err != nil {
		uc.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish member joined event", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	uc.logger.Info(logging.Room, logging.Admission, "member admitted", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
		"members":      admission.Members,
	})
	return admission, nil
}

func (uc *roomUseCase) IsMember(ctx context.Context, roomID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	room, err := uc.Get(ctx, roomID)
	if err != nil {
		return false, err
	}

	return room.HasMember(token), nil
}

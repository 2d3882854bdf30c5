package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/cache"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldConnected = "connected"
	fieldCreatedAt = "createdAt"

	defaultAdmissionRetries = 5
)

type roomRepository struct {
	client           *redis.Client
	tracer           trace.Tracer
	admissionRetries int
}

func NewRoomRepository(client *redis.Client, tracer trace.Tracer, admissionRetries int) domain.RoomRepository {
	if admissionRetries <= 0 {
		admissionRetries = defaultAdmissionRetries
	}

	return &roomRepository{
		client:           client,
		tracer:           tracer,
		admissionRetries: admissionRetries,
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", room.ID),
		attribute.Int64("room.ttl_ms", ttl.Milliseconds()),
	)

	connected, err := json.Marshal(room.Connected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode connected members")
		return err
	}

	key := cache.RoomMetaKey(room.ID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldConnected, string(connected),
			fieldCreatedAt, strconv.FormatInt(room.CreatedAt.UnixMilli(), 10),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create room")
		return storeError("create room", err)
	}

	span.SetStatus(codes.Ok, "room created successfully")
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	fields, err := r.client.HGetAll(ctx, cache.RoomMetaKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get room")
		return nil, storeError("get room", err)
	}

	room, err := decodeRoom(id, fields)
	if err != nil {
		span.SetAttributes(attribute.Bool("room.found", false))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("room.found", true),
		attribute.Int("room.members_count", len(room.Connected)),
	)
	span.SetStatus(codes.Ok, "room retrieved successfully")
	return room, nil
}

func (r *roomRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Exists")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	n, err := r.client.Exists(ctx, cache.RoomMetaKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check room existence")
		return false, storeError("room exists", err)
	}

	span.SetAttributes(attribute.Bool("room.found", n > 0))
	span.SetStatus(codes.Ok, "room existence checked")
	return n > 0, nil
}

func (r *roomRepository) TTL(ctx context.Context, id string) (time.Duration, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.TTL")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	ttl, err := r.client.PTTL(ctx, cache.RoomMetaKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room ttl")
		return 0, storeError("room ttl", err)
	}

	// -2 missing key, -1 no expiry
	switch {
	case ttl == -2:
		span.SetStatus(codes.Error, "room not found")
		return 0, domain.ErrRoomNotFound
	case ttl < 0:
		ttl = 0
	}

	span.SetAttributes(attribute.Int64("room.ttl_ms", ttl.Milliseconds()))
	span.SetStatus(codes.Ok, "room ttl retrieved successfully")
	return ttl, nil
}

// Admit runs the admission check inside WATCH/MULTI on the meta key so two
// concurrent joiners cannot both take the last seat.
func (r *roomRepository) Admit(ctx context.Context, id string, token string) (*domain.Admission, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Admit")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	key := cache.RoomMetaKey(id)

	for attempt := 1; attempt <= r.admissionRetries; attempt++ {
		var admission *domain.Admission

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}

			room, err := decodeRoom(id, fields)
			if err != nil {
				return err
			}

			ttl, err := tx.PTTL(ctx, key).Result()
			if err != nil {
				return err
			}
			if ttl == -2 {
				return domain.ErrRoomNotFound
			}

			admission, err = room.Admit(token)
			if err != nil || !admission.Joined {
				return err
			}

			connected, err := json.Marshal(room.Connected)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fieldConnected, string(connected))
				// keeps the deadline if the key vanished and HSET recreated it
				if ttl > 0 {
					pipe.PExpire(ctx, key, ttl)
				}
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			span.SetAttributes(
				attribute.Int("admission.attempts", attempt),
				attribute.Bool("admission.joined", admission.Joined),
				attribute.Int("room.members_count", admission.Members),
			)
			span.SetStatus(codes.Ok, "member admitted")
			return admission, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomFull):
			span.SetAttributes(attribute.Int("admission.attempts", attempt))
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to admit member")
			return nil, storeError("admit member", err)
		}
	}

	span.SetAttributes(attribute.Int("admission.attempts", r.admissionRetries))
	span.SetStatus(codes.Error, "admission contended")
	return nil, domain.ErrAdmissionContended
}

func (r *roomRepository) RenewTTL(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.RenewTTL")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	ttl, err := r.client.PTTL(ctx, cache.RoomMetaKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room ttl")
		return storeError("renew ttl", err)
	}

	dependents := []string{cache.RoomMessagesKey(id), cache.RoomChannelKey(id)}

	if ttl == -2 {
		// room expired underneath us; drop what was written after it
		if err := r.client.Del(ctx, dependents...).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete orphaned keys")
			return storeError("renew ttl", err)
		}
		span.SetAttributes(attribute.Bool("room.found", false))
		span.SetStatus(codes.Error, "room not found")
		return domain.ErrRoomNotFound
	}

	if ttl < 0 {
		span.SetStatus(codes.Ok, "room has no expiry")
		return nil
	}

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range dependents {
			pipe.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to renew ttl")
		return storeError("renew ttl", err)
	}

	span.SetAttributes(attribute.Int64("room.ttl_ms", ttl.Milliseconds()))
	span.SetStatus(codes.Ok, "ttl renewed successfully")
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	n, err := r.client.Del(ctx, cache.RoomKeys(id)...).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete room")
		return false, storeError("delete room", err)
	}

	span.SetAttributes(attribute.Int64("room.deleted_keys", n))
	span.SetStatus(codes.Ok, "room deleted successfully")
	return n > 0, nil
}

func decodeRoom(id string, fields map[string]string) (*domain.Room, error) {
	if len(fields) == 0 {
		return nil, domain.ErrRoomNotFound
	}

	room := &domain.Room{ID: id, Connected: []string{}}

	if raw, ok := fields[fieldConnected]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &room.Connected); err != nil {
			return nil, fmt.Errorf("decode connected members of room %s: %w", id, err)
		}
	}

	if raw, ok := fields[fieldCreatedAt]; ok {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode createdAt of room %s: %w", id, err)
		}
		room.CreatedAt = time.UnixMilli(millis)
	}

	return room, nil
}

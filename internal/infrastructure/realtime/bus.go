// Package realtime fans room events out through Redis pub/sub and keeps a
// short replay stream per room for subscribers that connect late.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/cache"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultReplayLength = 256
	frameField          = "frame"
	subscriptionBuffer  = 64
)

type Event struct {
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type RedisBus struct {
	client       *redis.Client
	replayLength int64
	logger       logging.Logger
}

var _ domain.Broadcaster = (*RedisBus)(nil)

func NewRedisBus(client *redis.Client, replayLength int64, logger logging.Logger) *RedisBus {
	if replayLength <= 0 {
		replayLength = DefaultReplayLength
	}

	return &RedisBus{
		client:       client,
		replayLength: replayLength,
		logger:       logger,
	}
}

// Emit appends the event to the room's replay stream, then publishes it.
// chat.destroy is only published: the room keys are already gone and
// writing the stream again would leave a key without expiry.
func (b *RedisBus) Emit(ctx context.Context, roomID string, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}

	frame := Event{Event: event, Data: data}
	key := cache.RoomChannelKey(roomID)

	if event != domain.EventChatDestroy {
		raw, err := json.Marshal(frame)
		if err != nil {
			return err
		}

		id, err := b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: key,
			MaxLen: b.replayLength,
			Values: map[string]any{frameField: string(raw)},
		}).Result()
		if err != nil {
			return fmt.Errorf("%w: append %s to room %s: %v", domain.ErrStoreUnavailable, event, roomID, err)
		}
		frame.ID = id
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("%w: publish %s to room %s: %v", domain.ErrStoreUnavailable, event, roomID, err)
	}

	b.logger.Debug(logging.Realtime, logging.Publish, "event published", map[logging.ExtraKey]any{
		logging.RoomID:    roomID,
		logging.EventName: event,
	})

	return nil
}

// History returns the replay stream, oldest first.
func (b *RedisBus) History(ctx context.Context, roomID string) ([]Event, error) {
	entries, err := b.client.XRange(ctx, cache.RoomChannelKey(roomID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read history of room %s: %v", domain.ErrStoreUnavailable, roomID, err)
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		raw, ok := entry.Values[frameField].(string)
		if !ok {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			b.logger.Warn(logging.Realtime, logging.Subscribe, "skipping malformed history entry", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.ErrorMessage: err.Error(),
			})
			continue
		}
		event.ID = entry.ID
		events = append(events, event)
	}

	return events, nil
}

type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Subscribe returns once Redis has confirmed the subscription, so events
// emitted afterwards are never missed.
func (b *RedisBus) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, cache.RoomChannelKey(roomID))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe to room %s: %v", domain.ErrStoreUnavailable, roomID, err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}

	go sub.pump(roomID, b.logger)

	return sub, nil
}

func (s *Subscription) pump(roomID string, logger logging.Logger) {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn(logging.Realtime, logging.Subscribe, "dropping malformed event", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.ErrorMessage: err.Error(),
			})
			continue
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

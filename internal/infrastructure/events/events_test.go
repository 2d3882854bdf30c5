package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/domain/mocks"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/contracts"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type published struct {
	routingKey string
	message    contracts.AmqpMessage
}

type fakeBroker struct {
	published []published
}

func (f *fakeBroker) PublishMessage(_ context.Context, routingKey string, message contracts.AmqpMessage) error {
	f.published = append(f.published, published{routingKey: routingKey, message: message})
	return nil
}

func TestRoomPublisher(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	broker := &fakeBroker{}
	publisher := NewRoomPublisher(broker)

	req.NoError(publisher.PublishRoomCreated(ctx, "room-1", 10*time.Minute))
	req.NoError(publisher.PublishMemberJoined(ctx, "room-1", 2))
	req.NoError(publisher.PublishRoomFullRejected(ctx, "room-1"))
	req.NoError(publisher.PublishMessageSent(ctx, "room-1", "msg-1"))
	req.NoError(publisher.PublishRoomDeleted(ctx, "room-1"))

	req.Len(broker.published, 5)

	keys := make([]string, 0, len(broker.published))
	for _, p := range broker.published {
		keys = append(keys, p.routingKey)
		req.Equal("room-1", p.message.RoomID)
	}
	req.Equal([]string{
		contracts.EventRoomCreated,
		contracts.EventMemberJoined,
		contracts.EventRoomFullRejected,
		contracts.EventMessageSent,
		contracts.EventRoomDeleted,
	}, keys)

	req.JSONEq(`{"ttlSeconds":600}`, string(broker.published[0].message.Data))
	req.JSONEq(`{"members":2}`, string(broker.published[1].message.Data))
	req.JSONEq(`{"messageId":"msg-1"}`, string(broker.published[3].message.Data))
}

func TestRoomConsumerHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	audit := mocks.NewMockRoomAuditRepository(ctrl)
	consumer := NewRoomConsumer(nil, audit, logging.NewNop())
	at := time.UnixMilli(1_700_000_000_000)

	t.Run("writes an audit log entry", func(t *testing.T) {
		req := require.New(t)

		body, err := json.Marshal(contracts.AmqpMessage{RoomID: "room-1", Data: json.RawMessage(`{"members":2}`)})
		req.NoError(err)

		audit.EXPECT().
			Log(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, log *domain.RoomAuditLog) error {
				req.Equal("room-1", log.RoomID)
				req.Equal(domain.EventMemberJoined, log.EventType)
				req.True(at.Equal(log.Timestamp))
				req.EqualValues(2, log.Metadata["members"])
				req.NotEmpty(log.ID)
				return nil
			}).
			Times(1)

		req.NoError(consumer.Handle(context.Background(), contracts.EventMemberJoined, body, at))
	})

	t.Run("rejects unknown routing keys", func(t *testing.T) {
		audit.EXPECT().Log(gomock.Any(), gomock.Any()).Times(0)

		err := consumer.Handle(context.Background(), "room.exploded", []byte(`{}`), at)
		require.Error(t, err)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		audit.EXPECT().Log(gomock.Any(), gomock.Any()).Times(0)

		err := consumer.Handle(context.Background(), contracts.EventRoomCreated, []byte(`not json`), at)
		require.Error(t, err)
	})
}

func TestNoopPublisher(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	var publisher domain.RoomEventPublisher = NoopPublisher{}

	req.NoError(publisher.PublishRoomCreated(ctx, "r", time.Minute))
	req.NoError(publisher.PublishRoomDeleted(ctx, "r"))
	req.NoError(publisher.PublishMemberJoined(ctx, "r", 1))
	req.NoError(publisher.PublishRoomFullRejected(ctx, "r"))
	req.NoError(publisher.PublishMessageSent(ctx, "r", "m"))
}

package contracts

import "encoding/json"

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

// Routing keys
const (
	EventMessageSent      = "message.sent"
	EventMemberJoined     = "member.joined"
	EventRoomCreated      = "room.created"
	EventRoomDeleted      = "room.deleted"
	EventRoomFullRejected = "room.full_rejected"
)

var RoomEvents = []string{
	EventMessageSent,
	EventMemberJoined,
	EventRoomCreated,
	EventRoomDeleted,
	EventRoomFullRejected,
}

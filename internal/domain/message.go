//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=mocks/mock_message.go -package=mocks
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	MaxSenderLength = 100
	MaxTextLength   = 1000
)

// Message is stored with the poster's Token; it must be stripped with
// ForReader before leaving the server.
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	RoomID    string `json:"roomId"`
	Token     string `json:"token,omitempty"`
	Own       bool   `json:"own,omitempty"`
}

type MessageRepository interface {
	Append(ctx context.Context, message *Message) error
	GetByRoomID(ctx context.Context, roomID string) ([]Message, error)
}

func NewMessage(roomID, sender, text, token string, now time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: now.UnixMilli(),
		RoomID:    roomID,
		Token:     token,
	}
}

// ForReader returns a copy without the token, flagged own when reader
// posted it.
func (m Message) ForReader(reader string) Message {
	own := reader != "" && m.Token == reader
	m.Token = ""
	m.Own = own
	return m
}

package messages

import "github.com/btmxh/gym-tsfr/internal/domain"

type createMessageRequest struct {
	Sender string `json:"sender" validate:"max=100"`
	Text   string `json:"text" validate:"max=1000"`
}

type listMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

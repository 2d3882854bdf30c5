package events

import "github.com/btmxh/gym-tsfr/internal/domain"

type qrCodeResponse struct {
	URL string `json:"url"`
}

type newEventRequest struct {
	Mode string `json:"mode" validate:"required,oneof=check-in check-out"`
	URL  string `json:"url" validate:"required"`
}

type newEventResponse struct {
	DocID string `json:"docId"`
}

type myEventsResponse struct {
	Events []domain.CheckIn `json:"events"`
}

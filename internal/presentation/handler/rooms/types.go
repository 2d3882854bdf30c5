package rooms

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

type ttlResponse struct {
	// TTL is whole seconds, floored at zero.
	TTL int64 `json:"ttl"`
}

type roomPageResponse struct {
	RoomID       string `json:"roomId"`
	TTL          int64  `json:"ttl"`
	Participants int    `json:"participants"`
}

package messaging

const (
	RoomsQueue      = "rooms"
	DeadLetterQueue = "dead_letter_queue"
)

type RoomCreatedData struct {
	TTLSeconds float64 `json:"ttlSeconds"`
}

type MemberJoinedData struct {
	Members int `json:"members"`
}

type MessageSentData struct {
	MessageID string `json:"messageId"`
}

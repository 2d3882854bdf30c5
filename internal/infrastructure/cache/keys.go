package cache

// Every room owns three keys sharing one deadline.

func RoomMetaKey(roomID string) string {
	return "meta:" + roomID
}

func RoomMessagesKey(roomID string) string {
	return "messages:" + roomID
}

// RoomChannelKey names both the realtime replay stream and the pub/sub channel.
func RoomChannelKey(roomID string) string {
	return roomID
}

func RoomKeys(roomID string) []string {
	return []string{RoomMetaKey(roomID), RoomMessagesKey(roomID), RoomChannelKey(roomID)}
}

func RateLimitKey(sourceKey string) string {
	return "ratelimit:" + sourceKey
}

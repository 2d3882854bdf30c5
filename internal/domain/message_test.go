package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageForReader(t *testing.T) {
	req := require.New(t)

	msg := NewMessage("room-1", "alice", "hi", "ta", time.UnixMilli(42))

	own := msg.ForReader("ta")
	req.True(own.Own)
	req.Empty(own.Token)
	req.Equal(int64(42), own.Timestamp)

	other := msg.ForReader("tb")
	req.False(other.Own)
	req.Empty(other.Token)

	anonymous := msg.ForReader("")
	req.False(anonymous.Own)

	req.Equal("ta", msg.Token, "stored message keeps its token")
}

func TestRoomAdmit(t *testing.T) {
	req := require.New(t)

	room := NewRoom(time.Now())
	req.Empty(room.Connected)

	a, err := room.Admit("ta")
	req.NoError(err)
	req.True(a.Joined)
	req.Equal(1, a.Members)

	again, err := room.Admit("ta")
	req.NoError(err)
	req.False(again.Joined)
	req.Equal(1, again.Members)

	_, err = room.Admit("tb")
	req.NoError(err)

	_, err = room.Admit("tc")
	req.ErrorIs(err, ErrRoomFull)
	req.Equal([]string{"ta", "tb"}, room.Connected)

	existing, err := room.Admit("tb")
	req.NoError(err)
	req.False(existing.Joined)
}

func TestParseCheckInMode(t *testing.T) {
	req := require.New(t)

	mode, err := ParseCheckInMode("check-in")
	req.NoError(err)
	req.Equal(CheckInModeIn, mode)

	mode, err = ParseCheckInMode("check-out")
	req.NoError(err)
	req.Equal(CheckInModeOut, mode)

	_, err = ParseCheckInMode("checkin")
	req.ErrorIs(err, ErrInvalidCheckInMode)
}

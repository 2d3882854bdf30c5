//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=mocks/mock_room.go -package=mocks
package domain

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	MaxMembers     = 2
	DefaultRoomTTL = 10 * time.Minute
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	// ErrAdmissionContended means the optimistic admission lost every retry.
	ErrAdmissionContended = errors.New("room admission contended")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Room exists only while its metadata key lives in the store.
type Room struct {
	ID        string    `json:"id"`
	Connected []string  `json:"connected"`
	CreatedAt time.Time `json:"createdAt"`
}

type Admission struct {
	RoomID string
	Token  string
	// Joined is false when Token was already connected.
	Joined  bool
	Members int
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (*Room, error)
	Exists(ctx context.Context, id string) (bool, error)
	TTL(ctx context.Context, id string) (time.Duration, error)
	// Admit appends token to the room's connected list unless the room
	// already holds MaxMembers other tokens. It must be atomic.
	Admit(ctx context.Context, id string, token string) (*Admission, error)
	// RenewTTL aligns the dependent keys' expiry with the room's. When the
	// room is already gone it deletes the dependents and returns ErrRoomNotFound.
	RenewTTL(ctx context.Context, id string) error
	// Delete reports whether anything was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

func NewRoom(now time.Time) *Room {
	return &Room{
		ID:        uuid.NewString(),
		Connected: []string{},
		CreatedAt: now,
	}
}

func (r *Room) HasMember(token string) bool {
	return slices.Contains(r.Connected, token)
}

func (r *Room) IsFull() bool {
	return len(r.Connected) >= MaxMembers
}

// Admit applies the admission rule in memory. Callers persist the result.
func (r *Room) Admit(token string) (*Admission, error) {
	if r.HasMember(token) {
		return &Admission{RoomID: r.ID, Token: token, Joined: false, Members: len(r.Connected)}, nil
	}

	if r.IsFull() {
		return nil, ErrRoomFull
	}

	r.Connected = append(r.Connected, token)

	return &Admission{RoomID: r.ID, Token: token, Joined: true, Members: len(r.Connected)}, nil
}

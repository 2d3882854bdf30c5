//go:generate go run go.uber.org/mock/mockgen -source=checkin.go -destination=mocks/mock_checkin.go -package=mocks
package domain

import (
	"context"
	"errors"
	"time"
)

type CheckInMode string

const (
	CheckInModeIn  CheckInMode = "check-in"
	CheckInModeOut CheckInMode = "check-out"
)

var ErrInvalidCheckInMode = errors.New("invalid check-in mode")

func ParseCheckInMode(s string) (CheckInMode, error) {
	switch CheckInMode(s) {
	case CheckInModeIn, CheckInModeOut:
		return CheckInMode(s), nil
	}
	return "", ErrInvalidCheckInMode
}

type CheckIn struct {
	ID        string      `bson:"_id,omitempty" json:"id"`
	UserID    string      `bson:"userId" json:"userId"`
	Mode      CheckInMode `bson:"mode" json:"mode"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
}

type CheckInRepository interface {
	Insert(ctx context.Context, checkIn *CheckIn) (string, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]CheckIn, error)
	EnsureIndexes(ctx context.Context) error
}

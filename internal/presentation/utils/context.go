package utils

import "context"

type memberKey struct{}

// Member is a request that passed the room membership check.
type Member struct {
	RoomID string
	Token  string
}

func WithMember(ctx context.Context, m Member) context.Context {
	return context.WithValue(ctx, memberKey{}, m)
}

func MemberFromContext(ctx context.Context) (Member, bool) {
	m, ok := ctx.Value(memberKey{}).(Member)
	return m, ok
}

package domain

import "github.com/google/uuid"

// MemberCookie carries the participant token of a room member.
const MemberCookie = "x-auth-token"

// NewMemberToken returns an opaque participant token.
func NewMemberToken() string {
	return uuid.NewString()
}

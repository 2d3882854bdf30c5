// Package auth adapts the upstream authentication gateway. Identity is
// established elsewhere; this service only reads the resulting principal.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Principal struct {
	ID   string
	Name string
	Role Role
}

func (p *Principal) Can(permission Permission) bool {
	return p != nil && p.Role.Can(permission)
}

type SessionResolver interface {
	Resolve(r *http.Request) (*Principal, error)
}

// HeaderResolver trusts identity headers set by the gateway in front of
// this service. It must never be exposed directly to clients.
type HeaderResolver struct{}

func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{}
}

func (HeaderResolver) Resolve(r *http.Request) (*Principal, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil, ErrUnauthenticated
	}

	role := Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
	if role == "" {
		role = RoleUser
	}

	return &Principal{
		ID:   id,
		Name: strings.TrimSpace(r.Header.Get(HeaderUserName)),
		Role: role,
	}, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleAdmin, PermEventsCreate, true},
		{RoleAdmin, PermEventsRead, true},
		{RoleStaff, PermEventsCreate, true},
		{RoleStaff, PermEventsRead, false},
		{RoleCoach, PermEventsCreate, false},
		{RoleCoach, PermEventsReadOwn, true},
		{RoleUser, PermEventsCreate, false},
		{RoleUser, PermEventsReadOwn, true},
		{RoleGuest, PermEventsReadOwn, false},
		{Role("root"), PermEventsCreate, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.role)+" "+string(tc.permission), func(t *testing.T) {
			require.Equal(t, tc.want, tc.role.Can(tc.permission))
		})
	}
}

func TestHeaderResolver(t *testing.T) {
	req := require.New(t)
	resolver := NewHeaderResolver()

	r := httptest.NewRequest("GET", "/", nil)
	_, err := resolver.Resolve(r)
	req.ErrorIs(err, ErrUnauthenticated)

	r.Header.Set(HeaderUserID, "u1")
	r.Header.Set(HeaderUserName, "Alice")
	r.Header.Set(HeaderUserRole, "Staff")

	p, err := resolver.Resolve(r)
	req.NoError(err)
	req.Equal("u1", p.ID)
	req.Equal("Alice", p.Name)
	req.Equal(RoleStaff, p.Role)
	req.True(p.Can(PermEventsCreate))

	r.Header.Del(HeaderUserRole)
	p, err = resolver.Resolve(r)
	req.NoError(err)
	req.Equal(RoleUser, p.Role)
	req.False(p.Can(PermEventsCreate))

	ctx := WithPrincipal(r.Context(), p)
	got, ok := FromContext(ctx)
	req.True(ok)
	req.Same(p, got)

	_, ok = FromContext(r.Context())
	req.False(ok)
}

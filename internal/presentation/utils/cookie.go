package utils

import (
	"net/http"

	"github.com/btmxh/gym-tsfr/internal/domain"
)

// GetMemberToken returns the participant token carried by the request, or
// "" when there is none.
func GetMemberToken(r *http.Request) string {
	cookie, err := r.Cookie(domain.MemberCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetMemberCookie has no max-age: the room's own TTL bounds the token.
func SetMemberCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     domain.MemberCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func GetRoomID(r *http.Request) string {
	return r.URL.Query().Get("roomId")
}

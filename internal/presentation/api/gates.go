package api

import (
	"errors"
	"net/http"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/auth"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/presentation/utils"
	"github.com/go-chi/chi/v5"
)

const (
	roomNotFoundRedirect = "/?error=room-not-found"
	roomFullRedirect     = "/?error=room-full"
)

// admissionMiddleware admits at most domain.MaxMembers distinct
// participants per room. A request without a participant cookie gets a
// fresh token, set on the response once it is admitted.
func (app *Application) admissionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomId")

		token := utils.GetMemberToken(r)
		if token == "" {
			token = domain.NewMemberToken()
		}

		admission, err := app.rooms.Admit(r.Context(), roomID, token)
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			http.Redirect(w, r, roomNotFoundRedirect, http.StatusFound)
			return
		case errors.Is(err, domain.ErrRoomFull):
			app.logger.Info(logging.Room, logging.Admission, "room full", map[logging.ExtraKey]any{
				logging.RoomID: roomID,
			})
			http.Redirect(w, r, roomFullRedirect, http.StatusFound)
			return
		case err != nil:
			utils.WriteDomainError(w, app.logger, r, err)
			return
		}

		if admission.Joined {
			utils.SetMemberCookie(w, token, app.config.SecureCookies())
		}

		ctx := utils.WithMember(r.Context(), utils.Member{RoomID: roomID, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// roomMemberMiddleware lets through requests whose participant token is
// connected to the room named by the roomId query parameter.
func (app *Application) roomMemberMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID := utils.GetRoomID(r)
		token := utils.GetMemberToken(r)
		if roomID == "" || token == "" {
			json.WriteUnauthorizedError(w, "Missing roomId or token")
			return
		}

		member, err := app.rooms.IsMember(r.Context(), roomID, token)
		if err != nil {
			utils.WriteDomainError(w, app.logger, r, err)
			return
		}

		if !member {
			json.WriteUnauthorizedError(w, "Invalid token")
			return
		}

		ctx := utils.WithMember(r.Context(), utils.Member{RoomID: roomID, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *Application) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := app.sessions.Resolve(r)
		if err != nil {
			json.WriteUnauthorizedError(w, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func (app *Application) requirePermission(permission auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := auth.FromContext(r.Context())
			if !principal.Can(permission) {
				json.WriteForbiddenError(w, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

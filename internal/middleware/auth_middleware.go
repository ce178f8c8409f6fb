package middleware

import (
	"context"
	"net/http"

	"notes-server/internal/domain"
	"notes-server/internal/service"
	"notes-server/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	UserKey   contextKey = "user"
)

// TokenResolver maps the raw Authorization header value to a user.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware rejects requests whose Authorization header does not resolve
// to an active user. The header may hold the bare token or "Bearer <token>".
func AuthMiddleware(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if service.IsAuth(err) {
					response.Unauthorized(w, err.Error())
					return
				}
				response.InternalError(w, "Внутренняя ошибка сервера")
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = user.ID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(UserKey).(*domain.User)
	return user
}

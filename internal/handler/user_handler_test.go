package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-server/internal/domain"
	"notes-server/internal/logging"
	"notes-server/internal/middleware"
)

type staticResolver struct {
	user *domain.User
}

func (s staticResolver) Resolve(context.Context, string) (*domain.User, error) {
	return s.user, nil
}

func TestUserHandler_ProfileUsesAuthenticatedUser(t *testing.T) {
	user := &domain.User{
		ID:       "u-ctx",
		Username: "carol",
		Email:    "carol@example.com",
		Password: "stored-hash",
		IsActive: true,
	}

	// No service behind the handler: the answer must come from the request context.
	h := NewUserHandler(nil, logging.Discard())
	srv := middleware.AuthMiddleware(staticResolver{user: user})(http.HandlerFunc(h.Profile))

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "token")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "stored-hash")

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)

	var got domain.User
	decodeData(t, env, &got)
	assert.Equal(t, "u-ctx", got.ID)
	assert.Equal(t, "carol", got.Username)
	assert.Equal(t, "stored-hash", user.Password, "context user is not mutated")
}

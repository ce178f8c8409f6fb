package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"
)

type UserHandler struct {
	userService *service.UserService
	log         *logrus.Logger
}

func NewUserHandler(userService *service.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         logger,
	}
}

// Profile answers with the user resolved by the auth middleware, falling back
// to a store lookup when the handler is mounted without it.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if user := middleware.GetUser(r); user != nil {
		profile := *user
		profile.Password = ""
		response.Success(w, &profile)
		return
	}

	user, err := h.userService.GetByID(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, user)
}

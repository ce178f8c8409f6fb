package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"notes-server/internal/service"
	"notes-server/pkg/response"
)

type StatusHandler struct {
	service *service.StatusService
	log     *logrus.Logger
}

func NewStatusHandler(service *service.StatusService, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		log:     logger,
	}
}

// Test reports that the API is up along with record counts.
func (h *StatusHandler) Test(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, status)
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":  "healthy",
		"service": "notes-server",
	})
}

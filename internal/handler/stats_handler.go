package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"
)

type StatsHandler struct {
	service *service.StatsService
	log     *logrus.Logger
}

func NewStatsHandler(service *service.StatsService, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		log:     logger,
	}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Compute(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, stats)
}

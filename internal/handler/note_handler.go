package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"notes-server/internal/domain"
	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"
)

const msgNoteDeleted = "Заметка удалена"

type NoteHandler struct {
	service *service.NoteService
	log     *logrus.Logger
}

func NewNoteHandler(service *service.NoteService, logger *logrus.Logger) *NoteHandler {
	return &NoteHandler{
		service: service,
		log:     logger,
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, msgInvalidBody)
		return
	}

	note, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}

	note, err := h.service.GetByID(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateNoteRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, msgInvalidBody)
		return
	}

	note, err := h.service.Update(r.Context(), middleware.GetUserID(r), id, &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.service.Delete(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.WithMessage(w, http.StatusOK, msgNoteDeleted, resp)
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	query, ok := pathVar(w, r, "query")
	if !ok {
		return
	}

	notes, err := h.service.Search(r.Context(), middleware.GetUserID(r), query)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, notes)
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"notes-server/internal/service"
	"notes-server/pkg/response"
)

const (
	msgInvalidBody   = "Неверный формат запроса"
	msgInternalError = "Внутренняя ошибка сервера"
)

// decodeBody reads a JSON body into v. An empty body leaves v zeroed so the
// service can report the missing fields itself.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathVar returns the unescaped route variable name. A malformed escape is
// answered with 400 and ok=false.
func pathVar(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, msgInvalidBody)
		return "", false
	}
	return value, true
}

// writeError maps service errors to status codes. Anything untyped is a 500
// and gets logged; its text never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	var (
		validationErr *service.ValidationError
		conflictErr   *service.ConflictError
		authErr       *service.AuthError
		notFoundErr   *service.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		response.FieldError(w, http.StatusBadRequest, validationErr.Message, validationErr.Fields)
	case errors.As(err, &conflictErr):
		response.Conflict(w, conflictErr.Message)
	case errors.As(err, &authErr):
		response.Unauthorized(w, authErr.Message)
	case errors.As(err, &notFoundErr):
		response.NotFound(w, notFoundErr.Message)
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		response.InternalError(w, msgInternalError)
	}
}

package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"notes-server/internal/config"
	"notes-server/internal/middleware"
	"notes-server/pkg/response"
)

type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Note      *NoteHandler
	Stats     *StatsHandler
	Status    *StatusHandler
	WebSocket *WebSocketHandler
}

// NewRouter mounts every route. The search route is registered before
// /notes/{id} so "search" is never taken for a note id. Routes match the
// encoded path so an escaped "/" stays inside one variable; handlers read
// variables through pathVar.
func NewRouter(h Handlers, resolver middleware.TokenResolver, cors config.CORSConfig, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter().UseEncodedPath()

	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cors.AllowedOrigins, cors.AllowedMethods, cors.AllowedHeaders))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/test", h.Status.Test).Methods("GET", "OPTIONS")
	api.HandleFunc("/register", h.Auth.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/login", h.Auth.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/refresh", h.Auth.Refresh).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(resolver))

	protected.HandleFunc("/profile", h.User.Profile).Methods("GET", "OPTIONS")

	protected.HandleFunc("/notes", h.Note.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes", h.Note.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/search/{query}", h.Note.Search).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id}", h.Note.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id}", h.Note.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/notes/{id}", h.Note.Delete).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/stats", h.Stats.Get).Methods("GET", "OPTIONS")

	if h.WebSocket != nil {
		r.HandleFunc("/ws", h.WebSocket.HandleConnection)
	}
	r.HandleFunc("/health", h.Status.Health).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Маршрут не найден")
	})

	return r
}

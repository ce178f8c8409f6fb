package handler

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"notes-server/internal/idgen"
	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/internal/websocket"
	"notes-server/pkg/response"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	resolver middleware.TokenResolver
	upgrader ws.Upgrader
	log      *logrus.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, resolver middleware.TokenResolver, readBuf, writeBuf int, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:  manager,
		resolver: resolver,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logger,
	}
}

// HandleConnection authenticates with ?token= (browsers cannot set headers on
// a websocket handshake) or the Authorization header, then joins the feed.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}

	user, err := h.resolver.Resolve(r.Context(), token)
	if err != nil {
		if service.IsAuth(err) {
			response.Unauthorized(w, err.Error())
			return
		}
		writeError(w, r, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(idgen.New(), user.ID, conn, h.manager)
	h.manager.Add(client)

	go client.WritePump()
	go client.ReadPump()
}

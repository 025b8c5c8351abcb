package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"noteapp-server/internal/domain"
	"noteapp-server/internal/middleware"
	"noteapp-server/internal/websocket"
	"noteapp-server/pkg/response"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
}

// NewWebSocketHandler accepts upgrades from the comma-separated
// allowedOrigins, the same list CORS enforces. Requests without an Origin
// header are not browser cross-origin requests and are always accepted.
func NewWebSocketHandler(manager *websocket.Manager, allowedOrigins string, readBufferSize, writeBufferSize int) *WebSocketHandler {
	origins := middleware.ParseOrigins(allowedOrigins)

	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(origins, origin)
			},
		},
	}
}

// HandleConnection subscribes the caller to note changes. ?tags= narrows the
// feed to notes carrying any of the listed tags.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	var filter domain.TagFilter
	for _, value := range r.URL.Query()["tags"] {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			tag, err := domain.ParseTag(part)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			filter = append(filter, tag)
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), filter, conn, h.manager)
	if !h.manager.Connect(client) {
		conn.Close()
		return
	}

	slog.Debug("websocket client connected", "client", client.ID, "tags", filter)

	go client.WritePump()
	go client.ReadPump()
}

// Package ws serves the chat flows over a duplex WebSocket, mirroring the
// SSE surface for clients that keep one connection open across turns.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/amarw/wayfarer/backend/internal/middleware"
	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/service/planner"
)

// Handler upgrades chat clients to WebSocket connections.
type Handler struct {
	planner  *planner.Service
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(plannerSvc *planner.Service) *Handler {
	return &Handler{
		planner: plannerSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket route. Requires auth (token query
// parameter).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundFrame struct {
	Type      string `json:"type"` // "send" or "regenerate"
	ChatID    string `json:"chatId"`
	Message   string `json:"message,omitempty"`
	Image     string `json:"image,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

type outboundFrame struct {
	Type      string             `json:"type"`
	ChatID    string             `json:"chatId,omitempty"`
	MessageID string             `json:"messageId,omitempty"`
	Text      string             `json:"text,omitempty"`
	Message   *chatmodel.Message `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	profile, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	notifier := &wsNotifier{conn: conn}

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		switch frame.Type {
		case "send":
			result, err := h.planner.Send(r.Context(), profile.ID, frame.ChatID, frame.Message, frame.Image, notifier)
			if err != nil {
				notifier.write(outboundFrame{Type: "error", ChatID: frame.ChatID, Error: err.Error()})
				continue
			}
			notifier.write(outboundFrame{Type: "end", ChatID: result.ChatID})
		case "regenerate":
			if _, err := h.planner.Regenerate(r.Context(), profile.ID, frame.ChatID, frame.MessageID, notifier); err != nil {
				notifier.write(outboundFrame{Type: "error", ChatID: frame.ChatID, Error: err.Error()})
				continue
			}
			notifier.write(outboundFrame{Type: "end", ChatID: frame.ChatID})
		default:
			notifier.write(outboundFrame{Type: "error", Error: "unknown frame type"})
		}
	}
}

// wsNotifier adapts planner progress into WebSocket frames. The write mutex
// keeps frames whole if a future caller notifies from another goroutine.
type wsNotifier struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (n *wsNotifier) MessageStarted(msg chatmodel.Message) {
	n.write(outboundFrame{Type: "start", Message: &msg})
}

func (n *wsNotifier) MessageUpdated(messageID, text string) {
	n.write(outboundFrame{Type: "delta", MessageID: messageID, Text: text})
}

func (n *wsNotifier) MessageResolved(msg chatmodel.Message) {
	n.write(outboundFrame{Type: "resolved", Message: &msg})
}

func (n *wsNotifier) write(frame outboundFrame) {
	n.mu.Lock()
	defer n.mu.Unlock()

	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[ws] marshal frame: %v", err)
		return
	}
	if err := n.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[ws] write frame: %v", err)
	}
}

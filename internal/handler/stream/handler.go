// Package stream exposes the send and regenerate flows over Server-Sent
// Events, relaying partial model output to the browser as it accumulates.
package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/amarw/wayfarer/backend/internal/middleware"
	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	chatservice "github.com/amarw/wayfarer/backend/internal/service/chat"
	"github.com/amarw/wayfarer/backend/internal/service/planner"
	"github.com/amarw/wayfarer/backend/pkg/utils"
)

// Handler streams generation progress over SSE.
type Handler struct {
	planner *planner.Service
}

// New creates the stream handler.
func New(plannerSvc *planner.Service) *Handler {
	return &Handler{planner: plannerSvc}
}

// RegisterRoutes mounts the streaming routes. Both require auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/stream", h.handleSend)
	r.Post("/stream/regenerate", h.handleRegenerate)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChatID  string `json:"chatId"`
		Message string `json:"message"`
		Image   string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	profile, _ := middleware.UserFrom(r.Context())
	utils.SetupSSEHeaders(w)
	notifier := &sseNotifier{w: w, flusher: flusher}

	result, err := h.planner.Send(r.Context(), profile.ID, payload.ChatID, payload.Message, payload.Image, notifier)
	if err != nil {
		notifier.sendError(err)
		return
	}

	utils.SendSSEEvent(w, flusher, "end", map[string]string{"chatId": result.ChatID})
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChatID    string `json:"chatId"`
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ChatID == "" || payload.MessageID == "" {
		utils.RespondError(w, http.StatusBadRequest, "chatId and messageId are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	profile, _ := middleware.UserFrom(r.Context())
	utils.SetupSSEHeaders(w)
	notifier := &sseNotifier{w: w, flusher: flusher}

	if _, err := h.planner.Regenerate(r.Context(), profile.ID, payload.ChatID, payload.MessageID, notifier); err != nil {
		notifier.sendError(err)
		return
	}

	utils.SendSSEEvent(w, flusher, "end", map[string]string{"chatId": payload.ChatID})
}

// sseNotifier adapts planner progress into SSE events.
type sseNotifier struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (n *sseNotifier) MessageStarted(msg chatmodel.Message) {
	utils.SendSSEEvent(n.w, n.flusher, "start", msg)
}

func (n *sseNotifier) MessageUpdated(messageID, text string) {
	utils.SendSSEEvent(n.w, n.flusher, "delta", map[string]string{
		"messageId": messageID,
		"text":      text,
	})
}

func (n *sseNotifier) MessageResolved(msg chatmodel.Message) {
	utils.SendSSEEvent(n.w, n.flusher, "resolved", msg)
}

func (n *sseNotifier) sendError(err error) {
	switch {
	case errors.Is(err, chatservice.ErrGenerationInFlight),
		errors.Is(err, planner.ErrNoUserTurn),
		errors.Is(err, planner.ErrEmptyMessage),
		errors.Is(err, planner.ErrMessageNotFound),
		errors.Is(err, planner.ErrChatNotFound):
		utils.SendSSEEvent(n.w, n.flusher, "error", map[string]string{"error": err.Error()})
	default:
		utils.SendSSEEvent(n.w, n.flusher, "error", map[string]string{"error": "generation failed"})
	}
}

package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amarw/wayfarer/backend/internal/middleware"
	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/service/planner"
	"github.com/amarw/wayfarer/backend/internal/store"
	"github.com/amarw/wayfarer/backend/pkg/utils"
)

// Handler serves chat session metadata and reconstructed transcripts.
type Handler struct {
	store   store.Adapter
	planner *planner.Service
}

// New creates the chat handler.
func New(adapter store.Adapter, plannerSvc *planner.Service) *Handler {
	return &Handler{store: adapter, planner: plannerSvc}
}

// RegisterRoutes mounts the chat routes. All require an authenticated user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chats", h.handleListChats)
	r.Post("/chats", h.handleCreateChat)
	r.Get("/chats/{chatID}/messages", h.handleMessages)
}

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	profile, _ := middleware.UserFrom(r.Context())

	sessions, err := h.store.Sessions(r.Context(), profile.ID)
	if err != nil {
		// A failed list fetch degrades to an empty sidebar, not an error page.
		log.Printf("[chat] list sessions for user=%s: %v", profile.ID, err)
		sessions = nil
	}
	if sessions == nil {
		sessions = []chatmodel.Session{}
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	profile, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.store.CreateSession(r.Context(), profile.ID, payload.Title)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleMessages loads history through the planner so the live transcript is
// replaced as part of switching sessions. A chat owned by another user is
// reported as missing.
func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	profile, _ := middleware.UserFrom(r.Context())

	chatID := chi.URLParam(r, "chatID")
	if chatID == "" {
		utils.RespondError(w, http.StatusBadRequest, "chatID is required")
		return
	}

	session, err := h.store.SessionByID(r.Context(), chatID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && session.UserID != profile.ID) {
		utils.RespondError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}

	msgs := h.planner.OpenSession(r.Context(), chatID)
	utils.RespondJSON(w, http.StatusOK, msgs)
}

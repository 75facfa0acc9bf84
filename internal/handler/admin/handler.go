package admin

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amarw/wayfarer/backend/internal/middleware"
	"github.com/amarw/wayfarer/backend/internal/model/user"
	authservice "github.com/amarw/wayfarer/backend/internal/service/auth"
	"github.com/amarw/wayfarer/backend/internal/store"
	"github.com/amarw/wayfarer/backend/pkg/utils"
)

// Handler serves the administrative report.
type Handler struct {
	store   store.Adapter
	authSvc *authservice.Service
}

// New creates the admin handler.
func New(adapter store.Adapter, authSvc *authservice.Service) *Handler {
	return &Handler{store: adapter, authSvc: authSvc}
}

// RegisterRoutes mounts the admin routes. Requires auth; the handler itself
// enforces the admin account.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/report", h.handleReport)
}

type report struct {
	Users      []user.Profile `json:"users"`
	TotalChats int            `json:"totalChats"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	profile, _ := middleware.UserFrom(r.Context())
	if !h.authSvc.IsAdmin(profile) {
		utils.RespondError(w, http.StatusForbidden, "admin access required")
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin] list users: %v", err)
		users = nil
	}
	if users == nil {
		users = []user.Profile{}
	}

	count, err := h.store.CountChats(r.Context())
	if err != nil {
		log.Printf("[admin] count chats: %v", err)
		count = 0
	}

	utils.RespondJSON(w, http.StatusOK, report{Users: users, TotalChats: count})
}

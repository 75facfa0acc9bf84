package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amarw/wayfarer/backend/internal/middleware"
	authservice "github.com/amarw/wayfarer/backend/internal/service/auth"
	"github.com/amarw/wayfarer/backend/pkg/utils"
)

// Handler exposes the authentication endpoints. Failures surface as inline
// error payloads so the client can render them next to the triggering form.
type Handler struct {
	authSvc *authservice.Service
}

// New creates the auth handler.
func New(authSvc *authservice.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes mounts the public auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/signin", h.handleSignIn)
	r.Post("/auth/guest", h.handleGuest)
	r.Post("/auth/signout", h.handleSignOut)
}

// RegisterAuthedRoutes mounts routes that need a resolved user.
func (h *Handler) RegisterAuthedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type sessionResponse struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var input authservice.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, token, err := h.authSvc.SignUp(r.Context(), input)
	if errors.Is(err, authservice.ErrEmailTaken) {
		utils.RespondError(w, http.StatusConflict, "User already exists. Please Log In.")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{User: profile, Token: token})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, token, err := h.authSvc.SignIn(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, authservice.ErrInvalidCredentials) {
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "sign in failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionResponse{User: profile, Token: token})
}

func (h *Handler) handleGuest(w http.ResponseWriter, r *http.Request) {
	profile, token := h.authSvc.SignInAsGuest(r.Context())
	utils.RespondJSON(w, http.StatusOK, sessionResponse{User: profile, Token: token})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if token, ok := cutBearer(header); ok {
		h.authSvc.SignOut(token)
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

func cutBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	adminHandler "github.com/amarw/wayfarer/backend/internal/handler/admin"
	authHandler "github.com/amarw/wayfarer/backend/internal/handler/auth"
	chatHandler "github.com/amarw/wayfarer/backend/internal/handler/chat"
	streamHandler "github.com/amarw/wayfarer/backend/internal/handler/stream"
	wsHandler "github.com/amarw/wayfarer/backend/internal/handler/ws"
	"github.com/amarw/wayfarer/backend/internal/middleware"
	authservice "github.com/amarw/wayfarer/backend/internal/service/auth"
	"github.com/amarw/wayfarer/backend/internal/service/planner"
	"github.com/amarw/wayfarer/backend/internal/store"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(adapter store.Adapter, authSvc *authservice.Service, plannerSvc *planner.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	auth := authHandler.New(authSvc)
	chats := chatHandler.New(adapter, plannerSvc)
	streams := streamHandler.New(plannerSvc)
	sockets := wsHandler.New(plannerSvc)
	admin := adminHandler.New(adapter, authSvc)

	r.Route("/api", func(api chi.Router) {
		auth.RegisterRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(authSvc))

			auth.RegisterAuthedRoutes(authed)
			chats.RegisterRoutes(authed)
			streams.RegisterRoutes(authed)
			sockets.RegisterRoutes(authed)
			admin.RegisterRoutes(authed)
		})
	})

	return r
}

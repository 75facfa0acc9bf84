package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/amarw/wayfarer/backend/internal/config"
	"github.com/amarw/wayfarer/backend/internal/handler"
	"github.com/amarw/wayfarer/backend/internal/service/ai"
	"github.com/amarw/wayfarer/backend/internal/service/auth"
	"github.com/amarw/wayfarer/backend/internal/service/planner"
	"github.com/amarw/wayfarer/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	adapter, cleanup, err := buildStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize persistence: %v", err)
	}
	defer cleanup()

	authService := auth.NewService(adapter, cfg.Admin.Email)

	factory := unavailableSessionFactory()
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check GEMINI_API_KEY")
		} else {
			factory = func(ctx context.Context) (planner.ModelSession, error) {
				return aiService.NewSession(ctx)
			}
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("GEMINI_API_KEY not configured, skipping AI initialization")
	}

	plannerService := planner.NewService(adapter, factory)

	router := handler.NewRouter(adapter, authService, plannerService)

	startServer(ctx, cfg.Server, router)
}

func buildStore(ctx context.Context, cfg config.DatabaseConfig) (store.Adapter, func(), error) {
	if cfg.URL == "" {
		log.Println("DATABASE_URL not configured, using in-memory persistence")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	log.Println("connected to Postgres persistence")
	return pg, pg.Close, nil
}

func unavailableSessionFactory() planner.SessionFactory {
	return func(context.Context) (planner.ModelSession, error) {
		return nil, errors.New("model service unavailable")
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Wayfarer backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/notebookbobu/backend/internal/api/handlers"
	middleware "github.com/notebookbobu/backend/internal/api/middlewares"
	"github.com/notebookbobu/backend/internal/config"
	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/services"
	"github.com/notebookbobu/backend/internal/tracking"
)

// Server wraps the HTTP layer: router, middleware stack and the
// listener lifecycle.
type Server struct {
	httpServer *http.Server
	router     chi.Router
}

func NewServer(cfg *config.Config, docService *services.DocumentService, users core.UserRepository, tracker *tracking.Tracker) *Server {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(users, cfg.JWTSecret)
	docHandler := handlers.NewDocumentHandler(docService)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/signup", authHandler.Signup)
	r.Post("/api/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(cfg.JWTSecret))
		r.Use(middleware.TrackingMiddleware(tracker))

		r.Post("/api/v2/process", docHandler.ProcessDocument)
		r.Get("/api/v2/documents", docHandler.ListDocuments)
		r.Get("/api/v2/documents/{documentID}", docHandler.GetDocument)
		r.Delete("/api/v2/documents/{documentID}", docHandler.DeleteDocument)
		r.Post("/api/v2/documents/{documentID}/process", docHandler.Reprocess)
		r.Get("/api/v2/documents/{documentID}/chunks", docHandler.GetChunks)
		r.Get("/api/v2/search", docHandler.Search)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: r,
		},
		router: r,
	}
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving requests until the listener fails or is shut
// down.
func (s *Server) Start() error {
	logrus.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

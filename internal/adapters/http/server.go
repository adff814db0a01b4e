// Package http serves the mutation pipeline over a chi router.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/longregen/gepa/internal/adapters/http/handlers"
	"github.com/longregen/gepa/internal/adapters/http/middleware"
	"github.com/longregen/gepa/internal/application/services"
	"github.com/longregen/gepa/internal/config"
	"github.com/longregen/gepa/internal/ports"
)

type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	service    *services.MutationService
	repo       ports.MutationRoundRepository
	db         *pgxpool.Pool
}

func NewServer(
	cfg *config.Config,
	service *services.MutationService,
	repo ports.MutationRoundRepository,
	db *pgxpool.Pool,
) *Server {
	s := &Server{
		config:  cfg,
		service: service,
		repo:    repo,
		db:      db,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(s.config.Server.CORSOrigins))
	r.Use(middleware.Metrics)

	healthHandler := handlers.NewHealthHandler(s.db)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		mutationsHandler := handlers.NewMutationsHandler(s.service, s.repo)
		r.Post("/mutations", mutationsHandler.Create)
		r.Get("/mutations", mutationsHandler.List)
		r.Get("/mutations/best", mutationsHandler.Best)
		r.Get("/mutations/{id}", mutationsHandler.Get)
	})

	s.router = r
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

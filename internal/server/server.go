// Package server provides the HTTP server and routing for Ballast.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/database"
	"github.com/aristath/ballast/internal/modules/importer"
	importerhandlers "github.com/aristath/ballast/internal/modules/importer/handlers"
	"github.com/aristath/ballast/internal/modules/portfolios"
	portfolioshandlers "github.com/aristath/ballast/internal/modules/portfolios/handlers"
	presetshandlers "github.com/aristath/ballast/internal/modules/presets/handlers"
	"github.com/aristath/ballast/internal/modules/rebalancing"
	rebalancinghandlers "github.com/aristath/ballast/internal/modules/rebalancing/handlers"
	"github.com/aristath/ballast/internal/reliability"
	"github.com/aristath/ballast/internal/sessions"
)

// Config holds server configuration
type Config struct {
	Log           zerolog.Logger
	Config        *config.Config
	PortfolioDB   *database.DB
	CacheDB       *database.DB
	MappingTable  *importer.MappingTable
	SessionRepo   *sessions.Repository
	BackupService *reliability.BackupService // nil when backups are not configured
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	portfolioDB    *database.DB
	cacheDB        *database.DB
	mappingTable   *importer.MappingTable
	sessionRepo    *sessions.Repository
	backupService  *reliability.BackupService
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		cfg:           cfg.Config,
		portfolioDB:   cfg.PortfolioDB,
		cacheDB:       cfg.CacheDB,
		mappingTable:  cfg.MappingTable,
		sessionRepo:   cfg.SessionRepo,
		backupService: cfg.BackupService,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, map[string]*database.DB{
		"portfolio": cfg.PortfolioDB,
		"cache":     cfg.CacheDB,
	})

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Rebalancing engine
		rebalancingService := rebalancing.NewService(s.log)
		rebalancinghandlers.NewHandler(rebalancingService, s.log).RegisterRoutes(r)

		// CSV import pipeline
		importerService := importer.NewService(s.mappingTable, s.log)
		importerhandlers.NewHandler(importerService, s.sessionRepo, s.log).RegisterRoutes(r)

		// Preset catalog
		presetshandlers.NewHandler(s.log).RegisterRoutes(r)

		// Saved portfolios
		portfolioRepo := portfolios.NewRepository(s.portfolioDB.Conn(), s.log)
		portfolioshandlers.NewHandler(portfolioRepo, s.log).RegisterRoutes(r)

		// System monitoring
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
		})

		// Offsite backups
		retentionDays := 0
		if s.cfg.Backup != nil {
			retentionDays = s.cfg.Backup.RetentionDays
		}
		NewBackupHandlers(s.backupService, retentionDays, s.log).RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Package server hosts the card preview server: HTML pages and a JSON API
// over the card store and render pipeline, a section catalog endpoint, and
// an optional watch directory that live-reloads connected browsers over a
// websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-cardgen/components/catalog"
	"github.com/goliatone/go-cardgen/pkg/orchestrator"
	"github.com/goliatone/go-cardgen/pkg/render/template/pongo"
	"github.com/goliatone/go-cardgen/pkg/sections"
	"github.com/goliatone/go-cardgen/pkg/store"
)

// Deps are the collaborators the server works against. Store and
// Orchestrator are required; the rest default sensibly.
type Deps struct {
	Store        *store.Store
	Orchestrator *orchestrator.Orchestrator

	// Sections backs the /api/sections catalog. Nil means the built-in
	// registry.
	Sections *sections.Registry

	Logger *zap.Logger
}

// Server couples the router to the store and render pipeline. Construct
// with New, serve with Run, or mount Handler under another mux.
type Server struct {
	cfg    Config
	logger *zap.Logger

	store    *store.Store
	pipeline *orchestrator.Orchestrator
	sections *sections.Registry

	engine *gin.Engine
	pages  *pongo.Engine
	hub    *hub
	watch  *watcher
}

// New wires the router, page templates, and, when cfg.WatchDir is set, the
// filesystem watcher. The watch directory is created if missing.
func New(cfg Config, deps Deps) (*Server, error) {
	cfg.applyDefaults()
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Orchestrator == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Sections
	if registry == nil {
		registry = sections.Default()
	}

	pages, err := pongo.New(pongo.WithFS(pagesFS()), pongo.WithExtension(".html"))
	if err != nil {
		return nil, fmt.Errorf("server: configure page templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    deps.Store,
		pipeline: deps.Orchestrator,
		sections: registry,
		pages:    pages,
		hub:      newHub(logger),
	}

	if cfg.WatchDir != "" {
		if err := os.MkdirAll(cfg.WatchDir, 0o750); err != nil {
			return nil, fmt.Errorf("server: create watch directory %s: %w", cfg.WatchDir, err)
		}
		watch, err := newWatcher(cfg.WatchDir, deps.Store, s.hub, logger)
		if err != nil {
			return nil, err
		}
		s.watch = watch
	}

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(
		requestID(),
		requestLogger(logger),
		recovery(logger),
		rateLimit(newLimiterPool(cfg.RateRPS, cfg.RateBurst)),
	)
	s.engine = engine
	s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/cards", s.handleIndex)
	s.engine.GET("/cards/:id", s.handleCardPage)
	s.engine.GET("/live", s.hub.handle)

	api := s.engine.Group("/api")
	{
		api.GET("/cards", s.handleListCards)
		api.POST("/cards", s.handleCreateCard)
		api.GET("/cards/:id", s.handleGetCard)
		api.PUT("/cards/:id", s.handleUpdateCard)
		api.DELETE("/cards/:id", s.handleDeleteCard)
		api.POST("/render", s.handleRender)

		sectionsHandler := catalog.Handler(catalog.WithRegistry(s.sections))
		api.GET("/sections", gin.WrapH(sectionsHandler))
		api.HEAD("/sections", gin.WrapH(sectionsHandler))
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown timeout. The watch loop, when configured, lives and dies
// with the same ctx.
func (s *Server) Run(ctx context.Context) error {
	if s.watch != nil {
		go s.watch.run(ctx)
	}

	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening",
		zap.String("addr", srv.Addr),
		zap.String("mode", s.cfg.Mode),
		zap.Bool("watch", s.watch != nil))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen on %s: %w", srv.Addr, err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}

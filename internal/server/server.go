package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/tagdeck/config"
	"github.com/ngenohkevin/tagdeck/internal/content"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/metastore"
	"github.com/ngenohkevin/tagdeck/internal/metrics"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
	"github.com/ngenohkevin/tagdeck/internal/search"
)

// Deps are the services the HTTP layer drives
type Deps struct {
	Content       *content.Manager
	Locations     *location.Manager
	Notifications *notify.Center
	Meta          *metastore.Store
	Search        *search.Results
	// Storage is optional; removed cloud locations drop their cached client
	Storage *platform.Facade
}

// Server represents the HTTP server
type Server struct {
	cfg           *config.Config
	router        *gin.Engine
	handlers      *Handlers
	setupHandlers *SetupHandlers
	auth          *Authenticator
	limiter       *RateLimiter
	httpServer    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) *Server {
	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	s := &Server{
		cfg:           cfg,
		router:        router,
		handlers:      NewHandlers(cfg, deps),
		setupHandlers: NewSetupHandlers(cfg),
		auth:          NewAuthenticator(cfg.APIKey, cfg.JWTSecret),
		limiter:       NewRateLimiter(cfg.RateLimitRPS),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(RecoveryMiddleware())
	s.router.Use(LoggerMiddleware())
	s.router.Use(CORSMiddleware(s.cfg.AllowedOrigins))
	s.router.Use(RateLimitMiddleware(s.limiter))
}

func (s *Server) setupRoutes() {
	// Health check and scrape endpoint (no auth)
	s.router.GET("/health", s.handlers.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Setup routes (no auth required in setup mode)
	if s.cfg.SetupMode {
		setup := s.router.Group("/setup")
		{
			setup.POST("/generate", s.setupHandlers.GenerateKey)
			setup.POST("/save", s.setupHandlers.SaveKey)
		}
	}

	api := s.router.Group("/api")
	api.Use(AuthMiddleware(s.auth))
	{
		api.GET("/info", s.handlers.GetInfo)
		api.POST("/token", IssueTokenHandler(s.auth))
		api.GET("/settings", s.setupHandlers.GetSettings)
		api.PUT("/settings", RequireWrite(), s.setupHandlers.UpdateSettings)

		// Current directory, guarded by the current location
		dir := api.Group("/directory")
		dir.Use(RequireLocation(s.currentLocationID))
		{
			dir.GET("", s.handlers.GetDirectory)
			dir.DELETE("", s.handlers.ClearDirectory)
			dir.POST("/load", s.handlers.LoadDirectory)
			dir.POST("/parent", s.handlers.LoadParentDirectory)
			dir.POST("/open-current", s.handlers.OpenCurrentDirectory)
			dir.POST("/cancel", s.handlers.CancelWalk)
			dir.PATCH("/entry", s.handlers.UpdateEntry)
			dir.PUT("/entries", s.handlers.UpdateEntries)
			dir.PUT("/thumbnails", s.handlers.UpdateThumbnails)
			dir.PUT("/meta", RequireWrite(), s.handlers.UpdateMeta)
			dir.PUT("/selection", s.handlers.SetSelection)
			dir.GET("/history", s.handlers.GetHistory)
			dir.POST("/watch", s.handlers.WatchDirectory)
		}

		// Locations
		loc := api.Group("/locations")
		{
			loc.GET("", s.handlers.ListLocations)
			loc.POST("", RequireWrite(), s.handlers.AddLocation)
			loc.POST("/close-all", s.handlers.CloseAllLocations)

			byID := loc.Group("/:id")
			byID.Use(RequireLocation(func(c *gin.Context) string { return c.Param("id") }))
			byID.PUT("", RequireWrite(), s.handlers.EditLocation)
			byID.DELETE("", RequireWrite(), s.handlers.RemoveLocation)
			byID.POST("/open", s.handlers.OpenLocation)
			byID.POST("/close", s.handlers.CloseLocation)
			byID.POST("/select", s.handlers.SelectLocation)
			byID.GET("/usage", s.handlers.GetLocationUsage)
		}

		// Search overlay
		api.GET("/search", s.handlers.GetSearch)
		api.POST("/search", s.handlers.Search)
		api.DELETE("/search", s.handlers.ExitSearch)

		// Notifications
		api.GET("/notifications", s.handlers.ListNotifications)
		api.DELETE("/notifications", s.handlers.HideNotifications)
		api.GET("/events", s.handlers.StreamEvents)
		api.GET("/ws", s.handlers.NotificationSocket)
	}
}

func (s *Server) currentLocationID(*gin.Context) string {
	if loc := s.handlers.locations.Current(); loc != nil {
		return loc.UUID
	}
	return ""
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting tagdeck", logging.String("addr", s.cfg.Addr()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	// Tell systemd we are ready; a no-op outside a notify unit
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("systemd notify failed", logging.Err(err))
	} else if sent {
		logging.Debug("systemd notified")
	}

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("shutting down server")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("server forced to shutdown", logging.Err(err))
		return err
	}

	logging.Info("server stopped")
	return nil
}

// Router returns the Gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

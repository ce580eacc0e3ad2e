package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/tagdeck/config"
	"github.com/ngenohkevin/tagdeck/internal/content"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/metastore"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
	"github.com/ngenohkevin/tagdeck/internal/search"
	"github.com/ngenohkevin/tagdeck/internal/system"
)

// Version is reported by the health and info endpoints
const Version = "1.0.0"

// Handlers holds all HTTP handlers
type Handlers struct {
	cfg           *config.Config
	content       *content.Manager
	locations     *location.Manager
	notifications *notify.Center
	meta          *metastore.Store
	search        *search.Results
	storage       *platform.Facade
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, deps Deps) *Handlers {
	return &Handlers{
		cfg:           cfg,
		content:       deps.Content,
		locations:     deps.Locations,
		notifications: deps.Notifications,
		meta:          deps.Meta,
		search:        deps.Search,
		storage:       deps.Storage,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   Version,
	})
}

// GetInfo handles GET /api/info
func (h *Handlers) GetInfo(c *gin.Context) {
	host, err := system.Describe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var current string
	if loc := h.locations.Current(); loc != nil {
		current = loc.UUID
	}

	c.JSON(http.StatusOK, gin.H{
		"host":             host,
		"agent":            "tagdeck",
		"version":          Version,
		"current_location": current,
		"current_path":     h.content.Path(),
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, content.ErrLoadSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.Is(err, content.ErrNoDirectoryOpen),
		errors.Is(err, content.ErrNoLocation):
		return http.StatusPreconditionFailed
	case errors.Is(err, content.ErrParentOutsideLocation),
		errors.Is(err, platform.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, platform.ErrNotDirectory):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, platform.ErrNoBackend),
		errors.Is(err, platform.ErrUnsupportedBackend):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

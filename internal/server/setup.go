package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/tagdeck/config"
)

// SetupHandlers handles the setup and settings endpoints
type SetupHandlers struct {
	cfg *config.Config
}

// NewSetupHandlers creates setup handlers
func NewSetupHandlers(cfg *config.Config) *SetupHandlers {
	return &SetupHandlers{cfg: cfg}
}

// GetSettings returns current settings (requires auth)
func (h *SetupHandlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"port":                     h.cfg.Port,
		"host":                     h.cfg.Host,
		"allowed_origins":          h.cfg.AllowedOrigins,
		"log_level":                h.cfg.LogLevel,
		"rate_limit_rps":           h.cfg.RateLimitRPS,
		"locations_file":           h.cfg.LocationsFile,
		"show_unix_hidden_entries": h.cfg.ShowUnixHiddenEntries,
		"max_loops":                h.cfg.MaxLoops,
		"tag_delimiter":            h.cfg.TagDelimiter,
		"meta_folder":              h.cfg.MetaFolder,
		"web_mode":                 h.cfg.WebMode,
		"use_generate_thumbnails":  h.cfg.UseGenerateThumbnails,
		"thumbnails_enabled":       h.cfg.ThumbnailsEnabled(),
		"enable_ws":                h.cfg.EnableWS,
		"env_file":                 h.cfg.EnvFile,
		"setup_mode":               h.cfg.SetupMode,
		// Don't expose the actual API key, just indicate if it's set
		"api_key_configured": h.cfg.APIKey != "",
	})
}

// GenerateKey generates a new API key
func (h *SetupHandlers) GenerateKey(c *gin.Context) {
	apiKey, err := config.GenerateAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate API key: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_key": apiKey,
	})
}

// SaveKey saves the API key to the .env file
func (h *SetupHandlers) SaveKey(c *gin.Context) {
	var req struct {
		APIKey string `json:"api_key" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: api_key is required",
		})
		return
	}

	if len(req.APIKey) < 32 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "API key must be at least 32 characters",
		})
		return
	}

	if err := h.cfg.SaveAPIKey(req.APIKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save API key: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "API key saved successfully",
		"env_file": h.cfg.EnvFile,
		"note":     "Restart tagdeck to apply the new API key for authentication",
	})
}

// UpdateSettings updates the listing settings and writes them to the .env file
func (h *SetupHandlers) UpdateSettings(c *gin.Context) {
	var req struct {
		ShowUnixHiddenEntries *bool `json:"show_unix_hidden_entries"`
		MaxLoops              *int  `json:"max_loops"`
		UseGenerateThumbnails *bool `json:"use_generate_thumbnails"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request",
		})
		return
	}

	updates := make(map[string]string)

	if req.ShowUnixHiddenEntries != nil {
		h.cfg.ShowUnixHiddenEntries = *req.ShowUnixHiddenEntries
		updates["SHOW_UNIX_HIDDEN_ENTRIES"] = strconv.FormatBool(*req.ShowUnixHiddenEntries)
	}
	if req.MaxLoops != nil {
		if *req.MaxLoops <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_loops must be positive"})
			return
		}
		h.cfg.MaxLoops = *req.MaxLoops
		updates["MAX_LOOPS"] = strconv.Itoa(*req.MaxLoops)
	}
	if req.UseGenerateThumbnails != nil {
		h.cfg.UseGenerateThumbnails = *req.UseGenerateThumbnails
		updates["USE_GENERATE_THUMBNAILS"] = strconv.FormatBool(*req.UseGenerateThumbnails)
	}

	if len(updates) > 0 {
		if err := config.UpdateEnvFile(h.cfg.EnvFile, updates); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to save settings: " + err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                  "Settings updated",
		"show_unix_hidden_entries": h.cfg.ShowUnixHiddenEntries,
		"max_loops":                h.cfg.MaxLoops,
		"use_generate_thumbnails":  h.cfg.UseGenerateThumbnails,
	})
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/system"
)

// AddLocationRequest is the body of POST /api/locations
type AddLocationRequest struct {
	Location location.Location `json:"location"`
	Open     bool              `json:"open"`
	Position *int              `json:"position"`
}

// ListLocations handles GET /api/locations
func (h *Handlers) ListLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locations": h.locations.List(),
		"current":   h.locations.Current(),
		"selected":  h.locations.Selected(),
		"read_only": h.locations.ReadOnlyMode(),
	})
}

// AddLocation handles POST /api/locations
func (h *Handlers) AddLocation(c *gin.Context) {
	var req AddLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Location.Path == "" && len(req.Location.Paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location path is required"})
		return
	}

	position := -1
	if req.Position != nil {
		position = *req.Position
	}
	loc := h.locations.Add(req.Location, req.Open, position)
	c.JSON(http.StatusCreated, loc)
}

// EditLocation handles PUT /api/locations/:id
func (h *Handlers) EditLocation(c *gin.Context) {
	var req struct {
		Location location.Location `json:"location"`
		Open     bool              `json:"open"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Location.UUID = c.Param("id")
	if err := h.locations.Edit(req.Location, req.Open); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	id := req.Location.UUID
	if req.Location.NewUUID != "" {
		id = req.Location.NewUUID
	}
	loc, _ := h.locations.Find(id)
	c.JSON(http.StatusOK, loc)
}

// RemoveLocation handles DELETE /api/locations/:id
func (h *Handlers) RemoveLocation(c *gin.Context) {
	id := c.Param("id")
	if !h.locations.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	if h.storage != nil {
		h.storage.Forget(id)
	}
	c.Status(http.StatusNoContent)
}

// OpenLocation handles POST /api/locations/:id/open. The listing of the
// location root runs before the response is written.
func (h *Handlers) OpenLocation(c *gin.Context) {
	skip := c.Query("skip_initial_list") == "true"
	if !h.locations.OpenByID(c.Param("id"), skip) {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location":  h.locations.Current(),
		"directory": h.content.Snapshot(),
	})
}

// CloseLocation handles POST /api/locations/:id/close
func (h *Handlers) CloseLocation(c *gin.Context) {
	h.locations.Close(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"current": h.locations.Current()})
}

// CloseAllLocations handles POST /api/locations/close-all
func (h *Handlers) CloseAllLocations(c *gin.Context) {
	h.locations.CloseAll()
	c.Status(http.StatusNoContent)
}

// SelectLocation handles POST /api/locations/:id/select
func (h *Handlers) SelectLocation(c *gin.Context) {
	loc, ok := h.locations.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	h.locations.SetSelected(loc)
	c.JSON(http.StatusOK, loc)
}

// GetLocationUsage handles GET /api/locations/:id/usage
func (h *Handlers) GetLocationUsage(c *gin.Context) {
	loc, ok := h.locations.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	if loc.Type != location.TypeLocal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "disk usage is only available for local locations"})
		return
	}

	root, err := location.LocationPath(loc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	usage, err := system.GetUsage(c.Request.Context(), root)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, usage)
}

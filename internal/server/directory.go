package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/platform"
)

// LoadRequest is the body of POST /api/directory/load
type LoadRequest struct {
	Path               string `json:"path" binding:"required"`
	GenerateThumbnails *bool  `json:"generate_thumbnails"`
	LoadMeta           *bool  `json:"load_meta"`
}

// EntryUpdateRequest is the body of PATCH /api/directory/entry
type EntryUpdateRequest struct {
	Path  string               `json:"path" binding:"required"`
	Entry entry.DirectoryEntry `json:"entry"`
}

// MetaUpdateRequest is the body of PUT /api/directory/meta. Nil fields
// are left unchanged.
type MetaUpdateRequest struct {
	Perspective *string                          `json:"perspective"`
	Color       *string                          `json:"color"`
	Description *string                          `json:"description"`
	Files       *[]entry.OrderVisibilitySettings `json:"files"`
	Dirs        *[]entry.OrderVisibilitySettings `json:"dirs"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// GetDirectory handles GET /api/directory
func (h *Handlers) GetDirectory(c *gin.Context) {
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// LoadDirectory handles POST /api/directory/load
func (h *Handlers) LoadDirectory(c *gin.Context) {
	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	err := h.content.LoadDirectoryContent(c.Request.Context(), req.Path,
		boolOr(req.GenerateThumbnails, true), boolOr(req.LoadMeta, true))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// LoadParentDirectory handles POST /api/directory/parent
func (h *Handlers) LoadParentDirectory(c *gin.Context) {
	if err := h.content.LoadParentDirectoryContent(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// OpenCurrentDirectory handles POST /api/directory/open-current
func (h *Handlers) OpenCurrentDirectory(c *gin.Context) {
	if err := h.content.OpenCurrentDirectory(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// ClearDirectory handles DELETE /api/directory
func (h *Handlers) ClearDirectory(c *gin.Context) {
	h.content.ClearDirectoryContent()
	c.Status(http.StatusNoContent)
}

// CancelWalk handles POST /api/directory/cancel
func (h *Handlers) CancelWalk(c *gin.Context) {
	h.content.CancelWalk()
	c.JSON(http.StatusOK, gin.H{"message": "listing canceled"})
}

// UpdateEntry handles PATCH /api/directory/entry
func (h *Handlers) UpdateEntry(c *gin.Context) {
	var req EntryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	h.content.UpdateCurrentDirEntry(req.Path, req.Entry)
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// UpdateEntries handles PUT /api/directory/entries
func (h *Handlers) UpdateEntries(c *gin.Context) {
	var entries []entry.DirectoryEntry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a list of entries"})
		return
	}

	h.content.UpdateCurrentDirEntries(entries)
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// UpdateThumbnails handles PUT /api/directory/thumbnails
func (h *Handlers) UpdateThumbnails(c *gin.Context) {
	var results []platform.ThumbResult
	if err := c.ShouldBindJSON(&results); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a list of thumbnails"})
		return
	}

	h.content.UpdateThumbnailURLs(results)
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// UpdateMeta handles PUT /api/directory/meta. Changes are applied to the
// current directory and persisted to its sidecar file.
func (h *Handlers) UpdateMeta(c *gin.Context) {
	var req MetaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	path := h.content.Path()
	if path == "" {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "no directory is open"})
		return
	}
	if h.locations.ReadOnlyMode() {
		c.JSON(http.StatusForbidden, gin.H{"error": "location is read only"})
		return
	}

	if req.Perspective != nil {
		h.content.SetCurrentDirectoryPerspective(*req.Perspective)
	}
	if req.Color != nil {
		h.content.SetCurrentDirectoryColor(*req.Color)
	}
	if req.Files != nil {
		h.content.SetCurrentDirectoryFiles(*req.Files)
	}
	if req.Dirs != nil {
		h.content.SetCurrentDirectoryDirs(*req.Dirs)
	}

	meta := h.content.Meta()
	if meta == nil {
		meta = &entry.DirectoryMeta{}
	}
	if req.Perspective != nil {
		meta.Perspective = *req.Perspective
	}
	if req.Description != nil {
		meta.Description = *req.Description
	}
	if req.Files != nil || req.Dirs != nil {
		meta.CustomOrder = &entry.CustomOrder{
			Files:   h.content.Files(),
			Folders: h.content.Dirs(),
		}
	}

	if h.meta != nil {
		saved, err := h.meta.SaveDirectoryMeta(c.Request.Context(), path, meta)
		if err != nil {
			respondError(c, err)
			return
		}
		meta = saved
	}
	h.content.SetDirectoryMeta(meta)
	c.JSON(http.StatusOK, h.content.Snapshot())
}

// SetSelection handles PUT /api/directory/selection
func (h *Handlers) SetSelection(c *gin.Context) {
	var req struct {
		Paths []string `json:"paths"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.content.SetSelectedEntries(req.Paths)
	c.JSON(http.StatusOK, gin.H{"selected": req.Paths})
}

// GetHistory handles GET /api/directory/history
func (h *Handlers) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.content.History())
}

// WatchDirectory handles POST /api/directory/watch
func (h *Handlers) WatchDirectory(c *gin.Context) {
	if err := h.content.WatchForChanges(nil); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "watching for changes"})
}

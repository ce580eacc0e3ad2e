package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/search"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware and the auth token
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GetSearch handles GET /api/search
func (h *Handlers) GetSearch(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"search_mode": h.search.IsSearchMode(),
		"query":       h.search.Query(),
		"results":     h.search.Results(),
	})
}

// Search handles POST /api/search. The current entries are filtered and
// search mode is entered.
func (h *Handlers) Search(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	results := h.search.Search(h.content.Entries(), q)
	c.JSON(http.StatusOK, gin.H{
		"search_mode": true,
		"query":       q,
		"results":     results,
	})
}

// ExitSearch handles DELETE /api/search
func (h *Handlers) ExitSearch(c *gin.Context) {
	h.search.Exit()
	c.Status(http.StatusNoContent)
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.notifications.Active())
}

// HideNotifications handles DELETE /api/notifications. Repeated level
// query parameters restrict which levels are hidden.
func (h *Handlers) HideNotifications(c *gin.Context) {
	var levels []notify.Level
	for _, l := range c.QueryArray("level") {
		levels = append(levels, notify.Level(l))
	}
	h.notifications.HideNotifications(levels...)
	c.Status(http.StatusNoContent)
}

// StreamEvents handles GET /api/events (SSE notifications)
func (h *Handlers) StreamEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := h.notifications.Subscribe()
	defer h.notifications.Unsubscribe(events)

	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			data, err := notify.MarshalEvent(e)
			if err != nil {
				return true
			}
			c.SSEvent(e.Type, string(data))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// NotificationSocket handles GET /api/ws. Events are pushed as JSON; the
// client only needs to keep reading so close frames are noticed.
func (h *Handlers) NotificationSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", logging.Err(err))
		return
	}
	defer ws.Close()

	events := h.notifications.Subscribe()
	defer h.notifications.Unsubscribe(events)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logging.Debug("websocket read failed", logging.Err(err))
				}
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteJSON(e); err != nil {
				logging.Debug("websocket write failed", logging.Err(err))
				return
			}
		case <-closed:
			return
		}
	}
}

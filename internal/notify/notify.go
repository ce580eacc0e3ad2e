// Package notify provides the user-facing notification channel: every
// warning, error and progress message goes through one Center, which keeps
// the active set and fans events out to stream subscribers.
package notify

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/metrics"
)

// Level is the severity of a notification
type Level string

const (
	LevelDefault Level = "default"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event types
const (
	EventShow      = "notification"
	EventHide      = "hide"
	EventTruncated = "truncated"
)

// Notification is one message shown to the user
type Notification struct {
	ID       uint64    `json:"id"`
	Message  string    `json:"message"`
	Level    Level     `json:"level"`
	AutoHide bool      `json:"auto_hide"`
	Time     time.Time `json:"time"`
}

// Event is published to subscribers
type Event struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	Levels       []Level       `json:"levels,omitempty"`
	Path         string        `json:"path,omitempty"`
	Timestamp    int64         `json:"timestamp"`
}

const (
	// DefaultAutoHideAfter is how long an auto-hide notification stays active
	DefaultAutoHideAfter = 5 * time.Second
	// MaxActive bounds the active set; the oldest notifications go first
	MaxActive = 20
)

// Center keeps active notifications and publishes changes
type Center struct {
	mu            sync.RWMutex
	active        []Notification
	subscribers   map[chan Event]struct{}
	nextID        atomic.Uint64
	autoHideAfter time.Duration
}

// NewCenter creates an empty notification center
func NewCenter() *Center {
	return &Center{
		subscribers:   make(map[chan Event]struct{}),
		autoHideAfter: DefaultAutoHideAfter,
	}
}

// ShowNotification adds a notification and publishes it. An active
// notification with the same message and level is replaced.
func (c *Center) ShowNotification(message string, level Level, autoHide bool) {
	now := time.Now()
	n := Notification{
		ID:       c.nextID.Add(1),
		Message:  message,
		Level:    level,
		AutoHide: autoHide,
		Time:     now,
	}

	c.mu.Lock()
	kept := c.unexpired(now)
	active := kept[:0]
	for _, a := range kept {
		if a.Message != message || a.Level != level {
			active = append(active, a)
		}
	}
	active = append(active, n)
	if len(active) > MaxActive {
		active = active[len(active)-MaxActive:]
	}
	c.active = active
	c.mu.Unlock()

	metrics.RecordNotification(string(level))
	logging.Debug("notification shown",
		logging.String("level", string(level)),
		logging.String("message", message),
	)
	c.publish(Event{Type: EventShow, Notification: &n})
}

// HideNotifications removes active notifications of the given levels,
// or all of them when no level is given.
func (c *Center) HideNotifications(levels ...Level) {
	c.mu.Lock()
	if len(levels) == 0 {
		c.active = nil
	} else {
		kept := c.active[:0]
		for _, n := range c.active {
			if !hasLevel(levels, n.Level) {
				kept = append(kept, n)
			}
		}
		c.active = kept
	}
	c.mu.Unlock()

	c.publish(Event{Type: EventHide, Levels: levels})
}

// ConfirmTruncated asks the UI to confirm a listing that hit the results limit.
func (c *Center) ConfirmTruncated(path string) {
	c.publish(Event{Type: EventTruncated, Path: path})
}

// Active returns a copy of the active notifications. Expired auto-hide
// notifications are dropped.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = c.unexpired(time.Now())
	return append([]Notification(nil), c.active...)
}

// unexpired filters c.active in place; callers hold c.mu.
func (c *Center) unexpired(now time.Time) []Notification {
	kept := c.active[:0]
	for _, n := range c.active {
		if n.AutoHide && now.Sub(n.Time) >= c.autoHideAfter {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (c *Center) Subscribe() chan Event {
	ch := make(chan Event, 64)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (c *Center) Unsubscribe(ch chan Event) {
	c.mu.Lock()
	if _, ok := c.subscribers[ch]; ok {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.mu.Unlock()
}

// publish never blocks: slow consumers lose events.
func (c *Center) publish(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for ch := range c.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// MarshalEvent serializes an event to JSON.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func hasLevel(levels []Level, l Level) bool {
	for _, x := range levels {
		if x == l {
			return true
		}
	}
	return false
}

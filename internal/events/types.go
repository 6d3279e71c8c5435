// Package events provides the event bus used for scan lifecycle and
// deletion notifications.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Duplicate scan events
	EventScanStarted   EventType = "dupes.scan.started"
	EventScanCompleted EventType = "dupes.scan.completed"
	EventScanFailed    EventType = "dupes.scan.failed"

	// Media events
	EventMediaFileDeleted EventType = "media.file.deleted"
	EventResultsCleared   EventType = "dupes.results.cleared"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler handles a delivered event
type EventHandler func(event Event)

// EventBus delivers events to subscribers asynchronously
type EventBus interface {
	PublishAsync(event Event)
	Subscribe(handler EventHandler, types ...EventType) (unsubscribe func())
	Start() error
	Stop() error
}

// NewSystemEvent creates an event originating from the system itself
func NewSystemEvent(eventType EventType, title, message string) Event {
	return Event{
		Type:      eventType,
		Source:    "system",
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

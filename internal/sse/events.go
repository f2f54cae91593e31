// Package sse implements Server-Sent Events for catalog load progress and live draw updates.
package sse

import (
	"time"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCatalogLoading is sent when a game's dataset starts loading.
	EventCatalogLoading EventType = "catalog.loading"
	// EventCatalogLoaded is sent when a game's dataset finished loading.
	EventCatalogLoaded EventType = "catalog.loaded"
	// EventCatalogError is sent when loading a game's dataset failed.
	EventCatalogError EventType = "catalog.error"

	// EventDrawSlots carries every slot change of a running draw.
	EventDrawSlots EventType = "draw.slots"
	// EventDrawFinished is sent once a draw completed and was saved as a combo.
	EventDrawFinished EventType = "draw.finished"
	// EventDrawStopped is sent when a draw was halted before completing.
	EventDrawStopped EventType = "draw.stopped"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// Topic scopes delivery; empty reaches every client.
	Topic string `json:"-"`
}

// CatalogTopic is the topic of a game's catalog events.
func CatalogTopic(gameCode string) string { return "catalog:" + gameCode }

// DrawTopic is the topic of a draw session's events.
func DrawTopic(drawID string) string { return "draw:" + drawID }

// CatalogEventData is the payload of catalog events.
type CatalogEventData struct {
	GameCode   string               `json:"gameCode"`
	Status     domain.LoadingStatus `json:"status"`
	Error      string               `json:"error,omitempty"`
	UpdateTime string               `json:"updateTime,omitempty"`
	SheetCount int                  `json:"sheetCount,omitempty"`
	FromCache  bool                 `json:"fromCache,omitempty"`
}

// DrawSlot is one slot of a draw as sent to clients. Sheet is nil for an unfilled slot.
type DrawSlot struct {
	Sheet *domain.SheetView `json:"sheet"`
}

// DrawEventData is the payload of draw events.
type DrawEventData struct {
	DrawID  string     `json:"drawId"`
	Slots   []DrawSlot `json:"slots"`
	ComboID string     `json:"comboId,omitempty"`
}

// NewCatalogEvent creates an event scoped to a game's catalog.
func NewCatalogEvent(t EventType, data CatalogEventData) Event {
	return Event{
		Type:      t,
		Data:      data,
		Topic:     CatalogTopic(data.GameCode),
		Timestamp: time.Now(),
	}
}

// NewDrawEvent creates an event scoped to a draw session.
func NewDrawEvent(t EventType, data DrawEventData) Event {
	return Event{
		Type:      t,
		Data:      data,
		Topic:     DrawTopic(data.DrawID),
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      struct{}{},
		Timestamp: time.Now(),
	}
}

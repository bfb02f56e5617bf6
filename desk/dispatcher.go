// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/dispatcher.go
// Summary: Typed event dispatcher connecting the desktop model to its consumers.
// Usage: The persistence pipeline, hosts and UI collaborators subscribe to a Desktop.

package desk

import "sync"

// EventType defines the type of an event.
type EventType int

const (
	// Structural events; each one schedules a full snapshot flush.
	EventItemAdded EventType = iota
	EventItemRemoved
	EventItemChanged
	EventGeometryChanged
	EventZOrderChanged
	EventFolderAbsorbed
	EventPlaybackChanged

	// EventItemMoved is a coordinate-only change from a completed drag.
	EventItemMoved

	// Signals for UI collaborators.
	EventItemSelected
	EventOpenFolder
	EventItemContextMenu
	EventFocusChanged
	EventSaveStatus
	EventShutdownProgress
)

var eventNames = map[EventType]string{
	EventItemAdded:        "item.added",
	EventItemRemoved:      "item.removed",
	EventItemChanged:      "item.changed",
	EventGeometryChanged:  "item.geometry",
	EventZOrderChanged:    "item.zorder",
	EventFolderAbsorbed:   "folder.absorbed",
	EventPlaybackChanged:  "item.playback",
	EventItemMoved:        "item.moved",
	EventItemSelected:     "item.selected",
	EventOpenFolder:       "folder.open",
	EventItemContextMenu:  "item.contextmenu",
	EventFocusChanged:     "media.focus",
	EventSaveStatus:       "save.status",
	EventShutdownProgress: "shutdown.progress",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Structural reports whether the event changes persisted state.
func (t EventType) Structural() bool {
	return t <= EventPlaybackChanged
}

// Event represents a message passed through the system. Payload holds one of
// the payload types below, chosen by Type.
type Event struct {
	Type    EventType
	ItemID  string
	Payload interface{}
}

// MovePayload accompanies EventItemMoved.
type MovePayload struct {
	X, Y float64
}

// AbsorbPayload accompanies EventFolderAbsorbed.
type AbsorbPayload struct {
	FolderID string
	Tab      Tab
}

// ContextMenuPayload accompanies EventItemContextMenu.
type ContextMenuPayload struct {
	X, Y float64
}

// FocusPayload accompanies EventFocusChanged. Previous is empty when no item
// held focus.
type FocusPayload struct {
	Previous string
}

// Listener is an interface that any component can implement to receive events.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener. Function values are not
// comparable, so a ListenerFunc cannot be passed to Unsubscribe.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(event Event) { f(event) }

// EventDispatcher manages a list of listeners and broadcasts events to them.
type EventDispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewEventDispatcher creates a new dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		listeners: make([]Listener, 0),
	}
}

// Subscribe adds a new listener to receive events.
func (d *EventDispatcher) Subscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// Unsubscribe removes a listener.
func (d *EventDispatcher) Unsubscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, l := range d.listeners {
		if l == listener {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			break
		}
	}
}

// Broadcast sends an event to all subscribed listeners. The listener slice is
// copied first so listeners may subscribe or unsubscribe from OnEvent.
func (d *EventDispatcher) Broadcast(event Event) {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(event)
	}
}

// Package app holds the shared application state and event bus. Tool
// selection and the tool panel flag are process-wide; each surface keeps its
// own annotation store and controller.
package app

import (
	"sync"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/interaction"
)

// State is the cross-surface application state.
type State struct {
	mu sync.RWMutex

	activeTool       interaction.Tool
	toolPanelVisible bool
	activeSurfaceID  string
	defaultStyle     annotation.Style

	listeners map[EventType][]EventListener
}

// EventType identifies application events.
type EventType int

const (
	EventToolChanged EventType = iota
	EventToolPanelToggled
	EventActiveSurfaceChanged
	EventContextChanged
	EventStyleChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates the application state with the select tool active and the
// tool panel hidden.
func NewState() *State {
	return &State{
		activeTool:   interaction.ToolSelect,
		defaultStyle: annotation.DefaultStyle,
		listeners:    make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// ActiveTool returns the tool shared by every surface.
func (s *State) ActiveTool() interaction.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTool
}

// SetActiveTool changes the shared tool and notifies listeners.
func (s *State) SetActiveTool(tool interaction.Tool) {
	s.mu.Lock()
	if s.activeTool == tool {
		s.mu.Unlock()
		return
	}
	s.activeTool = tool
	s.mu.Unlock()
	s.Emit(EventToolChanged, tool)
}

// ToolPanelVisible reports whether the tool panel is shown.
func (s *State) ToolPanelVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolPanelVisible
}

// SetToolPanelVisible toggles the tool panel across all surfaces.
func (s *State) SetToolPanelVisible(visible bool) {
	s.mu.Lock()
	if s.toolPanelVisible == visible {
		s.mu.Unlock()
		return
	}
	s.toolPanelVisible = visible
	s.mu.Unlock()
	s.Emit(EventToolPanelToggled, visible)
}

// ActiveSurfaceID returns the surface currently active for drawing.
func (s *State) ActiveSurfaceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSurfaceID
}

// ActivateSurface marks one surface active for drawing. Returns false when it
// already was, so callers can tell an activation click from a drawing click.
func (s *State) ActivateSurface(id string) bool {
	s.mu.Lock()
	if s.activeSurfaceID == id {
		s.mu.Unlock()
		return false
	}
	s.activeSurfaceID = id
	s.mu.Unlock()
	s.Emit(EventActiveSurfaceChanged, id)
	return true
}

// DefaultStyle returns the creation defaults for new annotations.
func (s *State) DefaultStyle() annotation.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultStyle
}

// SetDefaultStyle replaces the creation defaults and notifies listeners.
func (s *State) SetDefaultStyle(style annotation.Style) {
	s.mu.Lock()
	s.defaultStyle = style
	s.mu.Unlock()
	s.Emit(EventStyleChanged, style)
}

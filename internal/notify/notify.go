// Package notify surfaces engine events to the user: one-shot toasts for
// terminal errors and completions, and sticky notices for degraded states.
package notify

import (
	"sync"

	"github.com/KaliDrag0n/ContentReaper/internal/logger"
)

const component = "Notify"

// Level classifies a notice for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one user-visible message. Sticky notices stay up until resolved;
// a Notice with Resolved set clears the sticky notice sharing its Key.
type Notice struct {
	Level    Level
	Message  string
	Sticky   bool
	Key      string
	Resolved bool
}

// Handler receives notices. Handlers must not block; the emitter calls them
// inline from the engine loop.
type Handler func(Notice)

// Emitter fans notices out to subscribers and mirrors them to the log.
type Emitter struct {
	mu       sync.Mutex
	handlers []Handler
	sticky   map[string]Notice
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{sticky: make(map[string]Notice)}
}

// Subscribe registers a handler for all future notices. Any active sticky
// notices are delivered immediately so a late subscriber sees them.
func (e *Emitter) Subscribe(h Handler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, h)
	pending := make([]Notice, 0, len(e.sticky))
	for _, n := range e.sticky {
		pending = append(pending, n)
	}
	e.mu.Unlock()

	for _, n := range pending {
		h(n)
	}
}

// Info emits a passive informational notice.
func (e *Emitter) Info(message string) {
	e.emit(Notice{Level: LevelInfo, Message: message})
}

// Success emits a completion notice.
func (e *Emitter) Success(message string) {
	e.emit(Notice{Level: LevelSuccess, Message: message})
}

// Warning emits a non-blocking warning.
func (e *Emitter) Warning(message string) {
	e.emit(Notice{Level: LevelWarning, Message: message})
}

// Error emits a terminal error notice.
func (e *Emitter) Error(message string) {
	e.emit(Notice{Level: LevelError, Message: message})
}

// StickyWarning raises a keyed persistent notice. Emitting the same key
// again replaces the message instead of stacking.
func (e *Emitter) StickyWarning(key, message string) {
	n := Notice{Level: LevelWarning, Message: message, Sticky: true, Key: key}
	e.mu.Lock()
	e.sticky[key] = n
	e.mu.Unlock()
	e.emit(n)
}

// Resolve clears a sticky notice. Resolving an unknown key is a no-op.
func (e *Emitter) Resolve(key string) {
	e.mu.Lock()
	_, known := e.sticky[key]
	delete(e.sticky, key)
	e.mu.Unlock()
	if !known {
		return
	}
	e.emit(Notice{Level: LevelInfo, Key: key, Resolved: true})
}

func (e *Emitter) emit(n Notice) {
	switch n.Level {
	case LevelError:
		logger.Errorf(component, "%s", n.Message)
	case LevelWarning:
		logger.Warnf(component, "%s", n.Message)
	default:
		if !n.Resolved {
			logger.Infof(component, "%s", n.Message)
		}
	}

	e.mu.Lock()
	handlers := append([]Handler(nil), e.handlers...)
	e.mu.Unlock()
	for _, h := range handlers {
		h(n)
	}
}

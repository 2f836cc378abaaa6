package engine

import (
	"sync"

	"github.com/kozaktomas/photo-cleaner/internal/constants"
)

// EventType identifies an engine event.
type EventType string

// Event types emitted during a run.
const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
	EventFailed    EventType = "failed"
)

// Event is sent to listeners whenever the engine's state or progress changes.
type Event struct {
	Type     EventType `json:"type"`
	Progress float64   `json:"progress"`
	Message  string    `json:"message,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventCancelled || e.Type == EventFailed
}

// broadcaster fans events out to listener channels.
type broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

func (b *broadcaster) addListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

func (b *broadcaster) removeListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// send delivers an event without blocking. Progress events are dropped for
// listeners with a full buffer; terminal events displace the oldest queued event.
func (b *broadcaster) send(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
			continue
		default:
		}
		if !event.Terminal() {
			continue
		}
		select {
		case <-listener:
		default:
		}
		select {
		case listener <- event:
		default:
		}
	}
}

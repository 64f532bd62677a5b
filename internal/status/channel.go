// Package status carries the human-readable outcome of every command to the
// log, a bounded history and any live subscribers.
package status

import (
	"sync"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
)

// Outcomes
const (
	StatusOK    = "ok"
	StatusError = "error"
)

const (
	DefaultHistory   = 100
	subscriberBuffer = 32
)

// Event is one status update
type Event struct {
	ID      string         `json:"id"`
	Command string         `json:"command"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Result  map[string]any `json:"result,omitempty"`
	Time    time.Time      `json:"time"`
}

// Channel fans events out. Slow subscribers lose events rather than block
// the dispatcher.
type Channel struct {
	mu          sync.Mutex
	history     []Event
	limit       int
	subscribers map[int]chan Event
	nextSub     int
	dropped     int64
}

// NewChannel keeps the last limit events
func NewChannel(limit int) *Channel {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Channel{
		limit:       limit,
		subscribers: make(map[int]chan Event),
	}
}

// logFields identifies the command and, on failure, its error kind
func logFields(e Event) logger.Fields {
	fields := logger.WithCommand(e.ID, e.Command)
	if e.Status == StatusError {
		if kind, ok := e.Result["error_kind"]; ok {
			fields["error_kind"] = kind
		}
	}
	return fields
}

// Emit records e and delivers it to subscribers
func (c *Channel) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	if e.Status == StatusError {
		logger.Warn(e.Message, logFields(e))
	} else {
		logger.Info(e.Message, logFields(e))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, e)
	if len(c.history) > c.limit {
		c.history = append([]Event(nil), c.history[len(c.history)-c.limit:]...)
	}
	for _, sub := range c.subscribers {
		select {
		case sub <- e:
		default:
			c.dropped++
		}
	}
}

// Subscribe returns a stream of future events and a cancel func that
// closes it
func (c *Channel) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, subscriberBuffer)
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			close(ch)
		})
	}
}

// History returns the retained events, oldest first
func (c *Channel) History() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.history...)
}

// Last returns the most recent event
func (c *Channel) Last() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return Event{}, false
	}
	return c.history[len(c.history)-1], true
}

// Dropped counts events not delivered to a full subscriber
func (c *Channel) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

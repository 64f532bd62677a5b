package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/status"
	"github.com/gin-gonic/gin"
)

type EventsHandler struct {
	channel   *status.Channel
	heartbeat time.Duration
}

func NewEventsHandler(channel *status.Channel) *EventsHandler {
	return &EventsHandler{channel: channel, heartbeat: eventHeartbeat}
}

// Stream sends retained status events, then live ones, as server-sent
// events until the client goes away. ?replay=false skips the history.
func (h *EventsHandler) Stream(c *gin.Context) {
	live, cancel := h.channel.Subscribe()
	defer cancel()

	var backlog []status.Event
	if c.DefaultQuery("replay", "true") != "false" {
		backlog = h.channel.History()
	}
	seen := make(map[string]bool, len(backlog))
	for _, ev := range backlog {
		seen[ev.ID] = true
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	logger.Debug("Event stream opened", logger.Fields{
		"request_id": c.GetString("request_id"),
		"replayed":   len(backlog),
	})

	c.Stream(func(w io.Writer) bool {
		if len(backlog) > 0 {
			c.SSEvent(eventStatus, backlog[0])
			backlog = backlog[1:]
			return true
		}
		select {
		case ev, ok := <-live:
			if !ok {
				return false
			}
			if seen[ev.ID] {
				delete(seen, ev.ID)
				return true
			}
			c.SSEvent(eventStatus, ev)
			return true
		case <-ticker.C:
			c.SSEvent(eventPing, gin.H{"time": time.Now().UTC().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Recent returns the retained history as JSON
func (h *EventsHandler) Recent(c *gin.Context) {
	events := h.channel.History()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(events),
		"dropped": h.channel.Dropped(),
		"events":  events,
	})
}

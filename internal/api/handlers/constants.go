package handlers

import "time"

const (
	// Maximum time a single command request waits for its reply
	commandTimeout = 30 * time.Second

	// Keep-alive interval on the event stream
	eventHeartbeat = 15 * time.Second

	// Event names on the SSE stream
	eventStatus = "status"
	eventPing   = "ping"

	errorUsage = "usage"
)

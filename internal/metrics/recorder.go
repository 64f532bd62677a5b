package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Recorder fans command and collaborator measurements out to Sentry and
// CloudWatch and keeps in-process counters for the metrics endpoint.
// A nil *Recorder is a valid no-op.
type Recorder struct {
	sentry *SentryMetrics
	cloud  *Client

	mu            sync.Mutex
	commands      map[string]*CommandStats
	collaborators map[string]*CollaboratorStats
	started       time.Time
}

// CommandStats aggregates outcomes of one command name
type CommandStats struct {
	Count        int64            `json:"count"`
	Errors       int64            `json:"errors"`
	ErrorKinds   map[string]int64 `json:"error_kinds,omitempty"`
	TotalLatency time.Duration    `json:"-"`
	AvgLatencyMs float64          `json:"avg_latency_ms"`
}

// CollaboratorStats aggregates calls to one collaborator
type CollaboratorStats struct {
	Calls        int64         `json:"calls"`
	Failures     int64         `json:"failures"`
	TotalLatency time.Duration `json:"-"`
	AvgLatencyMs float64       `json:"avg_latency_ms"`
}

// Snapshot is the JSON shape served by the metrics endpoint
type Snapshot struct {
	UptimeSeconds int64                        `json:"uptime_seconds"`
	Commands      map[string]CommandStats      `json:"commands"`
	Collaborators map[string]CollaboratorStats `json:"collaborators"`
	TopCommands   []string                     `json:"top_commands"`
}

// NewRecorder builds a Recorder; either backend may be nil
func NewRecorder(sentry *SentryMetrics, cloud *Client) *Recorder {
	return &Recorder{
		sentry:        sentry,
		cloud:         cloud,
		commands:      make(map[string]*CommandStats),
		collaborators: make(map[string]*CollaboratorStats),
		started:       time.Now(),
	}
}

// RecordCommand records a dispatched command; errorKind is empty on success
func (r *Recorder) RecordCommand(ctx context.Context, command, errorKind string, duration time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats, ok := r.commands[command]
	if !ok {
		stats = &CommandStats{}
		r.commands[command] = stats
	}
	stats.Count++
	stats.TotalLatency += duration
	if errorKind != "" {
		stats.Errors++
		if stats.ErrorKinds == nil {
			stats.ErrorKinds = make(map[string]int64)
		}
		stats.ErrorKinds[errorKind]++
	}
	r.mu.Unlock()

	if r.sentry != nil {
		r.sentry.RecordCommand(ctx, command, errorKind, duration)
	}
	if r.cloud != nil {
		r.cloud.RecordCommand(command, errorKind, duration)
	}
}

// RecordCollaboratorCall records a request to a collaborator service
func (r *Recorder) RecordCollaboratorCall(ctx context.Context, collaborator string, duration time.Duration, success bool) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats, ok := r.collaborators[collaborator]
	if !ok {
		stats = &CollaboratorStats{}
		r.collaborators[collaborator] = stats
	}
	stats.Calls++
	stats.TotalLatency += duration
	if !success {
		stats.Failures++
	}
	r.mu.Unlock()

	if r.sentry != nil {
		r.sentry.RecordCollaboratorCall(ctx, collaborator, duration, success)
	}
	if r.cloud != nil {
		r.cloud.RecordCollaboratorCall(collaborator, duration, success)
	}
}

// RecordAPIRequest records an HTTP request on the command surface
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
	if r.cloud != nil {
		r.cloud.RecordAPIRequest(endpoint, statusCode, duration)
	}
}

// Snapshot copies the current counters
func (r *Recorder) Snapshot() Snapshot {
	snap := Snapshot{
		Commands:      map[string]CommandStats{},
		Collaborators: map[string]CollaboratorStats{},
		TopCommands:   []string{},
	}
	if r == nil {
		return snap
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap.UptimeSeconds = int64(time.Since(r.started).Seconds())
	for name, stats := range r.commands {
		c := *stats
		if c.ErrorKinds != nil {
			c.ErrorKinds = make(map[string]int64, len(stats.ErrorKinds))
			for k, v := range stats.ErrorKinds {
				c.ErrorKinds[k] = v
			}
		}
		if c.Count > 0 {
			c.AvgLatencyMs = float64(c.TotalLatency.Milliseconds()) / float64(c.Count)
		}
		snap.Commands[name] = c
		snap.TopCommands = append(snap.TopCommands, name)
	}
	for name, stats := range r.collaborators {
		c := *stats
		if c.Calls > 0 {
			c.AvgLatencyMs = float64(c.TotalLatency.Milliseconds()) / float64(c.Calls)
		}
		snap.Collaborators[name] = c
	}

	sort.Slice(snap.TopCommands, func(i, j int) bool {
		a, b := snap.Commands[snap.TopCommands[i]], snap.Commands[snap.TopCommands[j]]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return snap.TopCommands[i] < snap.TopCommands[j]
	})
	const maxTop = 10
	if len(snap.TopCommands) > maxTop {
		snap.TopCommands = snap.TopCommands[:maxTop]
	}
	return snap
}

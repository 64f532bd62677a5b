package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/metrics"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/Conceptual-Machines/stagehand/internal/status"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	startTime time.Time
	version   string
	recorder  *metrics.Recorder
	access    *remote.Access
	events    *status.Channel
}

func NewMetricsHandler(version string, recorder *metrics.Recorder, access *remote.Access, events *status.Channel) *MetricsHandler {
	return &MetricsHandler{
		startTime: time.Now(),
		version:   version,
		recorder:  recorder,
		access:    access,
		events:    events,
	}
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
)

// formatUptime formats the uptime duration with seconds rounded to 2 decimal places
func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % secondsPerMinute
	seconds := d.Seconds() - float64(hours*secondsPerHour) - float64(minutes*secondsPerMinute)

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%.2fs", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%.2fs", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", seconds)
}

type MetricsResponse struct {
	Status    string           `json:"status"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version"`
	StartTime string           `json:"start_time"`
	System    SystemMetrics    `json:"system"`
	Remote    RemoteMetrics    `json:"remote"`
	Dispatch  metrics.Snapshot `json:"dispatch"`
}

type SystemMetrics struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
	MemTotalMB   uint64 `json:"mem_total_mb"`
	NumGC        uint32 `json:"num_gc"`
}

// RemoteMetrics describes traffic to the host object graph
type RemoteMetrics struct {
	Calls         int64 `json:"calls"`
	CachedEntries int   `json:"cached_entries"`
	CacheTTLMs    int64 `json:"cache_ttl_ms"`
	EventsDropped int64 `json:"events_dropped"`
}

const (
	bytesToMB = 1024 * 1024
)

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	resp := MetricsResponse{
		Status:    "healthy",
		Uptime:    formatUptime(uptime),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		StartTime: h.startTime.UTC().Format(time.RFC3339),
		System: SystemMetrics{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAllocMB:   m.Alloc / bytesToMB,
			MemTotalMB:   m.TotalAlloc / bytesToMB,
			NumGC:        m.NumGC,
		},
		Dispatch: h.recorder.Snapshot(),
	}
	if h.access != nil {
		resp.Remote.Calls = h.access.Calls()
		resp.Remote.CachedEntries = h.access.Cache().Len()
		resp.Remote.CacheTTLMs = h.access.Cache().TTL().Milliseconds()
	}
	if h.events != nil {
		resp.Remote.EventsDropped = h.events.Dropped()
	}

	c.JSON(http.StatusOK, resp)
}

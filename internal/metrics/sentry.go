package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics records spans for requests, commands and collaborator calls
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics returns span recording; disabled when Sentry is not set up
func NewSentryMetrics(enabled bool) *SentryMetrics {
	return &SentryMetrics{enabled: enabled}
}

// RecordAPIRequest records one HTTP request on the command surface
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	ok := statusCode < http.StatusBadRequest
	m.span(ctx, "api.request", "API Request: "+endpoint, ok, sentry.SpanStatusInternalError, duration, map[string]string{
		"endpoint":    endpoint,
		"status_code": strconv.Itoa(statusCode),
	})
}

// RecordCommand records one dispatched command. errorKind is empty on success.
func (m *SentryMetrics) RecordCommand(ctx context.Context, command, errorKind string, duration time.Duration) {
	tags := map[string]string{"command": command}
	if errorKind != "" {
		tags["error_kind"] = errorKind
	}
	m.span(ctx, "command.dispatch", "Command: "+command, errorKind == "", sentry.SpanStatusInternalError, duration, tags)
}

// RecordCollaboratorCall records a generation, catalog or NLP request
func (m *SentryMetrics) RecordCollaboratorCall(ctx context.Context, collaborator string, duration time.Duration, success bool) {
	m.span(ctx, "collaborator.request", "Collaborator Request: "+collaborator, success, sentry.SpanStatusDeadlineExceeded, duration, map[string]string{
		"collaborator": collaborator,
	})
}

func (m *SentryMetrics) span(ctx context.Context, op, description string, ok bool, failed sentry.SpanStatus, duration time.Duration, tags map[string]string) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, op)
	defer span.Finish()

	span.Description = description
	for k, v := range tags {
		span.SetTag(k, v)
	}
	span.SetTag("success", strconv.FormatBool(ok))
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	if !ok {
		span.Status = failed
	}
}

package logger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// level maps a log prefix to its Sentry breadcrumb
type level struct {
	prefix    string
	crumbType string
	sentryLvl sentry.Level
}

var (
	levelDebug = level{"DEBUG", "debug", sentry.LevelDebug}
	levelInfo  = level{"INFO", "info", sentry.LevelInfo}
	levelWarn  = level{"WARN", "warning", sentry.LevelWarning}
)

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
	if operator := c.GetString("user_id_str"); operator != "" {
		fields["operator"] = operator
	}
	return fields
}

// WithCommand returns fields identifying one dispatched command
func WithCommand(id, command string) Fields {
	return Fields{
		"command_id": id,
		"command":    command,
	}
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	emit(levelDebug, msg, fields)
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	emit(levelInfo, msg, fields)
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	emit(levelWarn, msg, fields)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %v", msg, err, formatFields(fields))
	withScope(fields, func(hub *sentry.Hub, _ *sentry.Scope) {
		hub.CaptureException(err)
	})
}

// LogToSentry sends a log message directly to Sentry as an event
func LogToSentry(lvl sentry.Level, msg string, fields Fields) {
	withScope(fields, func(hub *sentry.Hub, scope *sentry.Scope) {
		scope.SetLevel(lvl)
		hub.CaptureMessage(msg)
	})
}

// LogCollaboratorCall logs a request to the generation, catalog or NLP service
func LogCollaboratorCall(ctx context.Context, collaborator string, duration time.Duration, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["collaborator"] = collaborator
	fields["duration_ms"] = duration.Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		Warn("Collaborator request failed", fields)
	} else {
		Info("Collaborator request completed", fields)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		span := sentry.StartSpan(ctx, "collaborator."+collaborator)
		span.SetData("duration_ms", duration.Milliseconds())
		span.Finish()
	}
}

func emit(l level, msg string, fields Fields) {
	log.Printf("[%s] %s %v", l.prefix, msg, formatFields(fields))

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     l.crumbType,
			Category: "log",
			Message:  msg,
			Data:     map[string]interface{}(cloneFields(fields)),
			Level:    l.sentryLvl,
		})
	}
}

// withScope runs fn with fields attached as Sentry contexts and the
// request and command ids promoted to tags
func withScope(fields Fields, fn func(hub *sentry.Hub, scope *sentry.Scope)) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range fields {
			scope.SetContext(key, map[string]interface{}{"value": value})
		}
		for _, tag := range []string{"request_id", "command", "command_id"} {
			if v, ok := fields[tag].(string); ok && v != "" {
				scope.SetTag(tag, v)
			}
		}
		fn(hub, scope)
	})
}

// formatFields renders fields as {k=v, ...} in key order
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func cloneFields(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

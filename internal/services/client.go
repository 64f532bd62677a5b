// Package services holds the HTTP clients for the collaborator services:
// content generation, the sample catalog and the NLP fallback.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/metrics"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBody    = 512
	contentTypeJSON = "application/json"
)

// collaborator is the transport shared by every client: one bounded request,
// JSON in and out, with every failure typed as a remote.Error.
type collaborator struct {
	name     string
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	recorder *metrics.Recorder
}

// Option customises a collaborator client
type Option func(*collaborator)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(col *collaborator) {
		col.http = c
	}
}

// WithRecorder reports call latency and failures to r
func WithRecorder(r *metrics.Recorder) Option {
	return func(col *collaborator) {
		col.recorder = r
	}
}

func newCollaborator(name, baseURL string, timeout time.Duration, opts []Option) collaborator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := collaborator{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// do sends one request bounded by the collaborator timeout and decodes the
// JSON body into out. Transport errors, timeouts and 5xx are CONNECTION.
func (c *collaborator) do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, body, out)
	duration := time.Since(start)

	c.recorder.RecordCollaboratorCall(ctx, c.name, duration, err == nil)
	logger.LogCollaboratorCall(ctx, c.name, duration, err, logger.Fields{"method": method, "path": path})
	return err
}

func (c *collaborator) roundTrip(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return &remote.Error{Kind: remote.KindConnection, Op: c.name, Message: c.name + " service is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", c.name, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.connectionError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 5xx means the service is down. Without a body to decode (health
	// probes) any non-2xx reply counts as down too.
	failed := resp.StatusCode >= http.StatusInternalServerError
	if out == nil {
		failed = resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices
	}
	if failed {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &remote.Error{
			Kind:    remote.KindConnection,
			Op:      c.name,
			Message: fmt.Sprintf("%s service returned %d: %s", c.name, resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return c.connectionError(ctx, err)
		}
		return &remote.Error{
			Kind:    remote.KindUnknown,
			Op:      c.name,
			Message: fmt.Sprintf("invalid %s response (HTTP %d)", c.name, resp.StatusCode),
			Err:     err,
		}
	}
	return nil
}

func (c *collaborator) connectionError(ctx context.Context, err error) error {
	// cancellation by the caller is not a connectivity problem
	if errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	msg := c.name + " service unreachable"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg = fmt.Sprintf("%s service timed out after %v", c.name, c.timeout)
	}
	return &remote.Error{Kind: remote.KindConnection, Op: c.name, Message: msg, Err: err}
}

// rejected is returned when the collaborator answered with status "error"
func (c *collaborator) rejected(message string) error {
	if message == "" {
		message = "request rejected"
	}
	return &remote.Error{Kind: remote.KindState, Op: c.name, Message: message}
}

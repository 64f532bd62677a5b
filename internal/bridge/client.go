package bridge

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

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

const defaultCallTimeout = 5 * time.Second

// Client is a remote.Graph backed by a host bridge
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a client for the bridge at baseURL
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: defaultCallTimeout,
	}
}

// Lookup implements remote.Graph
func (c *Client) Lookup(ctx context.Context, path string) (remote.Object, error) {
	if _, err := c.post(ctx, "/lookup", LookupRequest{Path: path}); err != nil {
		return nil, err
	}
	return &object{client: c, ctx: ctx, path: path}, nil
}

// Ping checks that the bridge answers for the session root
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Lookup(ctx, remote.Root)
	return err
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bridge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, err
		}
		return nil, &remote.Error{Kind: remote.KindConnection, Op: endpoint, Message: "host bridge unreachable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &remote.Error{
			Kind:    remote.KindTransient,
			Op:      endpoint,
			Message: fmt.Sprintf("host bridge returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &remote.Error{Kind: remote.KindUnknown, Op: endpoint, Message: "invalid bridge response", Err: err}
	}
	if out.Status != "ok" {
		kind := out.Kind
		if kind == remote.KindUnknown && out.Error == "" {
			out.Error = "bridge call failed"
		}
		return nil, &remote.Error{Kind: kind, Op: endpoint, Message: out.Error}
	}
	return out.Result, nil
}

// object is a handle on a bridged path. The lookup context bounds every
// operation made through the handle.
type object struct {
	client *Client
	ctx    context.Context
	path   string
}

func (o *object) Path() string {
	return o.path
}

func (o *object) Get(prop string) (any, error) {
	return o.client.post(o.ctx, "/call", CallRequest{Path: o.path, Op: OpGet, Name: prop})
}

func (o *object) Set(prop string, value any) error {
	_, err := o.client.post(o.ctx, "/call", CallRequest{Path: o.path, Op: OpSet, Name: prop, Args: []any{value}})
	return err
}

func (o *object) Call(method string, args ...any) (any, error) {
	return o.client.post(o.ctx, "/call", CallRequest{Path: o.path, Op: OpCall, Name: method, Args: args})
}

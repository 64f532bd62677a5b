package remote

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
)

// Operation runs against a resolved object. obj is nil when the path did not
// resolve and the call was not marked Required.
type Operation func(obj Object) (any, error)

// CallOptions controls a single RemoteAccess call
type CallOptions struct {
	Name         string // label used in logs and errors
	Required     bool   // fail with INVALID_PATH when the path does not resolve
	ThrowOnError bool   // when false, failures are logged and (nil, nil) is returned
}

// WriteOptions controls a mutating call
type WriteOptions struct {
	Name string
	// Idempotent writes are wrapped in the retry policy; creations are not,
	// since a retried creation duplicates the object
	Idempotent bool
	// Invalidate lists extra prefixes to drop besides the written path
	Invalidate []string
}

// Access wraps the host's remote-call primitive. It validates existence,
// classifies failures and keeps the state cache coherent. Cached reads and
// writes flagged WriteOptions.Idempotent go through the retry policy; plain
// Calls never retry.
type Access struct {
	graph Graph
	cache *StateCache
	retry RetryPolicy
	calls atomic.Int64
}

// NewAccess creates the access layer over graph
func NewAccess(graph Graph, cache *StateCache, retry RetryPolicy) *Access {
	if cache == nil {
		cache = NewStateCache(DefaultCacheTTL)
	}
	return &Access{
		graph: graph,
		cache: cache,
		retry: retry,
	}
}

// Cache exposes the state cache
func (a *Access) Cache() *StateCache {
	return a.cache
}

// RetryPolicy returns the policy used for reads and idempotent writes
func (a *Access) RetryPolicy() RetryPolicy {
	return a.retry
}

// Calls returns how many remote calls were attempted
func (a *Access) Calls() int64 {
	return a.calls.Load()
}

// Call resolves path and runs op against it
func (a *Access) Call(ctx context.Context, path string, op Operation, opts CallOptions) (any, error) {
	a.calls.Add(1)

	result, err := a.call(ctx, path, op, opts)
	if err == nil {
		return result, nil
	}

	class := Classify(err)
	fields := logger.Fields{
		"path":      path,
		"operation": opts.Name,
		"kind":      class.Kind.String(),
	}
	if class.Kind == KindUnknown {
		logger.Error("Remote call failed", err, fields)
	} else {
		logger.Debug("Remote call failed: "+err.Error(), fields)
	}

	if !opts.ThrowOnError {
		return nil, nil
	}
	return nil, err
}

func (a *Access) call(ctx context.Context, path string, op Operation, opts CallOptions) (any, error) {
	obj, err := a.graph.Lookup(ctx, path)
	if err != nil {
		var remoteErr *Error
		notFound := errors.As(err, &remoteErr) && remoteErr.Kind == KindInvalidPath
		if !notFound || opts.Required {
			return nil, annotate(err, opts.Name, path)
		}
		obj = nil
	}

	result, err := op(obj)
	if err != nil {
		return nil, annotate(err, opts.Name, path)
	}
	return result, nil
}

// Read is a cached, required read of one facet of path. A cache miss is
// retried on TRANSIENT failures; failures are never cached.
func (a *Access) Read(ctx context.Context, path, facet string, op Operation) (any, error) {
	return a.cache.Get(CacheKey(path, facet), func() (any, error) {
		return Retry(ctx, a.retry, func() (any, error) {
			return a.Call(ctx, path, op, CallOptions{Name: facet, Required: true, ThrowOnError: true})
		})
	})
}

// Get is Read of a single property
func (a *Access) Get(ctx context.Context, path, prop string) (any, error) {
	return a.Read(ctx, path, prop, func(obj Object) (any, error) {
		return obj.Get(prop)
	})
}

// Write runs a mutating op against path and invalidates every cache entry
// under it once the host has been called.
func (a *Access) Write(ctx context.Context, path string, op Operation, opts WriteOptions) (any, error) {
	call := func() (any, error) {
		return a.Call(ctx, path, op, CallOptions{Name: opts.Name, Required: true, ThrowOnError: true})
	}

	var (
		result any
		err    error
	)
	if opts.Idempotent {
		result, err = Retry(ctx, a.retry, call)
	} else {
		result, err = call()
	}

	a.cache.Invalidate(path)
	for _, prefix := range opts.Invalidate {
		a.cache.Invalidate(prefix)
	}
	return result, err
}

// Set is an idempotent Write of a single property
func (a *Access) Set(ctx context.Context, path, prop string, value any) error {
	_, err := a.Write(ctx, path, func(obj Object) (any, error) {
		return nil, obj.Set(prop, value)
	}, WriteOptions{Name: "set " + prop, Idempotent: true})
	return err
}

// Exists reports whether path resolves, without caching
func (a *Access) Exists(ctx context.Context, path string) bool {
	v, _ := a.Call(ctx, path, func(obj Object) (any, error) {
		return obj != nil, nil
	}, CallOptions{Name: "exists"})
	exists, _ := v.(bool)
	return exists
}

// annotate fills in op and path on typed errors that lack them and wraps
// untyped errors as UNKNOWN
func annotate(err error, name, path string) error {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		if remoteErr.Path == "" || remoteErr.Op == "" {
			annotated := *remoteErr
			if annotated.Path == "" {
				annotated.Path = path
			}
			if annotated.Op == "" {
				annotated.Op = name
			}
			return &annotated
		}
		return err
	}
	if Classify(err).Kind != KindUnknown || errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{Kind: KindUnknown, Op: name, Path: path, Err: err}
}

package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObject struct {
	path  string
	props map[string]any
	err   error
}

func (o *stubObject) Path() string { return o.path }

func (o *stubObject) Get(prop string) (any, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.props[prop], nil
}

func (o *stubObject) Set(prop string, value any) error {
	if o.err != nil {
		return o.err
	}
	o.props[prop] = value
	return nil
}

func (o *stubObject) Call(method string, _ ...any) (any, error) {
	return method, o.err
}

type stubGraph struct {
	objects map[string]*stubObject
	lookups int
}

func (g *stubGraph) Lookup(_ context.Context, path string) (Object, error) {
	g.lookups++
	obj, ok := g.objects[path]
	if !ok {
		return nil, &Error{Kind: KindInvalidPath, Path: path, Message: "no such object"}
	}
	return obj, nil
}

func newStubAccess() (*Access, *stubGraph) {
	graph := &stubGraph{objects: map[string]*stubObject{
		"live_set tracks 0": {path: "live_set tracks 0", props: map[string]any{"volume": 0.85}},
	}}
	policy := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
	return NewAccess(graph, NewStateCache(time.Minute), policy), graph
}

func TestAccessRequiredMissingObject(t *testing.T) {
	access, _ := newStubAccess()
	_, err := access.Call(context.Background(), "live_set tracks 9", func(obj Object) (any, error) {
		return obj.Get("volume")
	}, CallOptions{Name: "volume", Required: true, ThrowOnError: true})

	require.Error(t, err)
	assert.Equal(t, KindInvalidPath, Classify(err).Kind)
}

func TestAccessOptionalMissingObjectPassesNil(t *testing.T) {
	access, _ := newStubAccess()
	v, err := access.Call(context.Background(), "live_set tracks 9", func(obj Object) (any, error) {
		return obj == nil, nil
	}, CallOptions{Name: "probe", ThrowOnError: true})

	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.False(t, access.Exists(context.Background(), "live_set tracks 9"))
	assert.True(t, access.Exists(context.Background(), "live_set tracks 0"))
}

func TestAccessSwallowsErrorsWithoutThrow(t *testing.T) {
	access, _ := newStubAccess()
	v, err := access.Call(context.Background(), "live_set tracks 0", func(Object) (any, error) {
		return nil, Errorf(KindPermission, "read only")
	}, CallOptions{Name: "set"})

	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestAccessWrapsUntypedErrorsAsUnknown(t *testing.T) {
	access, _ := newStubAccess()
	_, err := access.Call(context.Background(), "live_set tracks 0", func(Object) (any, error) {
		return nil, errors.New("something odd")
	}, CallOptions{Name: "odd", ThrowOnError: true})

	class := Classify(err)
	assert.Equal(t, KindUnknown, class.Kind)
	assert.False(t, class.Retryable)
	assert.Contains(t, err.Error(), "live_set tracks 0")
}

func TestAccessReadIsCached(t *testing.T) {
	access, graph := newStubAccess()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := access.Get(ctx, "live_set tracks 0", "volume")
		require.NoError(t, err)
		assert.Equal(t, 0.85, v)
	}
	assert.Equal(t, 1, graph.lookups)

	require.NoError(t, access.Set(ctx, "live_set tracks 0", "volume", 0.5))
	v, err := access.Get(ctx, "live_set tracks 0", "volume")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	assert.Equal(t, 3, graph.lookups)
}

func TestAccessWriteRetriesOnlyIdempotent(t *testing.T) {
	access, graph := newStubAccess()
	graph.objects["live_set tracks 0"].err = Errorf(KindTransient, "busy")
	ctx := context.Background()

	err := access.Set(ctx, "live_set tracks 0", "volume", 0.1)
	require.Error(t, err)
	assert.Equal(t, 3, graph.lookups)

	graph.lookups = 0
	graph.objects[Root] = &stubObject{path: Root, props: map[string]any{}, err: Errorf(KindTransient, "busy")}
	_, err = access.Write(ctx, Root, func(obj Object) (any, error) {
		return obj.Call("create_midi_track")
	}, WriteOptions{Name: "create_track"})
	require.Error(t, err)
	assert.Equal(t, KindTransient, Classify(err).Kind)
	assert.Equal(t, 1, graph.lookups)
}

type flakyObject struct {
	stubObject
	failures int
}

func (o *flakyObject) Get(prop string) (any, error) {
	if o.failures > 0 {
		o.failures--
		return nil, Errorf(KindTransient, "busy")
	}
	return o.stubObject.Get(prop)
}

type flakyGraph struct {
	obj     *flakyObject
	lookups int
}

func (g *flakyGraph) Lookup(_ context.Context, _ string) (Object, error) {
	g.lookups++
	return g.obj, nil
}

func TestAccessReadRetriesTransient(t *testing.T) {
	graph := &flakyGraph{obj: &flakyObject{
		stubObject: stubObject{path: "live_set tracks 0", props: map[string]any{"volume": 0.7}},
		failures:   2,
	}}
	access := NewAccess(graph, NewStateCache(time.Minute), RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})

	v, err := access.Get(context.Background(), "live_set tracks 0", "volume")
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)
	assert.Equal(t, 3, graph.lookups)
	assert.Equal(t, int64(3), access.Calls())
}

func TestAccessReadDoesNotRetryPermanentFailures(t *testing.T) {
	access, graph := newStubAccess()
	graph.objects["live_set tracks 0"].err = Errorf(KindPermission, "locked")

	_, err := access.Get(context.Background(), "live_set tracks 0", "volume")
	assert.Equal(t, KindPermission, Classify(err).Kind)
	assert.Equal(t, 1, graph.lookups)

	graph.objects["live_set tracks 0"].err = Errorf(KindTransient, "busy")
	_, err = access.Get(context.Background(), "live_set tracks 0", "volume")
	assert.Equal(t, KindTransient, Classify(err).Kind)
	assert.Equal(t, 4, graph.lookups, "three attempts, then the last error")
}

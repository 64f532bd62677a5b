package dispatch

import (
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// trackAt parses the track index at argument i
func (c *call) trackAt(i int) (int, string, error) {
	track, err := c.args.index(i, "track")
	if err != nil {
		return 0, "", err
	}
	return track, remote.MustPath(remote.TrackAt(track)), nil
}

func (c *call) deviceAt(i int) (int, int, string, error) {
	track, err := c.args.index(i, "track")
	if err != nil {
		return 0, 0, "", err
	}
	device, err := c.args.index(i+1, "device")
	if err != nil {
		return 0, 0, "", err
	}
	return track, device, remote.MustPath(remote.DeviceAt(track, device)), nil
}

func (c *call) parameterAt(i int) (string, map[string]any, error) {
	track, err := c.args.index(i, "track")
	if err != nil {
		return "", nil, err
	}
	device, err := c.args.index(i+1, "device")
	if err != nil {
		return "", nil, err
	}
	param, err := c.args.index(i+2, "parameter")
	if err != nil {
		return "", nil, err
	}
	ids := map[string]any{"track": track, "device": device, "parameter": param}
	return remote.MustPath(remote.ParameterAt(track, device, param)), ids, nil
}

func (c *call) slotAt(i int) (int, int, string, error) {
	track, err := c.args.index(i, "track")
	if err != nil {
		return 0, 0, "", err
	}
	slot, err := c.args.index(i+1, "clip slot")
	if err != nil {
		return 0, 0, "", err
	}
	return track, slot, remote.MustPath(remote.ClipSlotAt(track, slot)), nil
}

func (c *call) clipAt(i int) (int, int, string, error) {
	track, slot, _, err := c.slotAt(i)
	if err != nil {
		return 0, 0, "", err
	}
	return track, slot, remote.MustPath(remote.ClipAt(track, slot)), nil
}

func (c *call) sceneAt(i int) (int, string, error) {
	scene, err := c.args.index(i, "scene")
	if err != nil {
		return 0, "", err
	}
	return scene, remote.MustPath(remote.SceneAt(scene)), nil
}

// read is a cached read of one property
func (e *Engine) read(path, prop string) (any, error) {
	return e.access.Get(e.ctx, path, prop)
}

// write runs a mutation on path. Besides the path itself, the owning
// track's cached listings are invalidated. Retried on TRANSIENT failures
// only when the command is idempotent.
func (e *Engine) write(c *call, path, name string, op remote.Operation, invalidate ...string) (any, error) {
	if owner := owningTrack(path); owner != "" && owner != path {
		invalidate = append(invalidate, owner)
	}
	return e.access.Write(e.ctx, path, op, remote.WriteOptions{
		Name:       name,
		Idempotent: c.entry.Idempotent,
		Invalidate: invalidate,
	})
}

// set writes one property
func (e *Engine) set(c *call, path, prop string, value any, invalidate ...string) error {
	_, err := e.write(c, path, "set "+prop, func(obj remote.Object) (any, error) {
		return nil, obj.Set(prop, value)
	}, invalidate...)
	return err
}

// method calls a mutating method on path
func (e *Engine) method(c *call, path, name string, args ...any) (any, error) {
	return e.write(c, path, name, func(obj remote.Object) (any, error) {
		return obj.Call(name, args...)
	})
}

func owningTrack(path string) string {
	loc, err := remote.ParsePath(path)
	if err != nil || loc.Track == nil {
		return ""
	}
	return remote.MustPath(remote.TrackAt(*loc.Track))
}

// tracksKey is the cached track listing, stale after any track write
var tracksKey = remote.CacheKey(remote.Root, "tracks")

func asList(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out
	}
	return nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

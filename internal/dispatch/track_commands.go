package dispatch

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

var trackKinds = map[string]string{
	"midi":   "create_midi_track",
	"audio":  "create_audio_track",
	"return": "create_return_track",
}

func (e *Engine) listTracks(_ *call) (*outcome, error) {
	v, err := e.read(remote.Root, "tracks")
	if err != nil {
		return nil, err
	}
	tracks := asList(v)
	return done(fmt.Sprintf("%d tracks", len(tracks)), map[string]any{"tracks": tracks, "count": len(tracks)})
}

func (e *Engine) getTrackInfo(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	info, err := e.read(path, "info")
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Track %d: %v", track, asMap(info)["name"]), map[string]any{"index": track, "track": info})
}

func (e *Engine) createTrack(c *call) (*outcome, error) {
	kind := strings.ToLower(c.args.str(0))
	method, ok := trackKinds[kind]
	if !ok {
		return nil, usagef("track type must be midi, audio or return, got %q", c.args.str(0))
	}
	name := c.args.rest(1)
	v, err := e.method(c, remote.Root, method, name)
	if err != nil {
		return nil, err
	}
	index := asInt(v)
	return done(fmt.Sprintf("Created %s track %d", kind, index), map[string]any{"index": index, "kind": kind, "name": name})
}

func (e *Engine) deleteTrack(c *call) (*outcome, error) {
	track, _, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, remote.Root, "delete_track", track); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Deleted track %d", track), map[string]any{"index": track})
}

func (e *Engine) duplicateTrack(c *call) (*outcome, error) {
	track, _, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.method(c, remote.Root, "duplicate_track", track)
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Duplicated track %d", track), map[string]any{"index": track, "new_index": asInt(v)})
}

func (e *Engine) renameTrack(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	name := c.args.rest(1)
	if err := e.set(c, path, "name", name, tracksKey); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Renamed track %d to %q", track, name), map[string]any{"index": track, "name": name})
}

func (e *Engine) setTrackColor(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	color, err := c.args.color(1)
	if err != nil {
		return nil, err
	}
	if err := e.set(c, path, "color", color, tracksKey); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Track %d color set to #%06x", track, color), map[string]any{"index": track, "color": color})
}

func (e *Engine) selectTrack(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	// only a missing track reads as INVALID_PATH; other lookup failures
	// keep their kind
	exists, err := remote.Retry(e.ctx, e.access.RetryPolicy(), func() (any, error) {
		return e.access.Call(e.ctx, path, func(obj remote.Object) (any, error) {
			return obj != nil, nil
		}, remote.CallOptions{Name: "exists", ThrowOnError: true})
	})
	if err != nil {
		return nil, err
	}
	if found, _ := exists.(bool); !found {
		return nil, &remote.Error{Kind: remote.KindInvalidPath, Op: c.name, Path: path, Message: "track does not exist"}
	}
	if err := e.set(c, remote.Root, "selected_track", track); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Selected track %d", track), map[string]any{"index": track})
}

// trackFloat sets a numeric mixer property, e.g. set_volume 0 0.5
func trackFloat(prop, label string) handler {
	return func(e *Engine, c *call) (*outcome, error) {
		track, path, err := c.trackAt(0)
		if err != nil {
			return nil, err
		}
		v, err := c.args.float(1, label)
		if err != nil {
			return nil, err
		}
		if err := e.set(c, path, prop, v, tracksKey); err != nil {
			return nil, err
		}
		return done(fmt.Sprintf("Track %d %s set to %.2f", track, label, v), map[string]any{"index": track, prop: v})
	}
}

func trackBool(prop, label string) handler {
	return func(e *Engine, c *call) (*outcome, error) {
		track, path, err := c.trackAt(0)
		if err != nil {
			return nil, err
		}
		on, err := c.args.bool(1, prop)
		if err != nil {
			return nil, err
		}
		if err := e.set(c, path, prop, on, tracksKey); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Track %d %s", track, label)
		if !on {
			message = fmt.Sprintf("Track %d un%s", track, label)
		}
		return done(message, map[string]any{"index": track, prop: on})
	}
}

func (e *Engine) setSend(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	send, err := c.args.index(1, "send")
	if err != nil {
		return nil, err
	}
	v, err := c.args.float(2, "send level")
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, path, "set_send", send, v); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Track %d send %d set to %.2f", track, send, v), map[string]any{"index": track, "send": send, "level": v})
}

func (e *Engine) stopTrackClips(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, path, "stop_all_clips"); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Stopped clips on track %d", track), map[string]any{"index": track})
}

func (e *Engine) listDevices(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.read(path, "devices")
	if err != nil {
		return nil, err
	}
	devices := asList(v)
	return done(fmt.Sprintf("%d devices on track %d", len(devices), track), map[string]any{"index": track, "devices": devices, "count": len(devices)})
}

func (e *Engine) getDeviceInfo(c *call) (*outcome, error) {
	track, device, path, err := c.deviceAt(0)
	if err != nil {
		return nil, err
	}
	info, err := e.read(path, "info")
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Device %d on track %d: %v", device, track, asMap(info)["name"]), map[string]any{"track": track, "device": device, "info": info})
}

func (e *Engine) loadDevice(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	name := c.args.rest(1)
	v, err := e.method(c, path, "load_device", name)
	if err != nil {
		return nil, err
	}
	index := asInt(v)
	return done(fmt.Sprintf("Loaded %s on track %d", name, track), map[string]any{"track": track, "device": index, "name": name})
}

func (e *Engine) deleteDevice(c *call) (*outcome, error) {
	track, device, _, err := c.deviceAt(0)
	if err != nil {
		return nil, err
	}
	trackPath := remote.MustPath(remote.TrackAt(track))
	if _, err := e.method(c, trackPath, "delete_device", device); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Deleted device %d from track %d", device, track), map[string]any{"track": track, "device": device})
}

func (e *Engine) setDeviceEnabled(c *call) (*outcome, error) {
	track, device, path, err := c.deviceAt(0)
	if err != nil {
		return nil, err
	}
	on, err := c.args.bool(2, "enabled")
	if err != nil {
		return nil, err
	}
	if err := e.set(c, path, "enabled", on); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Device %d on track %d %s", device, track, onOff(on)), map[string]any{"track": track, "device": device, "enabled": on})
}

func (e *Engine) listParams(c *call) (*outcome, error) {
	track, device, path, err := c.deviceAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.read(path, "parameters")
	if err != nil {
		return nil, err
	}
	params := asList(v)
	return done(fmt.Sprintf("%d parameters", len(params)), map[string]any{"track": track, "device": device, "parameters": params, "count": len(params)})
}

func (e *Engine) getParam(c *call) (*outcome, error) {
	path, ids, err := c.parameterAt(0)
	if err != nil {
		return nil, err
	}
	info, err := e.read(path, "info")
	if err != nil {
		return nil, err
	}
	m := asMap(info)
	ids["info"] = info
	return done(fmt.Sprintf("%v = %v", m["name"], m["value"]), ids)
}

func (e *Engine) setParam(c *call) (*outcome, error) {
	path, ids, err := c.parameterAt(0)
	if err != nil {
		return nil, err
	}
	v, err := c.args.float(3, "value")
	if err != nil {
		return nil, err
	}
	if err := e.set(c, path, "value", v); err != nil {
		return nil, err
	}
	ids["value"] = v
	return done(fmt.Sprintf("Parameter %v set to %.3f", ids["parameter"], v), ids)
}

func (e *Engine) resetParam(c *call) (*outcome, error) {
	path, ids, err := c.parameterAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.method(c, path, "reset")
	if err != nil {
		return nil, err
	}
	ids["value"] = v
	return done(fmt.Sprintf("Parameter %v reset to %v", ids["parameter"], v), ids)
}

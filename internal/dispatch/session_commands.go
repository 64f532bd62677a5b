package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

func (e *Engine) healthCheck(c *call) (*outcome, error) {
	if e.generator == nil {
		e.setConnected(false, "no generation service configured")
		return nil, &remote.Error{Kind: remote.KindConnection, Op: c.name, Message: "no generation service configured"}
	}
	return e.async(c, e.ctx, func(ctx context.Context) (any, error) {
		return nil, e.generator.Health(ctx)
	}, func(_ any, err error) (*outcome, error) {
		if err != nil {
			e.setConnected(false, err.Error())
			return nil, err
		}
		e.setConnected(true, "health check passed")
		return done("Generation service connected", map[string]any{"connected": true})
	})
}

func (e *Engine) status(_ *call) (*outcome, error) {
	state := "disconnected"
	if e.connected {
		state = "connected"
	}
	return done(fmt.Sprintf("Generation service %s, %d notes buffered", state, e.buffer.Len()), map[string]any{
		"connected":    e.connected,
		"state":        state,
		"buffer":       e.buffer.Len(),
		"source":       e.buffer.Source(),
		"epoch":        e.epoch,
		"defaults":     e.defaults.Map(),
		"remote_calls": e.access.Calls(),
		"cache_size":   e.access.Cache().Len(),
	})
}

func (e *Engine) help(c *call) (*outcome, error) {
	if c.args.has(0) {
		cmd := Parse(c.args.str(0))
		if cmd == Unrecognized {
			return nil, usagef("unknown command %q", c.args.str(0))
		}
		info := table[cmd]
		return done(info.Usage, map[string]any{
			"command":    string(cmd),
			"family":     info.Family,
			"usage":      info.Usage,
			"idempotent": info.Idempotent,
		})
	}

	commands := Commands()
	byFamily := make(map[string][]string)
	for _, info := range commands {
		byFamily[string(info.Family)] = append(byFamily[string(info.Family)], info.Name)
	}
	return done(fmt.Sprintf("%d commands available", len(commands)), map[string]any{
		"commands": byFamily,
		"count":    len(commands),
	})
}

func (e *Engine) getSessionInfo(_ *call) (*outcome, error) {
	info, err := e.read(remote.Root, "info")
	if err != nil {
		return nil, err
	}
	m := asMap(info)
	return done(fmt.Sprintf("%d tracks at %.1f BPM", asInt(m["track_count"]), asFloat(m["tempo"])), map[string]any{"session": info})
}

// rootMethod calls a no-argument method on the session
func rootMethod(method, message string) handler {
	return func(e *Engine, c *call) (*outcome, error) {
		if _, err := e.method(c, remote.Root, method); err != nil {
			return nil, err
		}
		return done(message, nil)
	}
}

func (e *Engine) setSongTempo(c *call) (*outcome, error) {
	bpm, err := c.args.float(0, "tempo")
	if err != nil {
		return nil, err
	}
	if err := e.set(c, remote.Root, "tempo", bpm); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Song tempo set to %.1f BPM", bpm), map[string]any{"tempo": bpm})
}

func (e *Engine) setMetronome(c *call) (*outcome, error) {
	on, err := c.args.bool(0, "metronome")
	if err != nil {
		return nil, err
	}
	if err := e.set(c, remote.Root, "metronome", on); err != nil {
		return nil, err
	}
	return done("Metronome "+onOff(on), map[string]any{"metronome": on})
}

func (e *Engine) tapTempo(c *call) (*outcome, error) {
	v, err := e.method(c, remote.Root, "tap_tempo")
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Tapped, tempo %.1f BPM", asFloat(v)), map[string]any{"tempo": v})
}

func (e *Engine) setLoop(c *call) (*outcome, error) {
	start, err := c.args.float(0, "loop start")
	if err != nil {
		return nil, err
	}
	length, err := c.args.float(1, "loop length")
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, remote.Root, "set_loop", start, length); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Loop set to %.2f+%.2f beats", start, length), map[string]any{"start": start, "length": length})
}

func (e *Engine) createScene(c *call) (*outcome, error) {
	name := c.args.rest(0)
	v, err := e.method(c, remote.Root, "create_scene", name)
	if err != nil {
		return nil, err
	}
	index := asInt(v)
	return done(fmt.Sprintf("Created scene %d", index), map[string]any{"index": index, "name": name})
}

func (e *Engine) deleteScene(c *call) (*outcome, error) {
	scene, _, err := c.sceneAt(0)
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, remote.Root, "delete_scene", scene); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Deleted scene %d", scene), map[string]any{"index": scene})
}

func (e *Engine) duplicateScene(c *call) (*outcome, error) {
	scene, _, err := c.sceneAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.method(c, remote.Root, "duplicate_scene", scene)
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Duplicated scene %d", scene), map[string]any{"index": scene, "new_index": asInt(v)})
}

func (e *Engine) fireScene(c *call) (*outcome, error) {
	scene, path, err := c.sceneAt(0)
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, path, "fire"); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Fired scene %d", scene), map[string]any{"index": scene})
}

func (e *Engine) renameScene(c *call) (*outcome, error) {
	scene, path, err := c.sceneAt(0)
	if err != nil {
		return nil, err
	}
	name := c.args.rest(1)
	if err := e.set(c, path, "name", name, remote.CacheKey(remote.Root, "scenes")); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Renamed scene %d to %q", scene, name), map[string]any{"index": scene, "name": name})
}

func (e *Engine) listScenes(_ *call) (*outcome, error) {
	v, err := e.read(remote.Root, "scenes")
	if err != nil {
		return nil, err
	}
	scenes := asList(v)
	return done(fmt.Sprintf("%d scenes", len(scenes)), map[string]any{"scenes": scenes, "count": len(scenes)})
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

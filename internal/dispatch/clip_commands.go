package dispatch

import (
	"fmt"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

const defaultQuantizeGrid = 0.25

func (e *Engine) listClips(c *call) (*outcome, error) {
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.read(path, "clip_slots")
	if err != nil {
		return nil, err
	}
	slots := asList(v)
	clips := 0
	for _, s := range slots {
		if has, _ := asMap(s)["has_clip"].(bool); has {
			clips++
		}
	}
	return done(fmt.Sprintf("%d clips in %d slots on track %d", clips, len(slots), track), map[string]any{
		"index":      track,
		"clip_slots": slots,
		"count":      clips,
	})
}

func (e *Engine) getClipInfo(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	info, err := e.read(path, "info")
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Clip %v", asMap(info)["name"]), map[string]any{"track": track, "slot": slot, "clip": info})
}

// createClip adds an empty clip; the length defaults to the bars setting
func (e *Engine) createClip(c *call) (*outcome, error) {
	track, slot, path, err := c.slotAt(0)
	if err != nil {
		return nil, err
	}
	length := e.defaults.LoopBeats()
	if c.args.has(2) {
		if length, err = c.args.float(2, "clip length"); err != nil {
			return nil, err
		}
	}
	if _, err := e.method(c, path, "create_clip", length); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Created %.0f-beat clip on track %d slot %d", length, track, slot), map[string]any{
		"track":  track,
		"slot":   slot,
		"length": length,
	})
}

func (e *Engine) deleteClip(c *call) (*outcome, error) {
	track, slot, path, err := c.slotAt(0)
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, path, "delete_clip"); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Deleted clip on track %d slot %d", track, slot), map[string]any{"track": track, "slot": slot})
}

func (e *Engine) duplicateClip(c *call) (*outcome, error) {
	track, slot, path, err := c.slotAt(0)
	if err != nil {
		return nil, err
	}
	target, err := c.args.index(2, "target slot")
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, path, "duplicate_clip_to", target); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Duplicated clip to slot %d", target), map[string]any{"track": track, "slot": slot, "target": target})
}

// slotCall runs a transport method on a clip slot, e.g. fire_clip 0 1
func slotCall(method, verb string) handler {
	return func(e *Engine, c *call) (*outcome, error) {
		track, slot, path, err := c.slotAt(0)
		if err != nil {
			return nil, err
		}
		if _, err := e.method(c, path, method); err != nil {
			return nil, err
		}
		return done(fmt.Sprintf("%s clip on track %d slot %d", verb, track, slot), map[string]any{"track": track, "slot": slot})
	}
}

func (e *Engine) renameClip(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	name := c.args.rest(2)
	if err := e.set(c, path, "name", name); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Renamed clip to %q", name), map[string]any{"track": track, "slot": slot, "name": name})
}

func (e *Engine) selectClip(c *call) (*outcome, error) {
	track, slot, _, err := c.slotAt(0)
	if err != nil {
		return nil, err
	}
	if _, err := e.method(c, remote.Root, "select_clip_slot", track, slot); err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Selected track %d slot %d", track, slot), map[string]any{"track": track, "slot": slot})
}

// setClipLoop orders the two writes so start stays before end throughout
func (e *Engine) setClipLoop(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	start, err := c.args.float(2, "loop start")
	if err != nil {
		return nil, err
	}
	end, err := c.args.float(3, "loop end")
	if err != nil {
		return nil, err
	}
	if start < 0 || end <= start {
		return nil, usagef("loop end must be after loop start")
	}

	_, err = e.write(c, path, "set_loop", func(obj remote.Object) (any, error) {
		current, err := obj.Get("loop_end")
		if err != nil {
			return nil, err
		}
		first, second := "loop_start", "loop_end"
		firstValue, secondValue := start, end
		if start >= asFloat(current) {
			first, second = second, first
			firstValue, secondValue = secondValue, firstValue
		}
		if err := obj.Set(first, firstValue); err != nil {
			return nil, err
		}
		return nil, obj.Set(second, secondValue)
	})
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Clip loop set to %.2f-%.2f", start, end), map[string]any{"track": track, "slot": slot, "loop_start": start, "loop_end": end})
}

func (e *Engine) clipNotes(path string) ([]models.NoteEvent, error) {
	v, err := e.read(path, "notes")
	if err != nil {
		return nil, err
	}
	var notes []models.NoteEvent
	for _, item := range asList(v) {
		if n, ok := models.NoteFromMap(asMap(item)); ok {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (e *Engine) getClipNotes(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	notes, err := e.clipNotes(path)
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("%d notes", len(notes)), map[string]any{"track": track, "slot": slot, "notes": notes, "count": len(notes)})
}

func (e *Engine) clearClip(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	v, err := e.method(c, path, "remove_notes")
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Removed %d notes", asInt(v)), map[string]any{"track": track, "slot": slot, "removed": asInt(v)})
}

func (e *Engine) quantizeClip(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	grid := defaultQuantizeGrid
	if c.args.has(2) {
		if grid, err = c.args.float(2, "grid"); err != nil {
			return nil, err
		}
	}
	v, err := e.method(c, path, "quantize", grid)
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Quantized %d notes to %g beats", asInt(v), grid), map[string]any{"track": track, "slot": slot, "grid": grid, "notes": asInt(v)})
}

func (e *Engine) stopAllClips(c *call) (*outcome, error) {
	if _, err := e.method(c, remote.Root, "stop_all_clips"); err != nil {
		return nil, err
	}
	return done("Stopped all clips", nil)
}

// captureClip copies a clip's notes into the buffer
func (e *Engine) captureClip(c *call) (*outcome, error) {
	track, slot, path, err := c.clipAt(0)
	if err != nil {
		return nil, err
	}
	notes, err := e.clipNotes(path)
	if err != nil {
		return nil, err
	}
	e.buffer.Replace(notes, c.name)
	return done(fmt.Sprintf("Captured %d notes into the buffer", e.buffer.Len()), map[string]any{"track": track, "slot": slot, "count": e.buffer.Len()})
}

package host

import (
	"math"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

type slotNode struct {
	session *Session
	track   int
	index   int
	slot    *ClipSlot
	path    string
}

func (n *slotNode) get(prop string) (any, error) {
	switch prop {
	case "has_clip":
		return n.slot.Clip != nil, nil
	case "is_selected":
		sel := n.session.selectedSlot
		return sel != nil && sel[0] == n.track && sel[1] == n.index, nil
	case "info":
		info := map[string]any{"track": n.track, "index": n.index, "has_clip": n.slot.Clip != nil}
		if n.slot.Clip != nil {
			info["clip"] = clipInfo(n.slot.Clip)
		}
		return info, nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *slotNode) set(prop string, _ any) error {
	if _, err := n.get(prop); err != nil {
		return err
	}
	return readOnly(n.path, prop)
}

func (n *slotNode) call(method string, args []any) (any, error) {
	switch method {
	case "create_clip":
		if n.slot.Clip != nil {
			return nil, &remote.Error{Kind: remote.KindState, Path: n.path, Message: "clip slot already has a clip"}
		}
		length, err := floatArg(args, 0)
		if err != nil {
			return nil, err
		}
		if length <= 0 {
			return nil, remote.Errorf(remote.KindState, "clip length must be positive, got %v", length)
		}
		n.slot.Clip = &Clip{Name: stringArg(args, 1, ""), Length: length, LoopEnd: length}
		n.session.undoDepth++
		return nil, nil
	case "delete_clip":
		if n.slot.Clip == nil {
			return nil, &remote.Error{Kind: remote.KindState, Path: n.path, Message: "clip slot is empty"}
		}
		n.slot.Clip = nil
		n.session.undoDepth++
		return nil, nil
	case "duplicate_clip_to":
		if n.slot.Clip == nil {
			return nil, &remote.Error{Kind: remote.KindState, Path: n.path, Message: "clip slot is empty"}
		}
		dst, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		slots := n.session.tracks[n.track].Slots
		if dst < 0 || dst >= len(slots) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "target slot " + toString(dst) + " does not exist"}
		}
		if slots[dst].Clip != nil {
			return nil, remote.Errorf(remote.KindState, "target slot %d already has a clip", dst)
		}
		slots[dst].Clip = cloneClip(n.slot.Clip)
		n.session.undoDepth++
		return dst, nil
	case "fire":
		if n.slot.Clip == nil {
			return nil, &remote.Error{Kind: remote.KindState, Path: n.path, Message: "clip slot is empty"}
		}
		for _, other := range n.session.tracks[n.track].Slots {
			if other.Clip != nil {
				other.Clip.Playing = false
			}
		}
		n.slot.Clip.Playing = true
		n.session.playing = true
		return nil, nil
	case "stop":
		if n.slot.Clip != nil {
			n.slot.Clip.Playing = false
		}
		return nil, nil
	}
	return nil, unknownMethod(n.path, method)
}

type clipNode struct {
	clip *Clip
	path string
}

func (n *clipNode) get(prop string) (any, error) {
	c := n.clip
	switch prop {
	case "name":
		return c.Name, nil
	case "length":
		return c.Length, nil
	case "loop_start":
		return c.LoopStart, nil
	case "loop_end":
		return c.LoopEnd, nil
	case "is_playing":
		return c.Playing, nil
	case "notes":
		notes := make([]map[string]any, 0, len(c.Notes))
		for _, note := range c.Notes {
			notes = append(notes, note.ToMap())
		}
		return notes, nil
	case "info":
		return clipInfo(c), nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *clipNode) set(prop string, value any) error {
	c := n.clip
	switch prop {
	case "name":
		c.Name = strings.TrimSpace(toString(value))
		return nil
	case "loop_start", "loop_end":
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		if v < 0 {
			return outOfRange(prop, v, 0, math.Inf(1))
		}
		if prop == "loop_start" {
			if v >= c.LoopEnd {
				return remote.Errorf(remote.KindState, "loop start %v must be before loop end %v", v, c.LoopEnd)
			}
			c.LoopStart = v
			return nil
		}
		if v <= c.LoopStart {
			return remote.Errorf(remote.KindState, "loop end %v must be after loop start %v", v, c.LoopStart)
		}
		c.LoopEnd = v
		if v > c.Length {
			c.Length = v
		}
		return nil
	case "length", "is_playing", "notes", "info":
		return readOnly(n.path, prop)
	}
	return unknownProp(n.path, prop)
}

func (n *clipNode) call(method string, args []any) (any, error) {
	c := n.clip
	switch method {
	case "remove_notes":
		if c.batching {
			return nil, remote.Errorf(remote.KindState, "note batch in progress")
		}
		removed := len(c.Notes)
		c.Notes = nil
		return removed, nil
	case "begin_notes":
		if c.batching {
			return nil, remote.Errorf(remote.KindState, "note batch already open")
		}
		c.batching = true
		c.pending = nil
		return nil, nil
	case "add_note":
		if !c.batching {
			return nil, remote.Errorf(remote.KindState, "add_note outside of a note batch")
		}
		note, err := noteFromArgs(args)
		if err != nil {
			return nil, err
		}
		c.pending = append(c.pending, note)
		return nil, nil
	case "commit_notes":
		if !c.batching {
			return nil, remote.Errorf(remote.KindState, "commit_notes without begin_notes")
		}
		c.Notes = append(c.Notes, c.pending...)
		models.SortNotes(c.Notes)
		added := len(c.pending)
		c.batching = false
		c.pending = nil
		return added, nil
	case "cancel_notes":
		dropped := len(c.pending)
		c.batching = false
		c.pending = nil
		return dropped, nil
	case "quantize":
		grid, err := floatArg(args, 0)
		if err != nil {
			return nil, err
		}
		if grid <= 0 {
			return nil, remote.Errorf(remote.KindState, "quantize grid must be positive")
		}
		for i := range c.Notes {
			c.Notes[i].StartTime = math.Round(c.Notes[i].StartTime/grid) * grid
		}
		models.SortNotes(c.Notes)
		return len(c.Notes), nil
	case "fire":
		c.Playing = true
		return nil, nil
	case "stop":
		c.Playing = false
		return nil, nil
	}
	return nil, unknownMethod(n.path, method)
}

func noteFromArgs(args []any) (models.NoteEvent, error) {
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			note, ok := models.NoteFromMap(m)
			if !ok {
				return models.NoteEvent{}, remote.Errorf(remote.KindState, "note is missing a pitch")
			}
			return note, validateNote(note)
		}
	}
	pitch, err := intArg(args, 0)
	if err != nil {
		return models.NoteEvent{}, err
	}
	start, err := floatArg(args, 1)
	if err != nil {
		return models.NoteEvent{}, err
	}
	duration, err := floatArg(args, 2)
	if err != nil {
		return models.NoteEvent{}, err
	}
	velocity, err := intArg(args, 3)
	if err != nil {
		return models.NoteEvent{}, err
	}
	mute := false
	if len(args) > 4 {
		if mute, err = toBool(args[4]); err != nil {
			return models.NoteEvent{}, err
		}
	}
	note := models.NoteEvent{Pitch: pitch, StartTime: start, Duration: duration, Velocity: velocity, Mute: mute}
	return note, validateNote(note)
}

func validateNote(n models.NoteEvent) error {
	switch {
	case n.Pitch < 0 || n.Pitch > 127:
		return outOfRange("pitch", float64(n.Pitch), 0, 127)
	case n.Velocity < 0 || n.Velocity > 127:
		return outOfRange("velocity", float64(n.Velocity), 0, 127)
	case n.StartTime < 0:
		return remote.Errorf(remote.KindState, "note start %v is negative", n.StartTime)
	case n.Duration <= 0:
		return remote.Errorf(remote.KindState, "note duration %v must be positive", n.Duration)
	}
	return nil
}

func clipInfo(c *Clip) map[string]any {
	return map[string]any{
		"name":       c.Name,
		"length":     c.Length,
		"loop_start": c.LoopStart,
		"loop_end":   c.LoopEnd,
		"is_playing": c.Playing,
		"note_count": len(c.Notes),
	}
}

type sceneNode struct {
	session *Session
	index   int
	path    string
}

func (n *sceneNode) get(prop string) (any, error) {
	switch prop {
	case "name":
		return n.session.scenes[n.index].Name, nil
	case "info":
		return map[string]any{"index": n.index, "name": n.session.scenes[n.index].Name}, nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *sceneNode) set(prop string, value any) error {
	if prop != "name" {
		if _, err := n.get(prop); err != nil {
			return err
		}
		return readOnly(n.path, prop)
	}
	n.session.scenes[n.index].Name = strings.TrimSpace(toString(value))
	return nil
}

func (n *sceneNode) call(method string, _ []any) (any, error) {
	if method != "fire" {
		return nil, unknownMethod(n.path, method)
	}
	for _, t := range n.session.tracks {
		for i, slot := range t.Slots {
			if slot.Clip != nil {
				slot.Clip.Playing = i == n.index
			}
		}
	}
	n.session.playing = true
	return nil, nil
}

package scheduler

import (
	"context"
	"math"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

const (
	beatsPerBar = 4
	minClipBars = 1
)

// Inserter writes the buffer into the selected clip as one contiguous note
// batch
type Inserter struct {
	access *remote.Access
}

// NewInserter creates an inserter over access
func NewInserter(access *remote.Access) *Inserter {
	return &Inserter{access: access}
}

// Insertion reports what an insert wrote
type Insertion struct {
	Path     string  `json:"path"`
	Inserted int     `json:"inserted"`
	Dropped  int     `json:"dropped"`
	Clipped  int     `json:"clipped"`
	LoopEnd  float64 `json:"loop_end"`
	Created  bool    `json:"created"`
}

// Map is the loosely-typed form used in command results
func (in *Insertion) Map() map[string]any {
	return map[string]any{
		"path":     in.Path,
		"inserted": in.Inserted,
		"dropped":  in.Dropped,
		"clipped":  in.Clipped,
		"loop_end": in.LoopEnd,
		"created":  in.Created,
	}
}

// Insert replaces the notes of the clip in the selected slot. The loop is
// set to bars*4 beats; notes starting at or after the loop end are dropped
// and the rest are clipped to it.
func (i *Inserter) Insert(ctx context.Context, notes []models.NoteEvent, bars int) (*Insertion, error) {
	slot, err := i.selectedSlot(ctx)
	if err != nil {
		return nil, err
	}
	hasClip, err := i.hasClip(ctx, slot)
	if err != nil {
		return nil, err
	}
	if !hasClip {
		return nil, &remote.Error{Kind: remote.KindState, Op: "insert", Path: slot, Message: "selected clip slot is empty"}
	}
	return i.write(ctx, slot, notes, float64(bars*beatsPerBar), false)
}

// InsertClip is Insert sized to the notes themselves: the loop end is the
// latest note end rounded up to a whole bar. An empty slot gets a new clip.
func (i *Inserter) InsertClip(ctx context.Context, notes []models.NoteEvent) (*Insertion, error) {
	slot, err := i.selectedSlot(ctx)
	if err != nil {
		return nil, err
	}
	hasClip, err := i.hasClip(ctx, slot)
	if err != nil {
		return nil, err
	}

	loopEnd := ClipLength(notes)
	if !hasClip {
		_, err := i.access.Write(ctx, slot, func(obj remote.Object) (any, error) {
			return obj.Call("create_clip", loopEnd)
		}, remote.WriteOptions{Name: "create_clip"})
		if err != nil {
			return nil, err
		}
	}
	return i.write(ctx, slot, notes, loopEnd, !hasClip)
}

// ClipLength is the latest note end rounded up to a whole bar, at least one
// bar
func ClipLength(notes []models.NoteEvent) float64 {
	end := 0.0
	for _, n := range notes {
		if e := n.End(); e > end {
			end = e
		}
	}
	bars := math.Ceil(end / beatsPerBar)
	if bars < minClipBars {
		bars = minClipBars
	}
	return bars * beatsPerBar
}

// FitToLoop keeps notes starting before loopEnd and shortens those that ring
// past it
func FitToLoop(notes []models.NoteEvent, loopEnd float64) (kept []models.NoteEvent, dropped, clipped int) {
	kept = make([]models.NoteEvent, 0, len(notes))
	for _, n := range notes {
		if n.StartTime >= loopEnd {
			dropped++
			continue
		}
		if n.End() > loopEnd {
			n.Duration = loopEnd - n.StartTime
			clipped++
		}
		kept = append(kept, n)
	}
	return kept, dropped, clipped
}

func (i *Inserter) write(ctx context.Context, slot string, notes []models.NoteEvent, loopEnd float64, created bool) (*Insertion, error) {
	clip := slot + " clip"
	kept, dropped, clipped := FitToLoop(notes, loopEnd)

	result, err := i.access.Write(ctx, clip, func(obj remote.Object) (any, error) {
		if _, err := obj.Call("remove_notes"); err != nil {
			return nil, err
		}
		if err := obj.Set("loop_start", 0.0); err != nil {
			return nil, err
		}
		if err := obj.Set("loop_end", loopEnd); err != nil {
			return nil, err
		}
		if _, err := obj.Call("begin_notes"); err != nil {
			return nil, err
		}
		for _, n := range kept {
			if _, err := obj.Call("add_note", n.Pitch, n.StartTime, n.Duration, n.Velocity, n.Mute); err != nil {
				abandonBatch(obj)
				return nil, err
			}
		}
		return obj.Call("commit_notes")
	}, remote.WriteOptions{Name: "insert_notes", Invalidate: []string{slot}})
	if err != nil {
		return nil, err
	}

	inserted := len(kept)
	if n, ok := result.(int); ok {
		inserted = n
	} else if f, ok := result.(float64); ok {
		inserted = int(f)
	}

	logger.Info("Inserted notes into clip", logger.Fields{
		"path":     clip,
		"inserted": inserted,
		"dropped":  dropped,
		"clipped":  clipped,
		"loop_end": loopEnd,
	})
	return &Insertion{
		Path:     clip,
		Inserted: inserted,
		Dropped:  dropped,
		Clipped:  clipped,
		LoopEnd:  loopEnd,
		Created:  created,
	}, nil
}

// abandonBatch closes an open batch so the clip stays writable
func abandonBatch(obj remote.Object) {
	if _, err := obj.Call("cancel_notes"); err != nil {
		logger.Warn("Failed to cancel note batch", logger.Fields{
			"path":  obj.Path(),
			"error": err.Error(),
		})
	}
}

// selectedSlot returns the path of the selected clip slot. The selection is
// never cached.
func (i *Inserter) selectedSlot(ctx context.Context) (string, error) {
	v, err := i.access.Call(ctx, remote.Root, func(obj remote.Object) (any, error) {
		return obj.Get("selected_clip_slot")
	}, remote.CallOptions{Name: "selected_clip_slot", Required: true, ThrowOnError: true})
	if err != nil {
		return "", err
	}
	path, _ := v.(string)
	if path == "" {
		return "", &remote.Error{Kind: remote.KindState, Op: "insert", Message: "no clip slot selected"}
	}
	loc, err := remote.ParsePath(path)
	if err != nil || loc.ClipSlot == nil {
		return "", &remote.Error{Kind: remote.KindState, Op: "insert", Path: path, Message: "selection is not a clip slot", Err: err}
	}
	loc.Clip = false
	return remote.BuildPath(loc)
}

func (i *Inserter) hasClip(ctx context.Context, slot string) (bool, error) {
	v, err := i.access.Call(ctx, slot, func(obj remote.Object) (any, error) {
		return obj.Get("has_clip")
	}, remote.CallOptions{Name: "has_clip", Required: true, ThrowOnError: true})
	if err != nil {
		return false, err
	}
	has, _ := v.(bool)
	return has, nil
}

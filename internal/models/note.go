package models

import (
	"math"
	"sort"
)

// NoteEvent is a single timed note. Times are in beats.
type NoteEvent struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
	Mute      bool    `json:"mute,omitempty"`
}

// Valid reports whether the note can be played or written to a clip: MIDI
// pitch and velocity, a finite non-negative start and a positive duration
func (n NoteEvent) Valid() bool {
	switch {
	case n.Pitch < 0 || n.Pitch > 127:
		return false
	case n.Velocity < 0 || n.Velocity > 127:
		return false
	case math.IsNaN(n.StartTime) || math.IsInf(n.StartTime, 0) || n.StartTime < 0:
		return false
	case math.IsNaN(n.Duration) || math.IsInf(n.Duration, 0) || n.Duration <= 0:
		return false
	}
	return true
}

// End returns the beat at which the note stops sounding
func (n NoteEvent) End() float64 {
	return n.StartTime + n.Duration
}

// SortNotes orders notes by start time, then pitch
func SortNotes(notes []NoteEvent) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].StartTime != notes[j].StartTime {
			return notes[i].StartTime < notes[j].StartTime
		}
		return notes[i].Pitch < notes[j].Pitch
	})
}

// NoteFromMap decodes a loosely-typed note as produced by a host or a JSON
// payload. Missing velocity defaults to 100.
func NoteFromMap(m map[string]any) (NoteEvent, bool) {
	pitch, ok := numberField(m, "pitch", "midiNoteNumber")
	if !ok {
		return NoteEvent{}, false
	}
	start, _ := numberField(m, "start_time", "startTime", "startBeats")
	duration, _ := numberField(m, "duration", "durationBeats")
	velocity, ok := numberField(m, "velocity")
	if !ok {
		velocity = defaultVelocity
	}
	mute, _ := m["mute"].(bool)
	return NoteEvent{
		Pitch:     int(pitch),
		StartTime: start,
		Duration:  duration,
		Velocity:  int(velocity),
		Mute:      mute,
	}, true
}

// ToMap is the loosely-typed form used on the remote graph
func (n NoteEvent) ToMap() map[string]any {
	return map[string]any{
		"pitch":      n.Pitch,
		"start_time": n.StartTime,
		"duration":   n.Duration,
		"velocity":   n.Velocity,
		"mute":       n.Mute,
	}
}

const defaultVelocity = 100

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

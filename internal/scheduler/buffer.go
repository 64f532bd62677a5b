// Package scheduler turns a note buffer into sound or clip content: timed
// MIDI playback, batched insertion into a clip, and Standard MIDI File export.
package scheduler

import (
	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// Buffer is the single ordered list of generated notes. Each generation
// replaces it wholesale. It is owned by the dispatcher and not safe for
// concurrent use.
type Buffer struct {
	notes  []models.NoteEvent
	source string
}

// Replace swaps in a sorted copy of the valid notes and remembers what
// produced them. It returns how many invalid notes were dropped.
func (b *Buffer) Replace(notes []models.NoteEvent, source string) int {
	b.notes = make([]models.NoteEvent, 0, len(notes))
	for _, n := range notes {
		if n.Valid() {
			b.notes = append(b.notes, n)
		}
	}
	models.SortNotes(b.notes)
	b.source = source
	return len(notes) - len(b.notes)
}

// Clear empties the buffer
func (b *Buffer) Clear() {
	b.notes = nil
	b.source = ""
}

// Notes returns a copy of the buffered notes
func (b *Buffer) Notes() []models.NoteEvent {
	return append([]models.NoteEvent(nil), b.notes...)
}

func (b *Buffer) Len() int {
	return len(b.notes)
}

// Source names the command that filled the buffer
func (b *Buffer) Source() string {
	return b.source
}

// End is the latest note end in beats
func (b *Buffer) End() float64 {
	end := 0.0
	for _, n := range b.notes {
		if e := n.End(); e > end {
			end = e
		}
	}
	return end
}

// Transpose shifts every pitch by semitones. Notes pushed outside the MIDI
// range are dropped; the number dropped is returned.
func (b *Buffer) Transpose(semitones int) int {
	kept := b.notes[:0]
	dropped := 0
	for _, n := range b.notes {
		n.Pitch += semitones
		if n.Pitch < 0 || n.Pitch > 127 {
			dropped++
			continue
		}
		kept = append(kept, n)
	}
	b.notes = kept
	return dropped
}

// Summary is the loosely-typed form used in command results
func (b *Buffer) Summary(limit int) map[string]any {
	notes := make([]map[string]any, 0, len(b.notes))
	for i, n := range b.notes {
		if limit > 0 && i >= limit {
			break
		}
		notes = append(notes, n.ToMap())
	}
	return map[string]any{
		"count":  len(b.notes),
		"source": b.source,
		"beats":  b.End(),
		"notes":  notes,
	}
}

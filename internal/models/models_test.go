package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteFromMap_AlternateKeys(t *testing.T) {
	n, ok := NoteFromMap(map[string]any{"midiNoteNumber": 60.0, "startBeats": 1.5, "durationBeats": 0.5})
	require.True(t, ok)
	assert.Equal(t, NoteEvent{Pitch: 60, StartTime: 1.5, Duration: 0.5, Velocity: 100}, n)

	_, ok = NoteFromMap(map[string]any{"velocity": 90.0})
	assert.False(t, ok)
}

func TestSortNotes(t *testing.T) {
	notes := []NoteEvent{{Pitch: 64, StartTime: 1}, {Pitch: 67, StartTime: 0}, {Pitch: 60, StartTime: 0}}
	SortNotes(notes)
	assert.Equal(t, []int{60, 67, 64}, []int{notes[0].Pitch, notes[1].Pitch, notes[2].Pitch})
}

func TestGenerationResponse_Events(t *testing.T) {
	var resp GenerationResponse
	body := `{"status":"ok","count":2,"notes":[{"pitch":36,"start_time":0,"duration":1,"velocity":110},{"startTime":2}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	events := resp.Events()
	require.Len(t, events, 1)
	assert.Equal(t, 36, events[0].Pitch)
	assert.Equal(t, 110, events[0].Velocity)
}

func TestLibraryItemFromMap(t *testing.T) {
	item := LibraryItemFromMap(map[string]any{"path": "a/b.wav", "name": "b", "type": "sample", "bpm": 120.0})
	require.NotNil(t, item.BPM)
	assert.Equal(t, 120.0, *item.BPM)
	assert.Nil(t, item.Duration)
	assert.Equal(t, "b", item.ToMap()["name"])
}

func TestNoteEvent_Valid(t *testing.T) {
	tests := []struct {
		name string
		note NoteEvent
		want bool
	}{
		{"ordinary", NoteEvent{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100}, true},
		{"silent velocity", NoteEvent{Pitch: 60, StartTime: 0, Duration: 1}, true},
		{"pitch too high", NoteEvent{Pitch: 128, Duration: 1, Velocity: 100}, false},
		{"negative start", NoteEvent{Pitch: 60, StartTime: -0.5, Duration: 1, Velocity: 100}, false},
		{"zero duration", NoteEvent{Pitch: 60, Velocity: 100}, false},
		{"infinite duration", NoteEvent{Pitch: 60, Duration: math.Inf(1), Velocity: 100}, false},
		{"velocity too high", NoteEvent{Pitch: 60, Duration: 1, Velocity: 128}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.note.Valid())
		})
	}
}

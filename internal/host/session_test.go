package host

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

func lookup(t *testing.T, s *Session, path string) remote.Object {
	t.Helper()
	obj, err := s.Lookup(context.Background(), path)
	require.NoError(t, err)
	return obj
}

func kindOf(err error) remote.Kind {
	var rerr *remote.Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return remote.KindUnknown
}

func TestLookup_MissingObjects(t *testing.T) {
	s := NewDemoSession()
	ctx := context.Background()

	tests := []string{
		"live_set tracks 42",
		"live_set tracks 0 devices 9",
		"live_set tracks 0 devices 0 parameters 99",
		"live_set tracks 0 clip_slots 0 clip",
		"live_set scenes 100",
		"not a path",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			_, err := s.Lookup(ctx, path)
			require.Error(t, err)
			assert.Equal(t, remote.KindInvalidPath, kindOf(err))
		})
	}
}

func TestSession_TempoRange(t *testing.T) {
	s := NewSession()
	root := lookup(t, s, remote.Root)

	require.NoError(t, root.Set("tempo", 128.0))
	tempo, err := root.Get("tempo")
	require.NoError(t, err)
	assert.Equal(t, 128.0, tempo)

	err = root.Set("tempo", 5000.0)
	assert.Equal(t, remote.KindState, kindOf(err))
	err = root.Set("tracks", nil)
	assert.Equal(t, remote.KindPermission, kindOf(err))
}

func TestSession_CreateAndDeleteTracks(t *testing.T) {
	s := NewSession()
	root := lookup(t, s, remote.Root)

	idx, err := root.Call("create_midi_track", "Lead")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = root.Call("create_return_track")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	lead, ok := s.Track(0)
	require.True(t, ok)
	assert.Equal(t, "Lead", lead.Name)
	assert.Len(t, lead.Slots, defaultSlots)
	assert.Len(t, lead.Sends, 1)

	ret, _ := s.Track(1)
	assert.Empty(t, ret.Slots)

	_, err = root.Call("delete_track", 5)
	assert.Equal(t, remote.KindInvalidPath, kindOf(err))
	_, err = root.Call("delete_track", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TrackCount())
	lead, _ = s.Track(0)
	assert.Empty(t, lead.Sends)
}

func TestSession_StaleHandleFailsAfterDelete(t *testing.T) {
	s := NewDemoSession()
	last := s.TrackCount() - 1
	track := lookup(t, s, remote.MustPath(remote.TrackAt(last)))

	_, err := lookup(t, s, remote.Root).Call("delete_track", last)
	require.NoError(t, err)

	err = track.Set("mute", true)
	assert.Equal(t, remote.KindInvalidPath, kindOf(err))
}

func TestTrack_MixerRanges(t *testing.T) {
	s := NewDemoSession()
	track := lookup(t, s, "live_set tracks 1")

	require.NoError(t, track.Set("volume", 0.5))
	require.NoError(t, track.Set("pan", -1.0))
	assert.Equal(t, remote.KindState, kindOf(track.Set("volume", 1.5)))
	assert.Equal(t, remote.KindState, kindOf(track.Set("pan", 2.0)))

	got, _ := s.Track(1)
	assert.Equal(t, 0.5, got.Volume)
	assert.Equal(t, -1.0, got.Pan)

	ret := lookup(t, s, "live_set tracks 4")
	assert.Equal(t, remote.KindState, kindOf(ret.Set("arm", true)))
}

func TestTrack_RejectsNonFiniteValues(t *testing.T) {
	s := NewDemoSession()
	track := lookup(t, s, "live_set tracks 1")

	assert.Equal(t, remote.KindState, kindOf(track.Set("volume", math.NaN())))
	assert.Equal(t, remote.KindState, kindOf(track.Set("pan", "NaN")))
	assert.Equal(t, remote.KindState, kindOf(track.Set("volume", math.Inf(1))))

	got, _ := s.Track(1)
	assert.False(t, math.IsNaN(got.Volume))
	assert.False(t, math.IsNaN(got.Pan))
}

func TestTrack_Sends(t *testing.T) {
	s := NewDemoSession()
	track := lookup(t, s, "live_set tracks 0")

	_, err := track.Call("set_send", 0, 0.4)
	require.NoError(t, err)
	_, err = track.Call("set_send", 3, 0.4)
	assert.Equal(t, remote.KindInvalidPath, kindOf(err))

	got, _ := s.Track(0)
	assert.Equal(t, []float64{0.4}, got.Sends)
}

func TestParameter_ReadOnlyAndRange(t *testing.T) {
	s := NewDemoSession()

	cutoff := lookup(t, s, "live_set tracks 1 devices 0 parameters 1")
	require.NoError(t, cutoff.Set("value", 0.9))
	assert.Equal(t, remote.KindState, kindOf(cutoff.Set("value", 4.0)))

	reset, err := cutoff.Call("reset")
	require.NoError(t, err)
	assert.Equal(t, 0.5, reset)

	load := lookup(t, s, "live_set tracks 1 devices 0 parameters 4")
	assert.Equal(t, remote.KindPermission, kindOf(load.Set("value", 0.1)))
}

func TestDevice_LoadAndDelete(t *testing.T) {
	s := NewDemoSession()
	track := lookup(t, s, "live_set tracks 3")

	idx, err := track.Call("load_device", "Compressor")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	device := lookup(t, s, "live_set tracks 3 devices 0")
	require.NoError(t, device.Set("enabled", false))
	enabled, err := device.Get("enabled")
	require.NoError(t, err)
	assert.Equal(t, false, enabled)

	_, err = track.Call("delete_device", 0)
	require.NoError(t, err)
	_, err = s.Lookup(context.Background(), "live_set tracks 3 devices 0")
	assert.Equal(t, remote.KindInvalidPath, kindOf(err))
}

func TestClipSlot_CreateOnOccupiedSlot(t *testing.T) {
	s := NewDemoSession()
	slot := lookup(t, s, "live_set tracks 0 clip_slots 0")

	_, err := slot.Call("create_clip", 16.0)
	require.NoError(t, err)
	_, err = slot.Call("create_clip", 16.0)
	assert.Equal(t, remote.KindState, kindOf(err))

	clip, ok := s.Clip(0, 0)
	require.True(t, ok)
	assert.Equal(t, 16.0, clip.Length)
	assert.Equal(t, 16.0, clip.LoopEnd)
}

func TestClip_NoteBatch(t *testing.T) {
	s := NewDemoSession()
	_, err := lookup(t, s, "live_set tracks 1 clip_slots 2").Call("create_clip", 8.0)
	require.NoError(t, err)
	clip := lookup(t, s, "live_set tracks 1 clip_slots 2 clip")

	_, err = clip.Call("add_note", 60, 0.0, 1.0, 100)
	assert.Equal(t, remote.KindState, kindOf(err), "add_note needs an open batch")

	_, err = clip.Call("begin_notes")
	require.NoError(t, err)
	_, err = clip.Call("add_note", 64, 2.0, 0.5, 90)
	require.NoError(t, err)
	_, err = clip.Call("add_note", 60, 0.0, 1.0, 100, false)
	require.NoError(t, err)

	notes, _ := s.ClipNotes(1, 2)
	assert.Empty(t, notes, "notes stay pending until commit")

	added, err := clip.Call("commit_notes")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	notes, _ = s.ClipNotes(1, 2)
	require.Len(t, notes, 2)
	assert.Equal(t, 60, notes[0].Pitch)
	assert.Equal(t, 64, notes[1].Pitch)

	removed, err := clip.Call("remove_notes")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestClip_RejectsInvalidNotes(t *testing.T) {
	s := NewDemoSession()
	_, err := lookup(t, s, "live_set tracks 1 clip_slots 0").Call("create_clip", 4.0)
	require.NoError(t, err)
	clip := lookup(t, s, "live_set tracks 1 clip_slots 0 clip")
	_, err = clip.Call("begin_notes")
	require.NoError(t, err)

	_, err = clip.Call("add_note", 200, 0.0, 1.0, 100)
	assert.Equal(t, remote.KindState, kindOf(err))
	_, err = clip.Call("add_note", 60, 0.0, 0.0, 100)
	assert.Equal(t, remote.KindState, kindOf(err))
}

func TestSession_SelectClipSlot(t *testing.T) {
	s := NewDemoSession()
	root := lookup(t, s, remote.Root)

	sel, err := root.Get("selected_clip_slot")
	require.NoError(t, err)
	assert.Equal(t, "", sel)

	_, err = root.Call("select_clip_slot", 2, 3)
	require.NoError(t, err)
	sel, err = root.Get("selected_clip_slot")
	require.NoError(t, err)
	assert.Equal(t, "live_set tracks 2 clip_slots 3", sel)
}

func TestSession_FailNext(t *testing.T) {
	s := NewDemoSession()
	ctx := context.Background()
	s.FailNext("live_set tracks 0", remote.KindTransient, 2)

	for i := 0; i < 2; i++ {
		_, err := s.Lookup(ctx, "live_set tracks 0")
		assert.Equal(t, remote.KindTransient, kindOf(err))
	}
	_, err := s.Lookup(ctx, "live_set tracks 0")
	assert.NoError(t, err)
	assert.Equal(t, 3, s.Calls())
}

func TestSession_SendMIDI(t *testing.T) {
	s := NewSession()
	root := lookup(t, s, remote.Root)

	_, err := root.Call("send_midi", []any{144.0, 60.0, 100.0})
	require.NoError(t, err)
	_, err = root.Call("send_midi", []byte{0x80, 60, 0})
	require.NoError(t, err)
	_, err = root.Call("send_midi", []any{300.0})
	assert.Equal(t, remote.KindState, kindOf(err))

	assert.Equal(t, [][]byte{{0x90, 60, 100}, {0x80, 60, 0}}, s.MIDIOut())
}

func TestSession_UndoRedo(t *testing.T) {
	s := NewSession()
	root := lookup(t, s, remote.Root)

	_, err := root.Call("undo")
	assert.Equal(t, remote.KindState, kindOf(err))

	_, err = root.Call("create_scene", "Drop")
	require.NoError(t, err)
	_, err = root.Call("undo")
	require.NoError(t, err)
	_, err = root.Call("redo")
	require.NoError(t, err)
}

func TestScene_FireStartsRow(t *testing.T) {
	s := NewDemoSession()
	_, err := lookup(t, s, "live_set tracks 0 clip_slots 1").Call("create_clip", 4.0)
	require.NoError(t, err)

	_, err = lookup(t, s, "live_set scenes 1").Call("fire")
	require.NoError(t, err)

	clip, _ := s.Clip(0, 1)
	assert.True(t, clip.Playing)
}

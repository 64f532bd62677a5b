package host

import (
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

type sessionNode struct {
	session *Session
	path    string
}

func (n *sessionNode) get(prop string) (any, error) {
	s := n.session
	switch prop {
	case "tempo":
		return s.tempo, nil
	case "is_playing":
		return s.playing, nil
	case "metronome":
		return s.metronome, nil
	case "track_count":
		return len(s.tracks), nil
	case "scene_count":
		return len(s.scenes), nil
	case "loop":
		return map[string]any{"start": s.loopStart, "length": s.loopLength}, nil
	case "tracks":
		tracks := make([]map[string]any, 0, len(s.tracks))
		for i, t := range s.tracks {
			tracks = append(tracks, trackSummary(i, t))
		}
		return tracks, nil
	case "scenes":
		scenes := make([]map[string]any, 0, len(s.scenes))
		for i, sc := range s.scenes {
			scenes = append(scenes, map[string]any{"index": i, "name": sc.Name})
		}
		return scenes, nil
	case "selected_track":
		return s.selectedTrack, nil
	case "selected_clip_slot":
		if s.selectedSlot == nil {
			return "", nil
		}
		return remote.MustPath(remote.ClipSlotAt(s.selectedSlot[0], s.selectedSlot[1])), nil
	case "browser":
		items := make([]map[string]any, 0, len(s.browser))
		for _, item := range s.browser {
			items = append(items, item.ToMap())
		}
		return items, nil
	case "info":
		return map[string]any{
			"tempo":       s.tempo,
			"is_playing":  s.playing,
			"metronome":   s.metronome,
			"track_count": len(s.tracks),
			"scene_count": len(s.scenes),
			"loop_start":  s.loopStart,
			"loop_length": s.loopLength,
		}, nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *sessionNode) set(prop string, value any) error {
	s := n.session
	switch prop {
	case "tempo":
		tempo, err := toFloat(value)
		if err != nil {
			return err
		}
		if tempo < minTempo || tempo > maxTempo {
			return outOfRange("tempo", tempo, minTempo, maxTempo)
		}
		s.tempo = tempo
		return nil
	case "metronome":
		on, err := toBool(value)
		if err != nil {
			return err
		}
		s.metronome = on
		return nil
	case "is_playing":
		playing, err := toBool(value)
		if err != nil {
			return err
		}
		s.playing = playing
		return nil
	case "selected_track":
		i, err := toInt(value)
		if err != nil {
			return err
		}
		if i < 0 || i >= len(s.tracks) {
			return &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "track " + toString(value) + " does not exist"}
		}
		s.selectedTrack = i
		return nil
	case "tracks", "scenes", "track_count", "scene_count", "browser", "info", "selected_clip_slot":
		return readOnly(n.path, prop)
	}
	return unknownProp(n.path, prop)
}

func (n *sessionNode) call(method string, args []any) (any, error) {
	s := n.session
	switch method {
	case "start_playing":
		s.playing = true
		return nil, nil
	case "stop_playing":
		s.playing = false
		return nil, nil
	case "continue_playing":
		s.playing = true
		return nil, nil
	case "create_midi_track", "create_audio_track", "create_return_track":
		kind := strings.TrimSuffix(strings.TrimPrefix(method, "create_"), "_track")
		name := stringArg(args, 0, "")
		if name == "" {
			name = strings.ToUpper(kind[:1]) + kind[1:] + " " + toString(len(s.tracks)+1)
		}
		s.addTrack(kind, name)
		s.undoDepth++
		return len(s.tracks) - 1, nil
	case "delete_track":
		i, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(s.tracks) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "track " + toString(i) + " does not exist"}
		}
		s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
		s.syncSends()
		s.clearSelectionFor(i)
		s.undoDepth++
		return nil, nil
	case "duplicate_track":
		i, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(s.tracks) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "track " + toString(i) + " does not exist"}
		}
		dup := cloneTrack(s.tracks[i])
		s.tracks = append(s.tracks[:i+1], append([]*Track{dup}, s.tracks[i+1:]...)...)
		s.undoDepth++
		return i + 1, nil
	case "create_scene":
		name := stringArg(args, 0, "")
		s.scenes = append(s.scenes, &Scene{Name: name})
		for _, t := range s.tracks {
			if t.Kind != TrackReturn {
				t.Slots = append(t.Slots, &ClipSlot{})
			}
		}
		s.undoDepth++
		return len(s.scenes) - 1, nil
	case "delete_scene":
		i, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(s.scenes) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "scene " + toString(i) + " does not exist"}
		}
		if len(s.scenes) == 1 {
			return nil, remote.Errorf(remote.KindState, "cannot delete the last scene")
		}
		s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
		for _, t := range s.tracks {
			if i < len(t.Slots) {
				t.Slots = append(t.Slots[:i], t.Slots[i+1:]...)
			}
		}
		s.selectedSlot = nil
		s.undoDepth++
		return nil, nil
	case "duplicate_scene":
		i, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(s.scenes) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "scene " + toString(i) + " does not exist"}
		}
		dup := &Scene{Name: s.scenes[i].Name}
		s.scenes = append(s.scenes[:i+1], append([]*Scene{dup}, s.scenes[i+1:]...)...)
		for _, t := range s.tracks {
			if i < len(t.Slots) {
				slot := &ClipSlot{}
				if c := t.Slots[i].Clip; c != nil {
					slot.Clip = cloneClip(c)
				}
				t.Slots = append(t.Slots[:i+1], append([]*ClipSlot{slot}, t.Slots[i+1:]...)...)
			}
		}
		s.undoDepth++
		return i + 1, nil
	case "stop_all_clips":
		for _, t := range s.tracks {
			for _, slot := range t.Slots {
				if slot.Clip != nil {
					slot.Clip.Playing = false
				}
			}
		}
		return nil, nil
	case "select_clip_slot":
		track, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		slot, err := intArg(args, 1)
		if err != nil {
			return nil, err
		}
		if track < 0 || track >= len(s.tracks) || slot < 0 || slot >= len(s.tracks[track].Slots) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "clip slot does not exist"}
		}
		s.selectedTrack = track
		s.selectedSlot = &[2]int{track, slot}
		return nil, nil
	case "undo":
		if s.undoDepth == 0 {
			return nil, remote.Errorf(remote.KindState, "nothing to undo")
		}
		s.undoDepth--
		s.redoDepth++
		return nil, nil
	case "redo":
		if s.redoDepth == 0 {
			return nil, remote.Errorf(remote.KindState, "nothing to redo")
		}
		s.redoDepth--
		s.undoDepth++
		return nil, nil
	case "tap_tempo":
		return s.tempo, nil
	case "set_loop":
		start, err := floatArg(args, 0)
		if err != nil {
			return nil, err
		}
		length, err := floatArg(args, 1)
		if err != nil {
			return nil, err
		}
		if start < 0 || length <= 0 {
			return nil, remote.Errorf(remote.KindState, "invalid loop %v+%v", start, length)
		}
		s.loopStart, s.loopLength = start, length
		return nil, nil
	case "send_midi":
		v, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		msg, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(s.midiOut) >= maxMIDIMonitor {
			s.midiOut = s.midiOut[1:]
		}
		s.midiOut = append(s.midiOut, append([]byte(nil), msg...))
		return nil, nil
	}
	return nil, unknownMethod(n.path, method)
}

func (s *Session) clearSelectionFor(track int) {
	if s.selectedTrack == track {
		s.selectedTrack = -1
	} else if s.selectedTrack > track {
		s.selectedTrack--
	}
	if s.selectedSlot != nil && s.selectedSlot[0] == track {
		s.selectedSlot = nil
	} else if s.selectedSlot != nil && s.selectedSlot[0] > track {
		s.selectedSlot[0]--
	}
}

func cloneTrack(t *Track) *Track {
	dup := *t
	dup.Name = t.Name + " copy"
	dup.Sends = append([]float64(nil), t.Sends...)
	dup.Devices = nil
	for _, d := range t.Devices {
		dd := *d
		dd.Params = nil
		for _, p := range d.Params {
			pp := *p
			dd.Params = append(dd.Params, &pp)
		}
		dup.Devices = append(dup.Devices, &dd)
	}
	dup.Slots = nil
	for _, slot := range t.Slots {
		ns := &ClipSlot{}
		if slot.Clip != nil {
			ns.Clip = cloneClip(slot.Clip)
		}
		dup.Slots = append(dup.Slots, ns)
	}
	return &dup
}

func cloneClip(c *Clip) *Clip {
	dup := *c
	dup.Playing = false
	dup.batching = false
	dup.pending = nil
	dup.Notes = append(c.Notes[:0:0], c.Notes...)
	return &dup
}

func trackSummary(i int, t *Track) map[string]any {
	return map[string]any{
		"index":   i,
		"name":    t.Name,
		"kind":    t.Kind,
		"volume":  t.Volume,
		"pan":     t.Pan,
		"mute":    t.Mute,
		"solo":    t.Solo,
		"arm":     t.Arm,
		"devices": len(t.Devices),
	}
}

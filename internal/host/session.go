// Package host is an in-memory performance session exposed as a
// path-addressed object graph. It backs the bridge when no real host is
// configured and is the fixture for tests.
package host

import (
	"context"
	"sync"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

const (
	defaultTempo     = 120.0
	minTempo         = 20.0
	maxTempo         = 999.0
	defaultSlots     = 8
	defaultVolume    = 0.85
	defaultClipBeats = 16.0
	maxMIDIMonitor   = 512
)

// Track kinds
const (
	TrackMIDI   = "midi"
	TrackAudio  = "audio"
	TrackReturn = "return"
)

type Parameter struct {
	Name     string
	Value    float64
	Min      float64
	Max      float64
	Default  float64
	ReadOnly bool
}

type Device struct {
	Name    string
	Class   string
	Enabled bool
	Params  []*Parameter
}

type Clip struct {
	Name      string
	Length    float64
	LoopStart float64
	LoopEnd   float64
	Playing   bool
	Notes     []models.NoteEvent

	batching bool
	pending  []models.NoteEvent
}

type ClipSlot struct {
	Clip *Clip
}

type Track struct {
	Name    string
	Kind    string
	Color   int
	Volume  float64
	Pan     float64
	Mute    bool
	Solo    bool
	Arm     bool
	Sends   []float64
	Devices []*Device
	Slots   []*ClipSlot
}

type Scene struct {
	Name string
}

type fault struct {
	kind      remote.Kind
	remaining int
}

// Session is the root of the in-memory graph. All access is serialized by mu.
type Session struct {
	mu sync.Mutex

	tempo      float64
	playing    bool
	metronome  bool
	loopStart  float64
	loopLength float64
	tracks     []*Track
	scenes     []*Scene
	browser    []models.LibraryItem

	selectedTrack int
	selectedSlot  *[2]int

	undoDepth int
	redoDepth int
	midiOut   [][]byte

	faults map[string]*fault
	calls  int
}

// NewSession returns an empty session at 120 BPM with eight scenes
func NewSession() *Session {
	s := &Session{
		tempo:         defaultTempo,
		loopLength:    defaultClipBeats,
		selectedTrack: -1,
		faults:        make(map[string]*fault),
		browser:       defaultBrowser(),
	}
	for i := 0; i < defaultSlots; i++ {
		s.scenes = append(s.scenes, &Scene{})
	}
	return s
}

// NewDemoSession returns a session with a few populated tracks
func NewDemoSession() *Session {
	s := NewSession()
	s.mu.Lock()
	defer s.mu.Unlock()

	drums := s.addTrack(TrackMIDI, "Drums")
	drums.Devices = append(drums.Devices, newDevice("Drum Rack", "DrumGroupDevice"))
	bass := s.addTrack(TrackMIDI, "Bass")
	bass.Devices = append(bass.Devices, newDevice("Operator", "Operator"))
	keys := s.addTrack(TrackMIDI, "Keys")
	keys.Devices = append(keys.Devices, newDevice("Wavetable", "InstrumentVector"), newDevice("Reverb", "Reverb"))
	s.addTrack(TrackAudio, "Vox")
	s.addTrack(TrackReturn, "A-Reverb")
	return s
}

// Lookup implements remote.Graph
func (s *Session) Lookup(_ context.Context, path string) (remote.Object, error) {
	loc, err := remote.ParsePath(path)
	if err != nil {
		return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := s.checkFault(path); err != nil {
		return nil, err
	}

	node := node{session: s, loc: loc, path: path}
	if _, err := node.resolve(); err != nil {
		return nil, err
	}
	return &node, nil
}

// FailNext makes the next n operations on path fail with kind
func (s *Session) FailNext(path string, kind remote.Kind, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &fault{kind: kind, remaining: n}
}

// Calls returns how many lookups and operations the session has served
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MIDIOut returns the raw MIDI messages received through send_midi
func (s *Session) MIDIOut() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.midiOut))
	copy(out, s.midiOut)
	return out
}

// AddBrowserItem makes item visible to library searches
func (s *Session) AddBrowserItem(item models.LibraryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browser = append(s.browser, item)
}

// Track returns a copy of the track at index i
func (s *Session) Track(i int) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tracks) {
		return Track{}, false
	}
	return *s.tracks[i], true
}

// TrackCount returns the number of tracks
func (s *Session) TrackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// ClipNotes returns the committed notes of the clip at track/slot
func (s *Session) ClipNotes(track, slot int) ([]models.NoteEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if track < 0 || track >= len(s.tracks) || slot < 0 || slot >= len(s.tracks[track].Slots) {
		return nil, false
	}
	clip := s.tracks[track].Slots[slot].Clip
	if clip == nil {
		return nil, false
	}
	notes := make([]models.NoteEvent, len(clip.Notes))
	copy(notes, clip.Notes)
	return notes, true
}

// Clip returns a copy of the clip at track/slot
func (s *Session) Clip(track, slot int) (Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if track < 0 || track >= len(s.tracks) || slot < 0 || slot >= len(s.tracks[track].Slots) {
		return Clip{}, false
	}
	clip := s.tracks[track].Slots[slot].Clip
	if clip == nil {
		return Clip{}, false
	}
	return *clip, true
}

func (s *Session) checkFault(path string) error {
	f, ok := s.faults[path]
	if !ok || f.remaining <= 0 {
		return nil
	}
	f.remaining--
	if f.remaining == 0 {
		delete(s.faults, path)
	}
	return &remote.Error{Kind: f.kind, Path: path, Message: "injected " + f.kind.String() + " failure"}
}

func (s *Session) addTrack(kind, name string) *Track {
	t := &Track{
		Name:   name,
		Kind:   kind,
		Volume: defaultVolume,
	}
	if kind != TrackReturn {
		for i := 0; i < len(s.scenes); i++ {
			t.Slots = append(t.Slots, &ClipSlot{})
		}
	}
	s.tracks = append(s.tracks, t)
	s.syncSends()
	return t
}

// syncSends keeps one send per return track on every track
func (s *Session) syncSends() {
	returns := 0
	for _, t := range s.tracks {
		if t.Kind == TrackReturn {
			returns++
		}
	}
	for _, t := range s.tracks {
		for len(t.Sends) < returns {
			t.Sends = append(t.Sends, 0)
		}
		t.Sends = t.Sends[:returns]
	}
}

func newDevice(name, class string) *Device {
	return &Device{
		Name:    name,
		Class:   class,
		Enabled: true,
		Params: []*Parameter{
			{Name: "Device On", Value: 1, Min: 0, Max: 1, Default: 1},
			{Name: "Cutoff", Value: 0.5, Min: 0, Max: 1, Default: 0.5},
			{Name: "Resonance", Value: 0.2, Min: 0, Max: 1, Default: 0.2},
			{Name: "Dry/Wet", Value: 1, Min: 0, Max: 1, Default: 1},
			{Name: "CPU Load", Value: 0, Min: 0, Max: 1, ReadOnly: true},
		},
	}
}

func defaultBrowser() []models.LibraryItem {
	bpm := func(v float64) *float64 { return &v }
	return []models.LibraryItem{
		{Path: "instruments/Operator", Name: "Operator", Type: "instrument"},
		{Path: "instruments/Wavetable", Name: "Wavetable", Type: "instrument"},
		{Path: "instruments/Drum Rack", Name: "Drum Rack", Type: "instrument"},
		{Path: "audio_effects/Reverb", Name: "Reverb", Type: "audio_effect"},
		{Path: "audio_effects/Compressor", Name: "Compressor", Type: "audio_effect"},
		{Path: "samples/loops/Kick Loop 120.wav", Name: "Kick Loop 120", Type: "sample", BPM: bpm(120), Key: "C", Genre: "techno"},
		{Path: "samples/loops/Tech House Groove.wav", Name: "Tech House Groove", Type: "sample", BPM: bpm(124), Key: "Am", Genre: "house"},
		{Path: "samples/one_shots/Kick 909.wav", Name: "Kick 909", Type: "sample"},
	}
}

package scheduler

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// TicksPerBeat is the SMF resolution used for exports
const TicksPerBeat = 480

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

// WriteSMF writes notes as a single-track Standard MIDI File at tempo
func WriteSMF(w io.Writer, notes []models.NoteEvent, tempo float64, name string) (int64, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerBeat)

	var tr smf.Track
	if name != "" {
		tr.Add(0, smf.MetaTrackSequenceName(name))
	}
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(tempo))

	events := make([]timedMessage, 0, len(notes)*2)
	for _, n := range notes {
		if n.Mute || n.Pitch < 0 || n.Pitch > 127 || n.Duration <= 0 {
			continue
		}
		key := uint8(n.Pitch)
		events = append(events,
			timedMessage{tick: beatsToTicks(n.StartTime), msg: midi.NoteOn(0, key, uint8(clampVelocity(n.Velocity)))},
			timedMessage{tick: beatsToTicks(n.End()), off: true, msg: midi.NoteOff(0, key)},
		)
	}
	// note-offs first at equal ticks so repeated pitches retrigger
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var last uint32
	for _, ev := range events {
		tr.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return 0, fmt.Errorf("failed to add track: %w", err)
	}
	return s.WriteTo(w)
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ExportFile writes notes to dir/name.mid and returns the file path
func ExportFile(dir, name string, notes []models.NoteEvent, tempo float64) (string, error) {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(strings.TrimSuffix(name, ".mid"), "_"), "_.")
	if base == "" {
		base = "buffer"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, base+".mid")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := WriteSMF(f, notes, tempo, base); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

func beatsToTicks(beats float64) uint32 {
	if !(beats > 0) {
		return 0
	}
	return uint32(math.Round(beats * TicksPerBeat))
}

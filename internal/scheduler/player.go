package scheduler

import (
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// Sender delivers one MIDI message
type Sender func(msg midi.Message) error

// Timer is the part of *time.Timer the player needs
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Player schedules note-on and note-off messages relative to now. Calls are
// fire-and-forget; Stop cancels what has not fired yet.
type Player struct {
	send      Sender
	afterFunc AfterFunc
	channel   uint8

	mu       sync.Mutex
	timers   map[int]Timer
	nextID   int
	sounding map[uint8]int
}

// PlayerOption customises a Player
type PlayerOption func(*Player)

// WithAfterFunc replaces time.AfterFunc, for tests
func WithAfterFunc(f AfterFunc) PlayerOption {
	return func(p *Player) {
		p.afterFunc = f
	}
}

// WithChannel sets the MIDI channel (0-15)
func WithChannel(ch uint8) PlayerOption {
	return func(p *Player) {
		p.channel = ch & 0x0F
	}
}

// NewPlayer creates a player sending through send
func NewPlayer(send Sender, opts ...PlayerOption) *Player {
	p := &Player{
		send:      send,
		afterFunc: realAfterFunc,
		timers:    make(map[int]Timer),
		sounding:  make(map[uint8]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule describes what Play queued
type Schedule struct {
	Notes      int     `json:"notes"`
	Skipped    int     `json:"skipped"`
	DurationMs float64 `json:"duration_ms"`
}

// BeatsToMs converts a beat position to milliseconds at tempo
func BeatsToMs(beats, tempo float64) float64 {
	return beats * 60000 / tempo
}

// Play queues every unmuted note. Note-on fires at startTime*60000/tempo ms
// and note-off durationMs later.
func (p *Player) Play(notes []models.NoteEvent, tempo float64) Schedule {
	var sched Schedule
	for _, n := range notes {
		if n.Mute || n.Pitch < 0 || n.Pitch > 127 || n.Duration <= 0 {
			sched.Skipped++
			continue
		}
		startMs := BeatsToMs(n.StartTime, tempo)
		endMs := startMs + BeatsToMs(n.Duration, tempo)

		key := uint8(n.Pitch)
		velocity := uint8(clampVelocity(n.Velocity))
		p.after(startMs, func() {
			p.noteOn(key, velocity)
		})
		p.after(endMs, func() {
			p.noteOff(key)
		})

		sched.Notes++
		if endMs > sched.DurationMs {
			sched.DurationMs = endMs
		}
	}
	return sched
}

// Stop cancels pending messages and silences sounding notes. It returns the
// number of cancelled timers.
func (p *Player) Stop() int {
	p.mu.Lock()
	cancelled := 0
	for id, t := range p.timers {
		if t.Stop() {
			cancelled++
		}
		delete(p.timers, id)
	}
	sounding := make([]uint8, 0, len(p.sounding))
	for key := range p.sounding {
		sounding = append(sounding, key)
	}
	p.sounding = make(map[uint8]int)
	p.mu.Unlock()

	for _, key := range sounding {
		p.deliver(midi.NoteOff(p.channel, key))
	}
	return cancelled
}

// Pending is the number of messages not yet sent
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

func (p *Player) after(ms float64, f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.timers[id] = p.afterFunc(time.Duration(ms*float64(time.Millisecond)), func() {
		p.mu.Lock()
		_, live := p.timers[id]
		delete(p.timers, id)
		p.mu.Unlock()
		if live {
			f()
		}
	})
}

func (p *Player) noteOn(key, velocity uint8) {
	p.mu.Lock()
	p.sounding[key]++
	p.mu.Unlock()
	p.deliver(midi.NoteOn(p.channel, key, velocity))
}

func (p *Player) noteOff(key uint8) {
	p.mu.Lock()
	if p.sounding[key] > 1 {
		p.sounding[key]--
	} else {
		delete(p.sounding, key)
	}
	p.mu.Unlock()
	p.deliver(midi.NoteOff(p.channel, key))
}

func (p *Player) deliver(msg midi.Message) {
	if err := p.send(msg); err != nil {
		logger.Warn("Failed to send MIDI message", logger.Fields{
			"message": msg.String(),
			"error":   err.Error(),
		})
	}
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

// Package session holds the mutable defaults that parameterize generation.
// A Defaults value is owned by the dispatcher goroutine and is not safe for
// concurrent use.
package session

import (
	"math"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// Ranges enforced by the setters
const (
	MinBars     = 1
	MaxBars     = 32
	MinPercent  = 0
	MaxPercent  = 100
	MinDensity  = 0.1
	MaxDensity  = 2.0
	MinTempo    = 20.0
	MaxTempo    = 999.0
	BeatsPerBar = 4
)

// Defaults are the session-wide generation parameters
type Defaults struct {
	Key       string  `json:"key"`
	Bars      int     `json:"bars"`
	Style     string  `json:"style"`
	Voicing   string  `json:"voicing"`
	Pattern   string  `json:"pattern"`
	Tempo     float64 `json:"tempo"`
	DrumGenre string  `json:"drum_genre"`
	Swing     int     `json:"swing"`
	Humanize  int     `json:"humanize"`
	Density   float64 `json:"density"`
}

// Startup returns the fixed defaults every session begins with
func Startup() Defaults {
	return Defaults{
		Key:       "C",
		Bars:      4,
		Style:     "pop",
		Voicing:   "close",
		Pattern:   "straight",
		Tempo:     120,
		DrumGenre: "house",
		Swing:     0,
		Humanize:  0,
		Density:   1.0,
	}
}

// Reset restores the startup defaults
func (d *Defaults) Reset() {
	*d = Startup()
}

// SetKey stores the key as given, trimmed. Empty input keeps the current key.
func (d *Defaults) SetKey(key string) string {
	if key = strings.TrimSpace(key); key != "" {
		d.Key = key
	}
	return d.Key
}

// SetBars clamps to [1, 32]
func (d *Defaults) SetBars(bars int) int {
	d.Bars = clampInt(bars, MinBars, MaxBars)
	return d.Bars
}

func (d *Defaults) SetStyle(style string) string {
	if style = strings.ToLower(strings.TrimSpace(style)); style != "" {
		d.Style = style
	}
	return d.Style
}

func (d *Defaults) SetVoicing(voicing string) string {
	if voicing = strings.ToLower(strings.TrimSpace(voicing)); voicing != "" {
		d.Voicing = voicing
	}
	return d.Voicing
}

func (d *Defaults) SetPattern(pattern string) string {
	if pattern = strings.ToLower(strings.TrimSpace(pattern)); pattern != "" {
		d.Pattern = pattern
	}
	return d.Pattern
}

// SetTempo clamps to the host's tempo range
func (d *Defaults) SetTempo(bpm float64) float64 {
	d.Tempo = clampFloat(bpm, MinTempo, MaxTempo)
	return d.Tempo
}

func (d *Defaults) SetDrumGenre(genre string) string {
	if genre = strings.ToLower(strings.TrimSpace(genre)); genre != "" {
		d.DrumGenre = genre
	}
	return d.DrumGenre
}

// SetSwing clamps to [0, 100]
func (d *Defaults) SetSwing(swing int) int {
	d.Swing = clampInt(swing, MinPercent, MaxPercent)
	return d.Swing
}

// SetHumanize clamps to [0, 100]
func (d *Defaults) SetHumanize(humanize int) int {
	d.Humanize = clampInt(humanize, MinPercent, MaxPercent)
	return d.Humanize
}

// SetDensity clamps to [0.1, 2.0]
func (d *Defaults) SetDensity(density float64) float64 {
	d.Density = clampFloat(density, MinDensity, MaxDensity)
	return d.Density
}

// LoopBeats is the insertion window implied by Bars
func (d Defaults) LoopBeats() float64 {
	return float64(d.Bars * BeatsPerBar)
}

// Request builds a generation request of kind from the current defaults
func (d Defaults) Request(kind string) models.GenerationRequest {
	return models.GenerationRequest{
		Kind:      kind,
		Key:       d.Key,
		Bars:      d.Bars,
		Style:     d.Style,
		Voicing:   d.Voicing,
		Pattern:   d.Pattern,
		Tempo:     d.Tempo,
		DrumGenre: d.DrumGenre,
		Swing:     d.Swing,
		Humanize:  d.Humanize,
		Density:   d.Density,
	}
}

// Map is the loosely-typed form used in command results
func (d Defaults) Map() map[string]any {
	return map[string]any{
		"key":        d.Key,
		"bars":       d.Bars,
		"style":      d.Style,
		"voicing":    d.Voicing,
		"pattern":    d.Pattern,
		"tempo":      d.Tempo,
		"drum_genre": d.DrumGenre,
		"swing":      d.Swing,
		"humanize":   d.Humanize,
		"density":    d.Density,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

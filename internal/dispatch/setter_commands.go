package dispatch

import (
	"fmt"
	"strings"
)

// Setters never fail on range: values are clamped and the reply reports
// what was stored.

func stored(field string, value any) (*outcome, error) {
	return done(fmt.Sprintf("%s set to %v", titleCase(strings.ReplaceAll(field, "_", " ")), value), map[string]any{field: value})
}

func clamped(field string, requested, value any) (*outcome, error) {
	fields := map[string]any{field: value}
	message := fmt.Sprintf("%s set to %v", titleCase(strings.ReplaceAll(field, "_", " ")), value)
	if fmt.Sprint(requested) != fmt.Sprint(value) {
		fields["requested"] = requested
		fields["clamped"] = true
		message += fmt.Sprintf(" (clamped from %v)", requested)
	}
	return done(message, fields)
}

func (e *Engine) setKey(c *call) (*outcome, error) {
	key := c.args.rest(0)
	return stored("key", e.defaults.SetKey(key))
}

func (e *Engine) setBars(c *call) (*outcome, error) {
	bars, err := c.args.int(0, "bars")
	if err != nil {
		return nil, err
	}
	return clamped("bars", bars, e.defaults.SetBars(bars))
}

func (e *Engine) setStyle(c *call) (*outcome, error) {
	style := c.args.rest(0)
	return stored("style", e.defaults.SetStyle(style))
}

func (e *Engine) setVoicing(c *call) (*outcome, error) {
	voicing := c.args.rest(0)
	return stored("voicing", e.defaults.SetVoicing(voicing))
}

func (e *Engine) setPattern(c *call) (*outcome, error) {
	pattern := c.args.rest(0)
	return stored("pattern", e.defaults.SetPattern(pattern))
}

func (e *Engine) setTempo(c *call) (*outcome, error) {
	bpm, err := c.args.float(0, "tempo")
	if err != nil {
		return nil, err
	}
	return clamped("tempo", bpm, e.defaults.SetTempo(bpm))
}

func (e *Engine) setDrumGenre(c *call) (*outcome, error) {
	genre := c.args.rest(0)
	return stored("drum_genre", e.defaults.SetDrumGenre(genre))
}

func (e *Engine) setSwing(c *call) (*outcome, error) {
	swing, err := c.args.int(0, "swing")
	if err != nil {
		return nil, err
	}
	return clamped("swing", swing, e.defaults.SetSwing(swing))
}

func (e *Engine) setHumanize(c *call) (*outcome, error) {
	humanize, err := c.args.int(0, "humanize")
	if err != nil {
		return nil, err
	}
	return clamped("humanize", humanize, e.defaults.SetHumanize(humanize))
}

func (e *Engine) setDensity(c *call) (*outcome, error) {
	density, err := c.args.float(0, "density")
	if err != nil {
		return nil, err
	}
	return clamped("density", density, e.defaults.SetDensity(density))
}

func (e *Engine) getDefaults(_ *call) (*outcome, error) {
	return done(fmt.Sprintf("%s, %d bars, %s at %.0f BPM", e.defaults.Key, e.defaults.Bars, e.defaults.Style, e.defaults.Tempo), map[string]any{
		"defaults": e.defaults.Map(),
	})
}

func (e *Engine) resetDefaults(_ *call) (*outcome, error) {
	e.defaults.Reset()
	return done("Defaults reset", map[string]any{"defaults": e.defaults.Map()})
}

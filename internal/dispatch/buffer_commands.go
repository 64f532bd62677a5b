package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/Conceptual-Machines/stagehand/internal/scheduler"
)

const showBufferLimit = 32

// generate requests notes of kind from the defaults. The call runs against
// the current epoch: a clear or stop issued meanwhile cancels it and a late
// response is discarded.
func generate(kind string) handler {
	return func(e *Engine, c *call) (*outcome, error) {
		if e.generator == nil || !e.connected {
			return nil, &remote.Error{Kind: remote.KindConnection, Op: c.name, Message: "generation service not connected, run health_check"}
		}

		req := e.defaults.Request(kind)
		first := 0
		if seed, ok, err := seedArg(c.args.str(0)); err != nil {
			return nil, err
		} else if ok {
			req.Seed = &seed
			first = 1
		}
		req.Prompt = c.args.rest(first)
		epoch := e.epoch

		return e.async(c, e.genCtx, func(ctx context.Context) (any, error) {
			return e.generator.Generate(ctx, req)
		}, func(v any, err error) (*outcome, error) {
			if epoch != e.epoch {
				return nil, errSuperseded
			}
			if err != nil {
				if remote.Classify(err).Kind == remote.KindConnection {
					e.setConnected(false, err.Error())
				}
				return nil, err
			}
			notes, _ := v.([]models.NoteEvent)
			dropped := e.buffer.Replace(notes, c.name)
			fields := map[string]any{
				"kind":  kind,
				"count": e.buffer.Len(),
				"beats": e.buffer.End(),
			}
			if dropped > 0 {
				fields["dropped"] = dropped
			}
			return done(fmt.Sprintf("Generated %d %s notes", e.buffer.Len(), kind), fields)
		})
	}
}

// seedArg reads a leading seed:N token. ok is false when the token is not a
// seed, in which case it belongs to the prompt.
func seedArg(token string) (seed int, ok bool, err error) {
	raw, found := strings.CutPrefix(strings.ToLower(token), "seed:")
	if !found {
		return 0, false, nil
	}
	seed, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, usagef("seed must be an integer, got %q", token)
	}
	return seed, true, nil
}

func (e *Engine) play(_ *call) (*outcome, error) {
	if e.buffer.Len() == 0 {
		return nil, &remote.Error{Kind: remote.KindState, Op: "play", Message: "note buffer is empty"}
	}
	sched := e.player.Play(e.buffer.Notes(), e.defaults.Tempo)
	return done(fmt.Sprintf("Playing %d notes at %.0f BPM", sched.Notes, e.defaults.Tempo), map[string]any{
		"notes":       sched.Notes,
		"skipped":     sched.Skipped,
		"tempo":       e.defaults.Tempo,
		"duration_ms": sched.DurationMs,
	})
}

// stop silences playback and cancels in-flight generation; the buffer stays
func (e *Engine) stop(_ *call) (*outcome, error) {
	cancelled := e.player.Stop()
	e.bumpEpoch()
	return done("Stopped", map[string]any{"cancelled": cancelled, "epoch": e.epoch})
}

func (e *Engine) clear(_ *call) (*outcome, error) {
	e.player.Stop()
	e.bumpEpoch()
	e.buffer.Clear()
	return done("Buffer cleared", map[string]any{"epoch": e.epoch})
}

func (e *Engine) insert(c *call) (*outcome, error) {
	if e.buffer.Len() == 0 {
		return nil, &remote.Error{Kind: remote.KindState, Op: c.name, Message: "note buffer is empty"}
	}
	res, err := e.inserter.Insert(e.ctx, e.buffer.Notes(), e.defaults.Bars)
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Inserted %d notes into %s", res.Inserted, res.Path), res.Map())
}

func (e *Engine) insertClip(c *call) (*outcome, error) {
	if e.buffer.Len() == 0 {
		return nil, &remote.Error{Kind: remote.KindState, Op: c.name, Message: "note buffer is empty"}
	}
	res, err := e.inserter.InsertClip(e.ctx, e.buffer.Notes())
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Inserted %d notes into a %.0f-beat clip", res.Inserted, res.LoopEnd), res.Map())
}

func (e *Engine) showBuffer(c *call) (*outcome, error) {
	limit := showBufferLimit
	if c.args.has(0) {
		n, err := c.args.int(0, "limit")
		if err != nil {
			return nil, err
		}
		limit = n
	}
	return done(fmt.Sprintf("%d notes in the buffer", e.buffer.Len()), e.buffer.Summary(limit))
}

func (e *Engine) transpose(c *call) (*outcome, error) {
	semitones, err := c.args.int(0, "semitones")
	if err != nil {
		return nil, err
	}
	dropped := e.buffer.Transpose(semitones)
	return done(fmt.Sprintf("Transposed by %d semitones", semitones), map[string]any{
		"semitones": semitones,
		"count":     e.buffer.Len(),
		"dropped":   dropped,
	})
}

func (e *Engine) exportMIDI(c *call) (*outcome, error) {
	if e.buffer.Len() == 0 {
		return nil, &remote.Error{Kind: remote.KindState, Op: c.name, Message: "note buffer is empty"}
	}
	name := c.args.rest(0)
	if name == "" {
		name = fmt.Sprintf("%s-%s", e.buffer.Source(), time.Now().Format("20060102-150405"))
	}
	path, err := scheduler.ExportFile(e.exportDir, name, e.buffer.Notes(), e.defaults.Tempo)
	if err != nil {
		return nil, err
	}
	return done("Exported to "+path, map[string]any{"path": path, "count": e.buffer.Len()})
}

// ask sends free text to the NLP fallback
func (e *Engine) ask(c *call) (*outcome, error) {
	return e.interpret(c, c.args.rest(0))
}

// fallback handles names outside the table
func (e *Engine) fallback(c *call) (*outcome, error) {
	return e.interpret(c, c.line)
}

func (e *Engine) interpret(c *call, prompt string) (*outcome, error) {
	if e.interpreter == nil {
		return nil, usagef("unknown command %q", c.name)
	}
	epoch := e.epoch
	return e.async(c, e.genCtx, func(ctx context.Context) (any, error) {
		return e.interpreter.Interpret(ctx, prompt)
	}, func(v any, err error) (*outcome, error) {
		if err != nil {
			return nil, err
		}
		result, _ := v.(*models.Interpretation)
		if result == nil {
			return nil, &remote.Error{Kind: remote.KindUnknown, Op: c.name, Message: "empty interpretation"}
		}
		fields := map[string]any{"description": result.Description, "prompt": prompt}
		if notes := result.Events(); len(notes) > 0 {
			if epoch != e.epoch {
				return nil, errSuperseded
			}
			if dropped := e.buffer.Replace(notes, c.name); dropped > 0 {
				fields["dropped"] = dropped
			}
			fields["count"] = e.buffer.Len()
		}
		return done(result.Description, fields)
	})
}

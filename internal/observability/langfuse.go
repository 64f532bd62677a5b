// Package observability traces NLP fallback calls to Langfuse.
package observability

import (
	"context"
	"log"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/Conceptual-Machines/stagehand/internal/config"
)

// Tracer wraps the Langfuse client. A disabled Tracer hands out no-op traces.
type Tracer struct {
	client  *langfuse.Langfuse
	enabled bool
	ctx     context.Context
}

// NewTracer creates a Langfuse tracer. The SDK reads LANGFUSE_HOST,
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY from the environment.
func NewTracer(ctx context.Context, cfg *config.Config) *Tracer {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" || cfg.LangfusePublicKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or keys not set)")
		return &Tracer{enabled: false, ctx: ctx}
	}

	lf := langfuse.New(ctx)
	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	return &Tracer{client: lf, enabled: true, ctx: ctx}
}

// Disabled returns a tracer that records nothing
func Disabled() *Tracer {
	return &Tracer{enabled: false, ctx: context.Background()}
}

// IsEnabled returns whether Langfuse is enabled
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled && t.client != nil
}

// StartTrace starts a new trace in Langfuse
func (t *Tracer) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !t.IsEnabled() {
		return &Trace{enabled: false, ctx: ctx}
	}

	trace, err := t.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &Trace{enabled: false, ctx: ctx}
	}

	return &Trace{
		trace:   trace,
		enabled: true,
		ctx:     ctx,
		client:  t.client,
	}
}

// Flush sends queued events, used on shutdown
func (t *Tracer) Flush() {
	if t.IsEnabled() {
		t.client.Flush(t.ctx)
	}
}

// Trace represents a Langfuse trace
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Generation creates a new generation span within the trace
func (t *Trace) Generation(name string, metadata map[string]interface{}) *Generation {
	if !t.enabled {
		return &Generation{enabled: false}
	}

	now := time.Now()
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		StartTime: &now,
		Metadata:  metadata,
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return &Generation{enabled: false}
	}

	return &Generation{
		generation: gen,
		enabled:    true,
		client:     t.client,
	}
}

// Finish completes the trace and flushes data to Langfuse
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// Generation represents a Langfuse generation span
type Generation struct {
	generation *model.Generation
	enabled    bool
	client     *langfuse.Langfuse
}

// Usage is the provider-neutral token count of one LLM call
type Usage struct {
	Input     int
	Output    int
	Total     int
	Reasoning int
}

// Record stores the prompt, the model output and token usage
func (g *Generation) Record(modelName string, input, output interface{}, usage Usage) {
	if !g.enabled || g.generation == nil {
		return
	}

	cost := EstimateCost(modelName, usage)
	g.generation.Model = modelName
	g.generation.Input = input
	g.generation.Output = output
	g.generation.Usage = model.Usage{
		Input:     usage.Input,
		Output:    usage.Output,
		Total:     usage.Total,
		Unit:      model.ModelUsageUnitTokens,
		TotalCost: cost,
	}
	g.generation.Metadata = map[string]interface{}{
		"model":    modelName,
		"cost_usd": FormatCost(cost),
	}
}

// Fail marks the generation as failed
func (g *Generation) Fail(err error) {
	if !g.enabled || g.generation == nil {
		return
	}
	g.generation.Level = model.ObservationLevelError
	g.generation.StatusMessage = err.Error()
}

// Finish completes the generation and sends it to Langfuse
func (g *Generation) Finish() {
	if g.enabled && g.generation != nil && g.client != nil {
		now := time.Now()
		g.generation.EndTime = &now
		if _, err := g.client.GenerationEnd(g.generation); err != nil {
			log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
		}
	}
}

package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/observability"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	geminiUserRole     = "user"
)

// GeminiProvider interprets text with Google's Gemini API
type GeminiProvider struct {
	client       *genai.Client
	model        string
	instructions string
	tracer       *observability.Tracer
}

// NewGeminiProvider creates a new Gemini interpreter
func NewGeminiProvider(ctx context.Context, apiKey, model, instructions string, tracer *observability.Tracer) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:       client,
		model:        model,
		instructions: orDefault(instructions),
		tracer:       tracer,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Interpret implements Interpreter
func (p *GeminiProvider) Interpret(ctx context.Context, prompt string) (*models.Interpretation, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "gemini.interpret")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)
	transaction.SetTag("provider", providerNameGemini)

	trace := p.tracer.StartTrace(ctx, "nlp.interpret", map[string]interface{}{"provider": providerNameGemini})
	defer trace.Finish()
	gen := trace.Generation("interpret", nil)
	defer gen.Finish()

	span := transaction.StartChild("gemini.api_call")
	result, err := p.client.Models.GenerateContent(ctx, p.model, p.buildContents(prompt), p.buildConfig())
	span.Finish()
	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return nil, providerError(providerNameGemini, err)
	}

	text := responseText(result)
	usage := observability.Usage{}
	if result.UsageMetadata != nil {
		usage.Input = int(result.UsageMetadata.PromptTokenCount)
		usage.Output = int(result.UsageMetadata.CandidatesTokenCount)
		usage.Total = int(result.UsageMetadata.TotalTokenCount)
		usage.Reasoning = int(result.UsageMetadata.ThoughtsTokenCount)
	}
	gen.Record(p.model, prompt, text, usage)

	out, err := parseInterpretation(providerNameGemini, text)
	if err != nil {
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI INTERPRETATION COMPLETED in %v", time.Since(startTime))
	return out, nil
}

func (p *GeminiProvider) buildContents(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role:  geminiUserRole,
		Parts: []*genai.Part{{Text: prompt}},
	}}
}

func (p *GeminiProvider) buildConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: p.instructions}},
		},
		ResponseMIMEType: mimeTypeJSON,
		ResponseSchema:   interpretationSchemaGemini(),
	}
}

// interpretationSchemaGemini mirrors GetInterpretationSchema in Gemini's types
func interpretationSchemaGemini() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString},
			"notes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"pitch":      {Type: genai.TypeInteger},
						"velocity":   {Type: genai.TypeInteger},
						"start_time": {Type: genai.TypeNumber},
						"duration":   {Type: genai.TypeNumber},
					},
					Required: []string{"pitch", "velocity", "start_time", "duration"},
				},
			},
		},
		Required: []string{"description", "notes"},
	}
}

// responseText joins the text parts of the first candidate
func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

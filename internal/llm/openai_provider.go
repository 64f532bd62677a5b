package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/observability"
)

const providerNameOpenAI = "openai"

// modelsWithReasoning accept the reasoning parameter
var modelsWithReasoning = map[string]bool{
	"gpt-5":      true,
	"gpt-5-mini": true,
	"gpt-5-nano": true,
}

// OpenAIProvider interprets text with OpenAI's Responses API
type OpenAIProvider struct {
	client       *openai.Client
	model        string
	instructions string
	effort       responses.ReasoningEffort
	tracer       *observability.Tracer
}

// NewOpenAIProvider creates a new OpenAI interpreter. Empty instructions
// use the default prompt.
func NewOpenAIProvider(apiKey, model, instructions string, tracer *observability.Tracer, opts ...option.RequestOption) *OpenAIProvider {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		client:       &client,
		model:        model,
		instructions: orDefault(instructions),
		effort:       responses.ReasoningEffortLow,
		tracer:       tracer,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Interpret implements Interpreter
func (p *OpenAIProvider) Interpret(ctx context.Context, prompt string) (*models.Interpretation, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "openai.interpret")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)
	transaction.SetTag("provider", providerNameOpenAI)

	trace := p.tracer.StartTrace(ctx, "nlp.interpret", map[string]interface{}{"provider": providerNameOpenAI})
	defer trace.Finish()
	gen := trace.Generation("interpret", nil)
	defer gen.Finish()

	span := transaction.StartChild("openai.api_call")
	resp, err := p.client.Responses.New(ctx, p.buildRequestParams(prompt))
	span.Finish()
	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return nil, providerError(providerNameOpenAI, err)
	}

	text := resp.OutputText()
	gen.Record(p.model, prompt, text, observability.Usage{
		Input:     int(resp.Usage.InputTokens),
		Output:    int(resp.Usage.OutputTokens),
		Total:     int(resp.Usage.TotalTokens),
		Reasoning: int(resp.Usage.OutputTokensDetails.ReasoningTokens),
	})

	out, err := parseInterpretation(providerNameOpenAI, text)
	if err != nil {
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI INTERPRETATION COMPLETED in %v (tokens: %d)", time.Since(startTime), resp.Usage.TotalTokens)
	return out, nil
}

func (p *OpenAIProvider) buildRequestParams(prompt string) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: p.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
		Instructions: openai.String(p.instructions),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				interpretationSchemaName,
				GetInterpretationSchema(),
			),
		},
	}

	if modelsWithReasoning[p.model] {
		params.Reasoning = shared.ReasoningParam{
			Effort: p.effort,
		}
	}
	return params
}

func (p *OpenAIProvider) String() string {
	return fmt.Sprintf("openai(%s)", p.model)
}

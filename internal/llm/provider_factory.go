package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/config"
	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/observability"
	"github.com/Conceptual-Machines/stagehand/internal/services"
)

// HTTPInterpreter adapts the NLP collaborator service to Interpreter
type HTTPInterpreter struct {
	client *services.NLPClient
}

// NewHTTPInterpreter wraps client
func NewHTTPInterpreter(client *services.NLPClient) *HTTPInterpreter {
	return &HTTPInterpreter{client: client}
}

// Interpret implements Interpreter
func (h *HTTPInterpreter) Interpret(ctx context.Context, prompt string) (*models.Interpretation, error) {
	return h.client.Interpret(ctx, prompt)
}

// Name returns the provider name
func (h *HTTPInterpreter) Name() string {
	return "http"
}

// NewInterpreter picks the NLP fallback named by cfg.NLPProvider. The http
// provider forwards to NLP_URL; openai and gemini call the model directly
// with instructions as the system prompt.
func NewInterpreter(ctx context.Context, cfg *config.Config, tracer *observability.Tracer, instructions string, opts ...services.Option) (Interpreter, error) {
	switch strings.ToLower(cfg.NLPProvider) {
	case "", "http":
		return NewHTTPInterpreter(services.NewNLPClient(cfg.NLPURL, cfg.CollaboratorTimeout, opts...)), nil

	case providerNameOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		provider := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.NLPModel, instructions, tracer)
		provider.effort = reasoningEffort(cfg.NLPReasoning)
		return provider, nil

	case providerNameGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		model := cfg.NLPModel
		if strings.HasPrefix(model, "gpt-") {
			model = "gemini-2.5-flash"
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, model, instructions, tracer)

	default:
		return nil, fmt.Errorf("unknown NLP provider: %s (allowed: http, openai, gemini)", cfg.NLPProvider)
	}
}

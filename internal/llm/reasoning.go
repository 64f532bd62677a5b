package llm

import (
	"github.com/openai/openai-go/responses"
)

// Reasoning effort names accepted in NLP_REASONING
const (
	reasoningEffortMinimal = "minimal"
	reasoningEffortLow     = "low"
	reasoningEffortMedium  = "medium"
	reasoningEffortHigh    = "high"
)

// reasoningEffort maps a configured mode onto the Responses API value.
// Interpretation replies are short, so unknown modes fall back to low.
func reasoningEffort(mode string) responses.ReasoningEffort {
	switch mode {
	case reasoningEffortHigh:
		return responses.ReasoningEffortHigh
	case reasoningEffortMedium:
		return responses.ReasoningEffortMedium
	case reasoningEffortMinimal:
		return reasoningEffortMinimal
	default:
		return responses.ReasoningEffortLow
	}
}

// Package llm implements the NLP fallback on hosted language models. Free
// text that matched no command is turned into a short description and,
// optionally, a list of notes.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/prompt"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// Interpreter turns free text into an interpretation
type Interpreter interface {
	Interpret(ctx context.Context, prompt string) (*models.Interpretation, error)

	// Name returns the provider name (e.g., "openai", "gemini", "http")
	Name() string
}

const interpretationSchemaName = "interpretation"

// defaultInstructions is the system prompt without a command reference
func defaultInstructions() string {
	text, err := prompt.NewPromptBuilder().BuildPrompt()
	if err != nil {
		return ""
	}
	return text
}

// orDefault returns instructions, or the default prompt when empty
func orDefault(instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		return defaultInstructions()
	}
	return instructions
}

// parseInterpretation decodes the structured model output. Code fences are
// tolerated since some models wrap JSON in them despite the schema.
func parseInterpretation(provider, text string) (*models.Interpretation, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, &remote.Error{Kind: remote.KindUnknown, Op: provider, Message: "model returned no output"}
	}

	var out models.Interpretation
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &remote.Error{
			Kind:    remote.KindUnknown,
			Op:      provider,
			Message: fmt.Sprintf("failed to parse model output: %s", truncate(text, maxOutputTrunc)),
			Err:     err,
		}
	}
	if out.Description == "" {
		out.Description = "done"
	}
	return &out, nil
}

// providerError wraps an SDK failure. Deadline and network errors keep their
// classification; anything else reaching a hosted model is CONNECTION.
func providerError(provider string, err error) error {
	if remote.Classify(err).Kind != remote.KindUnknown {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	return &remote.Error{Kind: remote.KindConnection, Op: provider, Message: "request failed", Err: err}
}

const maxOutputTrunc = 200

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

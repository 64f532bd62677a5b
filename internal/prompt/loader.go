package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/stagehand/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetOutputFormatInstructions loads output format instructions
func (l *Loader) GetOutputFormatInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.OutputFormatInstructionsTxt)), nil
}

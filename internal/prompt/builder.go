// Package prompt assembles the instructions sent with NLP fallback requests
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Command is one entry of the command reference
type Command struct {
	Name  string
	Usage string
}

// Builder builds the system prompt for the NLP fallback
type Builder struct {
	loader   *Loader
	commands []Command
	defaults map[string]any
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// WithCommands adds a reference of the known commands
func (b *Builder) WithCommands(commands ...Command) *Builder {
	b.commands = append(b.commands, commands...)
	return b
}

// WithDefaults adds the session defaults the model should assume
func (b *Builder) WithDefaults(defaults map[string]any) *Builder {
	b.defaults = defaults
	return b
}

// BuildPrompt joins system prompt, defaults, command reference and output
// format. Empty sections are left out.
func (b *Builder) BuildPrompt() (string, error) {
	system, err := b.loader.GetSystemPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to load system prompt: %w", err)
	}
	format, err := b.loader.GetOutputFormatInstructions()
	if err != nil {
		return "", fmt.Errorf("failed to load output format instructions: %w", err)
	}

	sections := []string{system}
	if s := b.defaultsSection(); s != "" {
		sections = append(sections, s)
	}
	if s := b.commandsSection(); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, format)

	return strings.Join(sections, "\n\n"), nil
}

func (b *Builder) defaultsSection() string {
	if len(b.defaults) == 0 {
		return ""
	}
	keys := make([]string, 0, len(b.defaults))
	for k := range b.defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("SESSION DEFAULTS\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "- %s: %v\n", k, b.defaults[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) commandsSection() string {
	if len(b.commands) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("KNOWN COMMANDS\n")
	for _, c := range b.commands {
		usage := c.Usage
		if usage == "" {
			usage = c.Name
		}
		fmt.Fprintf(&sb, "- %s\n", usage)
	}
	return strings.TrimRight(sb.String(), "\n")
}

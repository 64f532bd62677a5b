package llm

const (
	// MIDI note number constraints
	midiNoteNumberMin = 0
	midiNoteNumberMax = 127

	// Velocity constraints
	velocityMin = 1
	velocityMax = 127

	// Duration constraints
	durationBeatsMin = 0.01
)

// GetInterpretationSchema returns the JSON schema for NLP fallback output.
// OpenAI strict mode needs every property listed in required.
func GetInterpretationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"notes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pitch":      map[string]any{"type": "integer", "minimum": midiNoteNumberMin, "maximum": midiNoteNumberMax},
						"velocity":   map[string]any{"type": "integer", "minimum": velocityMin, "maximum": velocityMax},
						"start_time": map[string]any{"type": "number", "minimum": 0},
						"duration":   map[string]any{"type": "number", "minimum": durationBeatsMin},
					},
					"required":             []string{"pitch", "velocity", "start_time", "duration"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"description", "notes"},
		"additionalProperties": false,
	}
}

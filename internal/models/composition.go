package models

// Generation kinds understood by the generation service
const (
	KindChords = "chords"
	KindBass   = "bass"
	KindArp    = "arp"
	KindDrums  = "drums"
	KindMelody = "melody"
)

// GenerationRequest carries the session defaults to the generation service
type GenerationRequest struct {
	Kind      string  `json:"kind"`
	Key       string  `json:"key"`
	Bars      int     `json:"bars"`
	Style     string  `json:"style"`
	Voicing   string  `json:"voicing"`
	Pattern   string  `json:"pattern"`
	Tempo     float64 `json:"tempo"`
	DrumGenre string  `json:"drum_genre"`
	Swing     int     `json:"swing"`
	Humanize  int     `json:"humanize"`
	Density   float64 `json:"density"`

	// Optional extras passed through from the command line
	Prompt string `json:"prompt,omitempty"`
	Seed   *int   `json:"seed,omitempty"`
}

// GenerationResponse is the generation service reply. Notes are decoded
// loosely because producers disagree on field casing.
type GenerationResponse struct {
	Status string           `json:"status"`
	Notes  []map[string]any `json:"notes"`
	Count  int              `json:"count"`
	Error  string           `json:"error,omitempty"`
}

// Events decodes the notes, skipping entries without a pitch
func (r *GenerationResponse) Events() []NoteEvent {
	events := make([]NoteEvent, 0, len(r.Notes))
	for _, m := range r.Notes {
		if n, ok := NoteFromMap(m); ok {
			events = append(events, n)
		}
	}
	return events
}

// Interpretation is what the NLP fallback understood from free text
type Interpretation struct {
	Description string           `json:"description"`
	Notes       []map[string]any `json:"notes,omitempty"`
}

// Events decodes the optional notes of an interpretation
func (i *Interpretation) Events() []NoteEvent {
	events := make([]NoteEvent, 0, len(i.Notes))
	for _, m := range i.Notes {
		if n, ok := NoteFromMap(m); ok {
			events = append(events, n)
		}
	}
	return events
}

// NLPResponse is the NLP service reply
type NLPResponse struct {
	Status string          `json:"status"`
	Result *Interpretation `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// CatalogResponse is the catalog service reply
type CatalogResponse struct {
	Status string        `json:"status"`
	Items  []LibraryItem `json:"items"`
	Count  int           `json:"count"`
	Error  string        `json:"error,omitempty"`
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiProvider_Name(t *testing.T) {
	// no client without an API key; Name does not need one
	provider := &GeminiProvider{client: nil}
	assert.Equal(t, "gemini", provider.Name())
}

func TestGeminiProvider_BuildContents(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	contents := provider.buildContents("double the tempo")
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "double the tempo", contents[0].Parts[0].Text)
}

func TestGeminiProvider_BuildConfig(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	cfg := provider.buildConfig()
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	assert.Contains(t, cfg.ResponseSchema.Properties, "notes")
	assert.Equal(t, []string{"description", "notes"}, cfg.ResponseSchema.Required)
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"description":`}, {Text: `"ok"}`}}},
		}},
	}
	assert.Equal(t, `{"description":"ok"}`, responseText(result))
}

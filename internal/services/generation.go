package services

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// GenerationClient talks to the content-generation service
type GenerationClient struct {
	collaborator
}

// NewGenerationClient creates a client for baseURL
func NewGenerationClient(baseURL string, timeout time.Duration, opts ...Option) *GenerationClient {
	return &GenerationClient{collaborator: newCollaborator("generation", baseURL, timeout, opts)}
}

// Generate requests notes of req.Kind. The returned events are unsorted as
// produced by the service.
func (c *GenerationClient) Generate(ctx context.Context, req models.GenerationRequest) ([]models.NoteEvent, error) {
	var resp models.GenerationResponse
	if err := c.do(ctx, http.MethodPost, "/generate/"+url.PathEscape(req.Kind), req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" && resp.Status != "success" {
		return nil, c.rejected(resp.Error)
	}
	return resp.Events(), nil
}

// Health pings the service
func (c *GenerationClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

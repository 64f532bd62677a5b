package services

import (
	"context"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// NLPClient forwards unrecognized input to the NLP service
type NLPClient struct {
	collaborator
}

// NewNLPClient creates a client for baseURL
func NewNLPClient(baseURL string, timeout time.Duration, opts ...Option) *NLPClient {
	return &NLPClient{collaborator: newCollaborator("nlp", baseURL, timeout, opts)}
}

// Interpret sends prompt and returns what the service understood
func (c *NLPClient) Interpret(ctx context.Context, prompt string) (*models.Interpretation, error) {
	var resp models.NLPResponse
	body := map[string]string{"prompt": prompt}
	if err := c.do(ctx, http.MethodPost, "/interpret", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" || resp.Result == nil {
		return nil, c.rejected(resp.Error)
	}
	return resp.Result, nil
}

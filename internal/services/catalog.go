package services

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// CatalogClient searches the external sample catalog
type CatalogClient struct {
	collaborator
}

// NewCatalogClient creates a client for baseURL. An empty URL yields a
// client that returns no results.
func NewCatalogClient(baseURL string, timeout time.Duration, opts ...Option) *CatalogClient {
	return &CatalogClient{collaborator: newCollaborator("catalog", baseURL, timeout, opts)}
}

// Enabled reports whether a catalog URL is configured
func (c *CatalogClient) Enabled() bool {
	return c.baseURL != ""
}

// Search sends the raw query unchanged; filtering happens on our side
func (c *CatalogClient) Search(ctx context.Context, query string) ([]models.LibraryItem, error) {
	if !c.Enabled() {
		return nil, nil
	}
	var resp models.CatalogResponse
	if err := c.do(ctx, http.MethodGet, "/search?query="+url.QueryEscape(query), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, c.rejected(resp.Error)
	}
	for i := range resp.Items {
		resp.Items[i].Source = "catalog"
	}
	return resp.Items, nil
}

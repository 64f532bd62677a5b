package search

import (
	"context"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// Sources of library items
const (
	SourceLibrary = "library"
	SourceCatalog = "catalog"
)

// Catalog is the external sample catalog
type Catalog interface {
	Search(ctx context.Context, query string) ([]models.LibraryItem, error)
}

// Searcher runs a query against the host library and the catalog
type Searcher struct {
	access  *remote.Access
	catalog Catalog
	dedupe  bool
}

// Result is a merged search outcome. Both sources are best-effort:
// LibraryError or CatalogError is set when that source failed and its
// items are missing.
type Result struct {
	Filter       Filter               `json:"filter"`
	Items        []models.LibraryItem `json:"items"`
	Count        int                  `json:"count"`
	LibraryError string               `json:"library_error,omitempty"`
	CatalogError string               `json:"catalog_error,omitempty"`
}

// NewSearcher creates a searcher. catalog may be nil. With dedupe set, a
// catalog item whose normalized path the host library already returned is
// dropped.
func NewSearcher(access *remote.Access, catalog Catalog, dedupe bool) *Searcher {
	return &Searcher{access: access, catalog: catalog, dedupe: dedupe}
}

// Search concatenates library results then catalog results and keeps the
// items matching every present filter
func (s *Searcher) Search(ctx context.Context, raw string) (*Result, error) {
	filter := Parse(raw)

	result := &Result{Filter: filter}

	library, err := s.Library(ctx)
	if err != nil {
		logger.Warn("Library search failed, continuing without host items", logger.Fields{
			"query": raw,
			"error": err.Error(),
		})
		result.LibraryError = remote.Classify(err).UserMessage
		library = nil
	}

	items := library
	if s.catalog != nil {
		catalogItems, err := s.catalog.Search(ctx, raw)
		if err != nil {
			logger.Warn("Catalog search failed, returning library results only", logger.Fields{
				"query": raw,
				"error": err.Error(),
			})
			result.CatalogError = remote.Classify(err).UserMessage
		}
		if s.dedupe {
			catalogItems = withoutPaths(catalogItems, library)
		}
		items = append(items, catalogItems...)
	}

	result.Items = make([]models.LibraryItem, 0, len(items))
	for _, item := range items {
		if filter.Matches(item) {
			result.Items = append(result.Items, item)
		}
	}
	result.Count = len(result.Items)
	return result, nil
}

// Library reads the host's browser items through the state cache
func (s *Searcher) Library(ctx context.Context) ([]models.LibraryItem, error) {
	v, err := s.access.Read(ctx, remote.Root, "browser", func(obj remote.Object) (any, error) {
		return obj.Get("browser")
	})
	if err != nil {
		return nil, err
	}

	var items []models.LibraryItem
	for _, m := range asMaps(v) {
		item := models.LibraryItemFromMap(m)
		item.Source = SourceLibrary
		items = append(items, item)
	}
	return items, nil
}

// Find returns the library item at path, matching normalized paths
func (s *Searcher) Find(ctx context.Context, path string) (models.LibraryItem, bool, error) {
	items, err := s.Library(ctx)
	if err != nil {
		return models.LibraryItem{}, false, err
	}
	want := normalizePath(path)
	for _, item := range items {
		if normalizePath(item.Path) == want {
			return item, true, nil
		}
	}
	return models.LibraryItem{}, false, nil
}

// Matches applies every present filter to item
func (f Filter) Matches(item models.LibraryItem) bool {
	if f.BPMMin != nil || f.BPMMax != nil {
		if item.BPM == nil {
			return false
		}
		if f.BPMMin != nil && *item.BPM < *f.BPMMin {
			return false
		}
		if f.BPMMax != nil && *item.BPM > *f.BPMMax {
			return false
		}
	}
	if f.Key != "" && !strings.EqualFold(item.Key, f.Key) {
		return false
	}
	if f.NamePattern != "" && !strings.Contains(strings.ToLower(item.Name), f.NamePattern) {
		return false
	}
	if f.FreeText != "" {
		text := strings.ToLower(f.FreeText)
		if !strings.Contains(strings.ToLower(item.Name), text) && !strings.Contains(strings.ToLower(item.Path), text) {
			return false
		}
	}
	if f.Genre != "" && !strings.EqualFold(item.Genre, f.Genre) {
		return false
	}
	return true
}

// withoutPaths drops the catalog items whose normalized path is already in
// library. Duplicates within either source are kept.
func withoutPaths(catalog, library []models.LibraryItem) []models.LibraryItem {
	if len(library) == 0 {
		return catalog
	}
	seen := make(map[string]bool, len(library))
	for _, item := range library {
		seen[normalizePath(item.Path)] = true
	}
	out := catalog[:0:0]
	for _, item := range catalog {
		if !seen[normalizePath(item.Path)] {
			out = append(out, item)
		}
	}
	return out
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	return strings.ToLower(strings.Trim(p, "/"))
}

// asMaps accepts the typed slice an in-memory host returns and the []any a
// JSON bridge returns
func asMaps(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, x := range list {
			if m, ok := x.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

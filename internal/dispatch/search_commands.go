package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/Conceptual-Machines/stagehand/internal/search"
)

func (e *Engine) requireSearcher(c *call) error {
	if e.searcher == nil {
		return &remote.Error{Kind: remote.KindState, Op: c.name, Message: "library search is not configured"}
	}
	return nil
}

// searchLibrary merges library and catalog results. The catalog is a
// collaborator, so the search runs off the dispatch goroutine.
func (e *Engine) searchLibrary(c *call) (*outcome, error) {
	if err := e.requireSearcher(c); err != nil {
		return nil, err
	}
	query := c.args.rest(0)
	return e.async(c, e.ctx, func(ctx context.Context) (any, error) {
		return e.searcher.Search(ctx, query)
	}, func(v any, err error) (*outcome, error) {
		if err != nil {
			return nil, err
		}
		res, _ := v.(*search.Result)
		fields := map[string]any{
			"query":  query,
			"filter": res.Filter,
			"items":  res.Items,
			"count":  res.Count,
		}
		message := fmt.Sprintf("Found %d items for %q", res.Count, query)
		if res.LibraryError != "" {
			fields["library_error"] = res.LibraryError
			message += " (library unavailable)"
		}
		if res.CatalogError != "" {
			fields["catalog_error"] = res.CatalogError
			message += " (catalog unavailable)"
		}
		return done(message, fields)
	})
}

func (e *Engine) browse(c *call) (*outcome, error) {
	if err := e.requireSearcher(c); err != nil {
		return nil, err
	}
	items, err := e.searcher.Library(e.ctx)
	if err != nil {
		return nil, err
	}
	kind := strings.ToLower(c.args.str(0))
	if kind != "" {
		filtered := items[:0]
		for _, item := range items {
			if strings.EqualFold(item.Type, kind) || strings.HasPrefix(strings.ToLower(item.Path), kind) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	return done(fmt.Sprintf("%d library items", len(items)), map[string]any{"type": kind, "items": items, "count": len(items)})
}

// loadItem loads a library device onto a track. Samples load into a
// Simpler named after the sample.
func (e *Engine) loadItem(c *call) (*outcome, error) {
	if err := e.requireSearcher(c); err != nil {
		return nil, err
	}
	track, path, err := c.trackAt(0)
	if err != nil {
		return nil, err
	}
	itemPath := c.args.rest(1)
	item, found, err := e.searcher.Find(e.ctx, itemPath)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &remote.Error{Kind: remote.KindInvalidPath, Op: c.name, Path: itemPath, Message: "no library item at this path"}
	}

	name, class := deviceFor(item)
	v, err := e.method(c, path, "load_device", name, class)
	if err != nil {
		return nil, err
	}
	return done(fmt.Sprintf("Loaded %s on track %d", item.Name, track), map[string]any{
		"track":  track,
		"device": asInt(v),
		"item":   item,
	})
}

func deviceFor(item models.LibraryItem) (name, class string) {
	if item.Type == "sample" {
		return item.Name, "OriginalSimpler"
	}
	return item.Name, strings.ReplaceAll(item.Name, " ", "")
}

package remote

import "context"

// Object is a node of the host's object graph
type Object interface {
	Path() string
	Get(prop string) (any, error)
	Set(prop string, value any) error
	Call(method string, args ...any) (any, error)
}

// Graph resolves paths to objects. Lookup of an absent object returns an
// *Error with KindInvalidPath.
type Graph interface {
	Lookup(ctx context.Context, path string) (Object, error)
}

// GraphFunc adapts a function to Graph
type GraphFunc func(ctx context.Context, path string) (Object, error)

func (f GraphFunc) Lookup(ctx context.Context, path string) (Object, error) {
	return f(ctx, path)
}

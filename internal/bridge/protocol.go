// Package bridge exposes a remote.Graph over HTTP. Client talks to a host
// bridge; Handler serves any remote.Graph with the same protocol.
package bridge

import "github.com/Conceptual-Machines/stagehand/internal/remote"

// Operations carried by a call request
const (
	OpGet  = "get"
	OpSet  = "set"
	OpCall = "call"
)

// LookupRequest asks whether path resolves
type LookupRequest struct {
	Path string `json:"path"`
}

// CallRequest runs one operation against path
type CallRequest struct {
	Path string `json:"path"`
	Op   string `json:"op"`
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`
}

// Response is shared by both endpoints
type Response struct {
	Status string      `json:"status"`
	Result any         `json:"result,omitempty"`
	Kind   remote.Kind `json:"kind,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func errorResponse(err error) Response {
	c := remote.Classify(err)
	return Response{Status: "error", Kind: c.Kind, Error: err.Error()}
}

package bridge

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// Handler serves a remote.Graph with the bridge protocol
type Handler struct {
	graph remote.Graph
}

// NewHandler creates a bridge handler for graph
func NewHandler(graph remote.Graph) *Handler {
	return &Handler{graph: graph}
}

// Register mounts the bridge endpoints on group
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/lookup", h.Lookup)
	group.POST("/call", h.Call)
}

// Lookup handles POST /lookup
func (h *Handler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Kind: remote.KindInvalidPath, Error: err.Error()})
		return
	}
	if _, err := h.graph.Lookup(c.Request.Context(), req.Path); err != nil {
		c.JSON(http.StatusOK, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, Response{Status: "ok"})
}

// Call handles POST /call
func (h *Handler) Call(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Kind: remote.KindInvalidPath, Error: err.Error()})
		return
	}

	obj, err := h.graph.Lookup(c.Request.Context(), req.Path)
	if err != nil {
		c.JSON(http.StatusOK, errorResponse(err))
		return
	}

	var result any
	switch req.Op {
	case OpGet:
		result, err = obj.Get(req.Name)
	case OpSet:
		if len(req.Args) != 1 {
			err = remote.Errorf(remote.KindState, "set %s needs exactly one value", req.Name)
			break
		}
		err = obj.Set(req.Name, req.Args[0])
	case OpCall:
		result, err = obj.Call(req.Name, req.Args...)
	default:
		err = remote.Errorf(remote.KindInvalidPath, "unknown op %q", req.Op)
	}
	if err != nil {
		fields := logger.WithContext(c)
		fields["bridge_path"] = req.Path
		fields["bridge_op"] = req.Op + " " + req.Name
		logger.Debug("Bridge call failed", fields)
		c.JSON(http.StatusOK, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, Response{Status: "ok", Result: result})
}

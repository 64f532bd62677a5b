package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/stagehand/internal/api/middleware"
	"github.com/Conceptual-Machines/stagehand/internal/dispatch"
	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/gin-gonic/gin"
)

// Submitter is the part of the dispatch engine the HTTP surface needs
type Submitter interface {
	Submit(ctx context.Context, req dispatch.Request) (dispatch.Reply, error)
}

type CommandHandler struct {
	engine Submitter
}

func NewCommandHandler(engine Submitter) *CommandHandler {
	return &CommandHandler{engine: engine}
}

// CommandRequest accepts either a command with loosely-typed args or a
// textual line such as `create_track midi "Lead Synth"`
type CommandRequest struct {
	Command string `json:"command"`
	Args    []any  `json:"args"`
	Line    string `json:"line"`
}

// Execute runs one command and returns its reply
func (h *CommandHandler) Execute(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Command == "" && req.Line == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command or line is required"})
		return
	}

	args := make([]string, 0, len(req.Args))
	for _, a := range req.Args {
		args = append(args, argString(a))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()

	reply, err := h.engine.Submit(ctx, dispatch.Request{Command: req.Command, Args: args, Line: req.Line})
	if err != nil {
		h.submitFailed(c, err)
		return
	}

	operator, _ := middleware.GetUserIDFromGateway(c)
	logger.Debug("Command replied", logger.Fields{
		"request_id": c.GetString("request_id"),
		"command_id": reply.ID,
		"command":    reply.Command,
		"status":     reply.Status,
		"operator":   operator,
	})

	c.JSON(httpStatus(reply), reply)
}

// Defaults returns the session defaults snapshot
func (h *CommandHandler) Defaults(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()

	reply, err := h.engine.Submit(ctx, dispatch.Request{Command: string(dispatch.CmdGetDefaults)})
	if err != nil {
		h.submitFailed(c, err)
		return
	}
	if !reply.OK() {
		c.JSON(httpStatus(reply), reply)
		return
	}
	c.JSON(http.StatusOK, reply.Result["defaults"])
}

// ListCommands returns the command table
func ListCommands(c *gin.Context) {
	commands := dispatch.Commands()
	c.JSON(http.StatusOK, gin.H{
		"count":    len(commands),
		"commands": commands,
	})
}

func (h *CommandHandler) submitFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dispatcher is not running"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "command timed out"})
	default:
		logger.Warn("Command submission failed", logger.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

// httpStatus maps a reply onto an HTTP status; the body carries the detail
func httpStatus(reply dispatch.Reply) int {
	if reply.OK() {
		return http.StatusOK
	}
	if reply.Result["error"] == errorUsage {
		return http.StatusBadRequest
	}
	kind, _ := reply.Result["error_kind"].(string)
	switch kind {
	case "INVALID_PATH":
		return http.StatusNotFound
	case "PERMISSION":
		return http.StatusForbidden
	case "STATE":
		return http.StatusConflict
	case "TRANSIENT", "CONNECTION":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// argString renders a JSON arg the way it would be typed on a command line
func argString(v any) string {
	switch a := v.(type) {
	case nil:
		return ""
	case string:
		return a
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(a)
	}
	return fmt.Sprint(v)
}

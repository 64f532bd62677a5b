// Package dispatch turns loosely-typed commands into validated operations
// against the host session. One goroutine owns the session defaults, the
// note buffer and the connection state; commands are processed in arrival
// order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/metrics"
	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/Conceptual-Machines/stagehand/internal/scheduler"
	"github.com/Conceptual-Machines/stagehand/internal/search"
	"github.com/Conceptual-Machines/stagehand/internal/session"
	"github.com/Conceptual-Machines/stagehand/internal/status"
)

const (
	DefaultCollaboratorTimeout = 10 * time.Second
	inboxSize                  = 64
)

var (
	// ErrStopped is returned by Submit once the engine has shut down
	ErrStopped = errors.New("dispatcher stopped")

	errSuperseded = &remote.Error{Kind: remote.KindState, Message: "superseded by a later clear or stop"}
)

// Generator produces notes from the current defaults
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) ([]models.NoteEvent, error)
	Health(ctx context.Context) error
}

// Interpreter is the NLP fallback for unrecognized commands
type Interpreter interface {
	Interpret(ctx context.Context, prompt string) (*models.Interpretation, error)
}

// Deps wires the engine to its collaborators. Access is required; the
// rest may be nil, which disables the commands that need them.
type Deps struct {
	Access      *remote.Access
	Generator   Generator
	Interpreter Interpreter
	Searcher    *search.Searcher
	Status      *status.Channel
	Recorder    *metrics.Recorder
	Player      *scheduler.Player
	Inserter    *scheduler.Inserter

	ExportDir           string
	CollaboratorTimeout time.Duration
}

// Request is one inbound command. Line, when set, is tokenized and takes
// precedence over Command and Args.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Line    string   `json:"line"`
}

// Reply is the outcome of one command: a human-readable message plus the
// structured result, whose "status" mirrors Status
type Reply struct {
	ID      string         `json:"id"`
	Command string         `json:"command"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Result  map[string]any `json:"result"`
}

// OK reports whether the command succeeded
func (r Reply) OK() bool {
	return r.Status == status.StatusOK
}

// outcome is what a handler produced. A deferred outcome finishes later on
// the engine goroutine.
type outcome struct {
	message  string
	fields   map[string]any
	deferred bool
}

func done(message string, fields map[string]any) (*outcome, error) {
	return &outcome{message: message, fields: fields}, nil
}

type call struct {
	id      string
	cmd     Command
	name    string
	line    string
	args    argList
	entry   entry
	started time.Time
	reply   chan Reply
	closed  bool
}

// Engine is the single owner of session state
type Engine struct {
	access      *remote.Access
	generator   Generator
	interpreter Interpreter
	searcher    *search.Searcher
	statusCh    *status.Channel
	recorder    *metrics.Recorder
	player      *scheduler.Player
	inserter    *scheduler.Inserter
	exportDir   string
	timeout     time.Duration
	ctx         context.Context

	inbox    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
	workers  sync.WaitGroup

	// owned by the Run goroutine
	defaults  session.Defaults
	buffer    scheduler.Buffer
	connected bool
	epoch     uint64
	genCtx    context.Context
	genCancel context.CancelFunc
}

// New creates an engine in the disconnected state with startup defaults
func New(deps Deps) *Engine {
	timeout := deps.CollaboratorTimeout
	if timeout <= 0 {
		timeout = DefaultCollaboratorTimeout
	}
	statusCh := deps.Status
	if statusCh == nil {
		statusCh = status.NewChannel(status.DefaultHistory)
	}
	player := deps.Player
	if player == nil {
		player = scheduler.NewPlayer(scheduler.HostSender(deps.Access))
	}
	inserter := deps.Inserter
	if inserter == nil {
		inserter = scheduler.NewInserter(deps.Access)
	}
	exportDir := deps.ExportDir
	if exportDir == "" {
		exportDir = "exports"
	}

	e := &Engine{
		access:      deps.Access,
		generator:   deps.Generator,
		interpreter: deps.Interpreter,
		searcher:    deps.Searcher,
		statusCh:    statusCh,
		recorder:    deps.Recorder,
		player:      player,
		inserter:    inserter,
		exportDir:   exportDir,
		timeout:     timeout,
		inbox:       make(chan func(), inboxSize),
		stopped:     make(chan struct{}),
		defaults:    session.Startup(),
		ctx:         context.Background(),
	}
	e.genCtx, e.genCancel = context.WithCancel(context.Background())
	return e
}

// Status is the channel every reply is emitted on
func (e *Engine) Status() *status.Channel {
	return e.statusCh
}

// Run processes commands until ctx is done
func (e *Engine) Run(ctx context.Context) {
	e.ctx = ctx
	logger.Info("Dispatcher started", logger.Fields{"commands": len(table)})
	defer func() {
		e.stopOnce.Do(func() { close(e.stopped) })
		e.genCancel()
		e.player.Stop()
		logger.Info("Dispatcher stopped", nil)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-e.inbox:
			job()
		}
	}
}

// Wait blocks until in-flight collaborator calls have returned
func (e *Engine) Wait() {
	e.workers.Wait()
}

// Submit queues req and waits for its reply. Collaborator-backed commands
// reply when the collaborator answers; other commands keep flowing
// meanwhile.
func (e *Engine) Submit(ctx context.Context, req Request) (Reply, error) {
	c, err := newCall(req)
	if err != nil {
		reply := usageReply(c, err)
		e.statusCh.Emit(status.Event{ID: reply.ID, Command: reply.Command, Status: reply.Status, Message: reply.Message, Result: reply.Result})
		return reply, nil
	}

	select {
	case e.inbox <- func() { e.execute(c) }:
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-e.stopped:
		return Reply{}, ErrStopped
	}

	select {
	case reply := <-c.reply:
		return reply, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-e.stopped:
		return Reply{}, ErrStopped
	}
}

// Execute tokenizes line and submits it
func (e *Engine) Execute(ctx context.Context, line string) (Reply, error) {
	return e.Submit(ctx, Request{Line: line})
}

func newCall(req Request) (*call, error) {
	name, args := req.Command, req.Args
	line := strings.TrimSpace(req.Line)
	c := &call{
		id:      uuid.NewString(),
		started: time.Now(),
		reply:   make(chan Reply, 1),
	}

	if line != "" {
		tokens, err := Tokenize(line)
		if err != nil {
			c.name = strings.Fields(line)[0]
			return c, &usageError{msg: err.Error()}
		}
		name, args = tokens[0], tokens[1:]
	} else {
		line = strings.TrimSpace(strings.Join(append([]string{name}, args...), " "))
	}
	if strings.TrimSpace(name) == "" {
		return c, usagef("empty command")
	}

	c.name = strings.ToLower(strings.TrimSpace(name))
	c.line = line
	c.args = args
	c.cmd = Parse(name)
	if c.cmd == Unrecognized {
		c.entry = entry{Family: FamilyFallback, Usage: "ask <text>", run: (*Engine).fallback}
	} else {
		c.entry = table[c.cmd]
	}
	return c, nil
}

func (e *Engine) execute(c *call) {
	if len(c.args) < c.entry.MinArgs {
		e.finish(c, usageReply(c, usagef("missing arguments")))
		return
	}

	out, err := e.invoke(c)
	if err == nil && out != nil && out.deferred {
		return
	}
	e.finish(c, e.reply(c, out, err))
}

// invoke runs the handler, converting a panic into an UNKNOWN failure
func (e *Engine) invoke(c *call) (out *outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Command handler panicked", fmt.Errorf("%v", r), logger.Fields{
				"command": c.name,
				"stack":   string(debug.Stack()),
			})
			out, err = nil, &remote.Error{Kind: remote.KindUnknown, Op: c.name, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return c.entry.run(e, c)
}

func (e *Engine) reply(c *call, out *outcome, err error) Reply {
	if err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			return usageReply(c, err)
		}
		return e.errorReply(c, err)
	}
	if out == nil {
		out = &outcome{}
	}

	result := map[string]any{"status": status.StatusOK, "action": c.name}
	for k, v := range out.fields {
		result[k] = v
	}
	message := out.message
	if message == "" {
		message = "Done"
	}
	return Reply{ID: c.id, Command: c.name, Status: status.StatusOK, Message: message, Result: result}
}

func (e *Engine) errorReply(c *call, err error) Reply {
	class := remote.Classify(err)
	if class.Kind == remote.KindUnknown {
		logger.Error("Command failed", err, logger.WithCommand(c.id, c.name))
	}
	return Reply{
		ID:      c.id,
		Command: c.name,
		Status:  status.StatusError,
		Message: class.UserMessage,
		Result: map[string]any{
			"status":     status.StatusError,
			"error":      class.UserMessage,
			"error_kind": class.Kind.String(),
			"retryable":  class.Retryable,
		},
	}
}

func usageReply(c *call, err error) Reply {
	usage := c.entry.Usage
	if usage == "" {
		usage = c.name
	}
	return Reply{
		ID:      c.id,
		Command: c.name,
		Status:  status.StatusError,
		Message: fmt.Sprintf("%s. Usage: %s", err.Error(), usage),
		Result: map[string]any{
			"status": status.StatusError,
			"error":  "usage",
			"detail": err.Error(),
			"usage":  usage,
		},
	}
}

// finish delivers the reply once: metrics, status channel, then the caller
func (e *Engine) finish(c *call, reply Reply) {
	if c.closed {
		return
	}
	c.closed = true

	errorKind := ""
	if !reply.OK() {
		errorKind, _ = reply.Result["error_kind"].(string)
		if errorKind == "" {
			errorKind = "USAGE"
		}
	}
	e.recorder.RecordCommand(context.Background(), c.name, errorKind, time.Since(c.started))

	e.statusCh.Emit(status.Event{
		ID:      reply.ID,
		Command: reply.Command,
		Status:  reply.Status,
		Message: reply.Message,
		Result:  reply.Result,
	})
	c.reply <- reply
}

// post queues fn on the engine goroutine. It is dropped once the engine has
// stopped.
func (e *Engine) post(fn func()) {
	select {
	case e.inbox <- fn:
	case <-e.stopped:
	}
}

// async runs work off the engine goroutine with the collaborator timeout
// and hands its result to complete back on the engine goroutine
func (e *Engine) async(c *call, parent context.Context, work func(ctx context.Context) (any, error), complete func(v any, err error) (*outcome, error)) (*outcome, error) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		defer cancel()

		v, err := work(ctx)
		e.post(func() {
			out, cerr := e.complete(c, func() (*outcome, error) { return complete(v, err) })
			e.finish(c, e.reply(c, out, cerr))
		})
	}()
	return &outcome{deferred: true}, nil
}

func (e *Engine) complete(c *call, fn func() (*outcome, error)) (out *outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Command completion panicked", fmt.Errorf("%v", r), logger.Fields{
				"command": c.name,
				"stack":   string(debug.Stack()),
			})
			out, err = nil, &remote.Error{Kind: remote.KindUnknown, Op: c.name, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return fn()
}

// bumpEpoch invalidates every in-flight generation
func (e *Engine) bumpEpoch() {
	e.epoch++
	e.genCancel()
	e.genCtx, e.genCancel = context.WithCancel(context.Background())
}

// setConnected records the generation service state, reporting changes
func (e *Engine) setConnected(connected bool, reason string) {
	if e.connected == connected {
		return
	}
	e.connected = connected
	fields := logger.Fields{"connected": connected, "reason": reason}
	if connected {
		logger.Info("Generation service connected", fields)
		logger.LogToSentry(sentry.LevelInfo, "Generation service connected", fields)
	} else {
		logger.Warn("Generation service disconnected", fields)
		logger.LogToSentry(sentry.LevelWarning, "Generation service disconnected", fields)
	}
}

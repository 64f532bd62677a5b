package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failure of a remote call
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidPath
	KindPermission
	KindState
	KindTransient
	KindConnection
)

var kindNames = map[Kind]string{
	KindUnknown:     "UNKNOWN",
	KindInvalidPath: "INVALID_PATH",
	KindPermission:  "PERMISSION",
	KindState:       "STATE",
	KindTransient:   "TRANSIENT",
	KindConnection:  "CONNECTION",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// ParseKind maps a wire name (e.g. "TRANSIENT") back to a Kind
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// Retryable reports whether RetryPolicy may re-issue a call that failed with this kind
func (k Kind) Retryable() bool {
	return k == KindTransient
}

// Error is the typed failure raised by hosts, bridges and collaborators.
// Classification never inspects messages, only the Kind carried here.
type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a typed error without a path
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrValidation marks arguments rejected before any remote call was attempted
var ErrValidation = errors.New("validation failed")

// Classification is attached to every failed operation
type Classification struct {
	Kind        Kind   `json:"kind"`
	Retryable   bool   `json:"retryable"`
	UserMessage string `json:"user_message"`
}

// Classify tags err with exactly one Kind
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}

	kind := KindUnknown
	var remoteErr *Error
	var netErr net.Error
	switch {
	case errors.As(err, &remoteErr):
		kind = remoteErr.Kind
	case errors.Is(err, ErrValidation):
		kind = KindInvalidPath
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		kind = KindConnection
	}

	return Classification{
		Kind:        kind,
		Retryable:   kind.Retryable(),
		UserMessage: userMessage(kind, err),
	}
}

func userMessage(kind Kind, err error) string {
	switch kind {
	case KindInvalidPath:
		return "Object not found: " + err.Error()
	case KindPermission:
		return "Not allowed: " + err.Error()
	case KindState:
		return "Not possible right now: " + err.Error()
	case KindTransient:
		return "Host is busy, try again: " + err.Error()
	case KindConnection:
		return "Service unreachable: " + err.Error()
	}
	return "Unexpected error: " + err.Error()
}

// MarshalText lets Kind serialize as its wire name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a wire name
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

package dispatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// usageError rejects malformed arguments. The command becomes a no-op and
// the reply carries the usage line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type argList []string

func (a argList) has(i int) bool {
	return i < len(a) && strings.TrimSpace(a[i]) != ""
}

func (a argList) str(i int) string {
	if i >= len(a) {
		return ""
	}
	return strings.TrimSpace(a[i])
}

// rest joins every argument from i on, for free-text names and prompts
func (a argList) rest(i int) string {
	if i >= len(a) {
		return ""
	}
	return strings.TrimSpace(strings.Join(a[i:], " "))
}

// index parses a non-negative integer index. Failures are INVALID_PATH and
// happen before any remote call.
func (a argList) index(i int, name string) (int, error) {
	if i >= len(a) {
		return 0, usagef("missing %s index", name)
	}
	return remote.ParseIndex(name, a[i])
}

// float parses a finite number; NaN and the infinities are usage errors
func (a argList) float(i int, name string) (float64, error) {
	if i >= len(a) {
		return 0, usagef("missing %s", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(a[i]), 64)
	if err != nil {
		return 0, usagef("%s must be a number, got %q", name, a[i])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, usagef("%s must be a finite number, got %q", name, a[i])
	}
	return v, nil
}

// int accepts integers and decimals (truncated). Values beyond the int32
// range saturate so the setter's own clamp still applies.
func (a argList) int(i int, name string) (int, error) {
	if i >= len(a) {
		return 0, usagef("missing %s", name)
	}
	if v, err := strconv.Atoi(strings.TrimSpace(a[i])); err == nil {
		return clampInt(float64(v)), nil
	}
	f, err := a.float(i, name)
	if err != nil {
		return 0, err
	}
	return clampInt(f), nil
}

func clampInt(f float64) int {
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

func (a argList) bool(i int, name string) (bool, error) {
	if i >= len(a) {
		return false, usagef("missing %s", name)
	}
	switch strings.ToLower(strings.TrimSpace(a[i])) {
	case "1", "on", "true", "yes":
		return true, nil
	case "0", "off", "false", "no":
		return false, nil
	}
	return false, usagef("%s must be on or off, got %q", name, a[i])
}

// color accepts #rrggbb, 0xrrggbb or a decimal value
func (a argList) color(i int) (int, error) {
	if i >= len(a) {
		return 0, usagef("missing color")
	}
	raw := strings.ToLower(strings.TrimSpace(a[i]))
	base := 10
	switch {
	case strings.HasPrefix(raw, "#"):
		raw, base = raw[1:], 16
	case strings.HasPrefix(raw, "0x"):
		raw, base = raw[2:], 16
	}
	v, err := strconv.ParseInt(raw, base, 32)
	if err != nil || v < 0 || v > 0xFFFFFF {
		return 0, usagef("color must be #rrggbb, got %q", a[i])
	}
	return int(v), nil
}

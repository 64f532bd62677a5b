package host

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// toFloat accepts finite numbers only
func toFloat(v any) (float64, error) {
	f, err := number(v)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, remote.Errorf(remote.KindState, "expected a finite number, got %v", v)
	}
	return f, err
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, remote.Errorf(remote.KindState, "expected a number, got %v", v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, remote.Errorf(remote.KindState, "expected an integer, got %v", v)
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err == nil {
			return parsed, nil
		}
	case float64:
		return b != 0, nil
	case int:
		return b != 0, nil
	}
	return false, remote.Errorf(remote.KindState, "expected a boolean, got %v", v)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func arg(args []any, i int) (any, error) {
	if i >= len(args) {
		return nil, remote.Errorf(remote.KindState, "missing argument %d", i+1)
	}
	return args[i], nil
}

func intArg(args []any, i int) (int, error) {
	v, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

func floatArg(args []any, i int) (float64, error) {
	v, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

func stringArg(args []any, i int, fallback string) string {
	if i >= len(args) {
		return fallback
	}
	return toString(args[i])
}

func unknownProp(path, prop string) error {
	return &remote.Error{Kind: remote.KindInvalidPath, Path: path, Message: "no property " + strconv.Quote(prop)}
}

func unknownMethod(path, method string) error {
	return &remote.Error{Kind: remote.KindInvalidPath, Path: path, Message: "no method " + strconv.Quote(method)}
}

func readOnly(path, prop string) error {
	return &remote.Error{Kind: remote.KindPermission, Path: path, Message: strconv.Quote(prop) + " is read-only"}
}

func outOfRange(name string, v, lo, hi float64) error {
	return remote.Errorf(remote.KindState, "%s %v out of range [%v, %v]", name, v, lo, hi)
}

// toBytes accepts raw bytes or a list of numbers (as decoded from JSON)
func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case []any:
		out := make([]byte, 0, len(b))
		for _, x := range b {
			n, err := toInt(x)
			if err != nil || n < 0 || n > 255 {
				return nil, remote.Errorf(remote.KindState, "invalid MIDI byte %v", x)
			}
			out = append(out, byte(n))
		}
		return out, nil
	}
	return nil, remote.Errorf(remote.KindState, "expected MIDI bytes, got %T", v)
}

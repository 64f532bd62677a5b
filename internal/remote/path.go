package remote

import (
	"fmt"
	"strconv"
	"strings"
)

// Root is the path of the session itself
const Root = "live_set"

// Locator identifies a node in the remote object graph by a sparse set of indices
type Locator struct {
	Track     *int
	Device    *int
	Parameter *int
	ClipSlot  *int
	Clip      bool
	Scene     *int
}

// Idx returns a pointer to n, for building Locators inline
func Idx(n int) *int {
	return &n
}

// TrackAt is the Locator for a track
func TrackAt(track int) Locator {
	return Locator{Track: Idx(track)}
}

// DeviceAt is the Locator for a device on a track
func DeviceAt(track, device int) Locator {
	return Locator{Track: Idx(track), Device: Idx(device)}
}

// ParameterAt is the Locator for a device parameter
func ParameterAt(track, device, parameter int) Locator {
	return Locator{Track: Idx(track), Device: Idx(device), Parameter: Idx(parameter)}
}

// ClipSlotAt is the Locator for a clip slot
func ClipSlotAt(track, slot int) Locator {
	return Locator{Track: Idx(track), ClipSlot: Idx(slot)}
}

// ClipAt is the Locator for the clip held by a clip slot
func ClipAt(track, slot int) Locator {
	return Locator{Track: Idx(track), ClipSlot: Idx(slot), Clip: true}
}

// SceneAt is the Locator for a scene
func SceneAt(scene int) Locator {
	return Locator{Scene: Idx(scene)}
}

// Validate checks index signs and the shape of the locator
func (l Locator) Validate() error {
	indices := []struct {
		name string
		idx  *int
	}{
		{"track", l.Track},
		{"device", l.Device},
		{"parameter", l.Parameter},
		{"clip slot", l.ClipSlot},
		{"scene", l.Scene},
	}
	for _, i := range indices {
		if i.idx != nil && *i.idx < 0 {
			return fmt.Errorf("%w: %s index %d is negative", ErrValidation, i.name, *i.idx)
		}
	}

	switch {
	case l.Scene != nil && (l.Track != nil || l.Device != nil || l.ClipSlot != nil || l.Clip):
		return fmt.Errorf("%w: scene locator cannot address track objects", ErrValidation)
	case l.Device != nil && l.Track == nil:
		return fmt.Errorf("%w: device requires a track", ErrValidation)
	case l.Parameter != nil && l.Device == nil:
		return fmt.Errorf("%w: parameter requires a device", ErrValidation)
	case l.ClipSlot != nil && l.Track == nil:
		return fmt.Errorf("%w: clip slot requires a track", ErrValidation)
	case l.ClipSlot != nil && l.Device != nil:
		return fmt.Errorf("%w: clip slot and device are exclusive", ErrValidation)
	case l.Clip && l.ClipSlot == nil:
		return fmt.Errorf("%w: clip requires a clip slot", ErrValidation)
	}
	return nil
}

// BuildPath maps a Locator to its canonical path. Equal locators always
// produce equal paths, so the result doubles as a cache key prefix.
func BuildPath(l Locator) (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}

	parts := []string{Root}
	if l.Scene != nil {
		parts = append(parts, "scenes", strconv.Itoa(*l.Scene))
		return strings.Join(parts, " "), nil
	}
	if l.Track != nil {
		parts = append(parts, "tracks", strconv.Itoa(*l.Track))
	}
	if l.Device != nil {
		parts = append(parts, "devices", strconv.Itoa(*l.Device))
	}
	if l.Parameter != nil {
		parts = append(parts, "parameters", strconv.Itoa(*l.Parameter))
	}
	if l.ClipSlot != nil {
		parts = append(parts, "clip_slots", strconv.Itoa(*l.ClipSlot))
	}
	if l.Clip {
		parts = append(parts, "clip")
	}
	return strings.Join(parts, " "), nil
}

// MustPath is BuildPath for locators built from already-validated indices
func MustPath(l Locator) string {
	p, err := BuildPath(l)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseIndex parses a command argument as a non-negative integer index
func ParseIndex(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s index %q is not an integer", ErrValidation, name, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s index %d is negative", ErrValidation, name, n)
	}
	return n, nil
}

// CacheKey joins a path and a facet (property name, listing) into a cache key
func CacheKey(path, facet string) string {
	if facet == "" {
		return path
	}
	return path + "|" + facet
}

// ParsePath is the inverse of BuildPath
func ParsePath(path string) (Locator, error) {
	fields := strings.Fields(path)
	if len(fields) == 0 || fields[0] != Root {
		return Locator{}, fmt.Errorf("%w: path %q does not start at %s", ErrValidation, path, Root)
	}

	var l Locator
	for i := 1; i < len(fields); i++ {
		name := fields[i]
		if name == "clip" {
			l.Clip = true
			continue
		}
		if i+1 >= len(fields) {
			return Locator{}, fmt.Errorf("%w: path %q ends after %q", ErrValidation, path, name)
		}
		n, err := ParseIndex(name, fields[i+1])
		if err != nil {
			return Locator{}, err
		}
		i++
		switch name {
		case "tracks":
			l.Track = Idx(n)
		case "devices":
			l.Device = Idx(n)
		case "parameters":
			l.Parameter = Idx(n)
		case "clip_slots":
			l.ClipSlot = Idx(n)
		case "scenes":
			l.Scene = Idx(n)
		default:
			return Locator{}, fmt.Errorf("%w: unknown path segment %q", ErrValidation, name)
		}
	}
	return l, l.Validate()
}

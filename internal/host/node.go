package host

import (
	"strconv"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// node is a handle on a path. It re-resolves on every operation, so an
// object deleted after Lookup fails with INVALID_PATH instead of mutating a
// detached value.
type node struct {
	session *Session
	loc     remote.Locator
	path    string
}

func (n *node) Path() string {
	return n.path
}

func (n *node) Get(prop string) (any, error) {
	n.session.mu.Lock()
	defer n.session.mu.Unlock()
	n.session.calls++

	target, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return target.get(prop)
}

func (n *node) Set(prop string, value any) error {
	n.session.mu.Lock()
	defer n.session.mu.Unlock()
	n.session.calls++

	target, err := n.resolve()
	if err != nil {
		return err
	}
	return target.set(prop, value)
}

func (n *node) Call(method string, args ...any) (any, error) {
	n.session.mu.Lock()
	defer n.session.mu.Unlock()
	n.session.calls++

	target, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return target.call(method, args)
}

type target interface {
	get(prop string) (any, error)
	set(prop string, value any) error
	call(method string, args []any) (any, error)
}

func (n *node) missing(what string, idx int) error {
	return &remote.Error{
		Kind:    remote.KindInvalidPath,
		Path:    n.path,
		Message: what + " " + strconv.Itoa(idx) + " does not exist",
	}
}

// resolve walks the locator; callers hold session.mu
func (n *node) resolve() (target, error) {
	s := n.session
	l := n.loc

	if l.Scene != nil {
		if *l.Scene >= len(s.scenes) {
			return nil, n.missing("scene", *l.Scene)
		}
		return &sceneNode{session: s, index: *l.Scene, path: n.path}, nil
	}
	if l.Track == nil {
		return &sessionNode{session: s, path: n.path}, nil
	}
	if *l.Track >= len(s.tracks) {
		return nil, n.missing("track", *l.Track)
	}
	track := s.tracks[*l.Track]
	tn := &trackNode{session: s, track: track, index: *l.Track, path: n.path}

	switch {
	case l.Device != nil:
		if *l.Device >= len(track.Devices) {
			return nil, n.missing("device", *l.Device)
		}
		device := track.Devices[*l.Device]
		if l.Parameter == nil {
			return &deviceNode{device: device, path: n.path}, nil
		}
		if *l.Parameter >= len(device.Params) {
			return nil, n.missing("parameter", *l.Parameter)
		}
		return &parameterNode{param: device.Params[*l.Parameter], path: n.path}, nil

	case l.ClipSlot != nil:
		if *l.ClipSlot >= len(track.Slots) {
			return nil, n.missing("clip slot", *l.ClipSlot)
		}
		slot := track.Slots[*l.ClipSlot]
		sn := &slotNode{session: s, track: *l.Track, index: *l.ClipSlot, slot: slot, path: n.path}
		if !l.Clip {
			return sn, nil
		}
		if slot.Clip == nil {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "clip slot is empty"}
		}
		return &clipNode{clip: slot.Clip, path: n.path}, nil
	}
	return tn, nil
}

package host

import (
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

type trackNode struct {
	session *Session
	track   *Track
	index   int
	path    string
}

func (n *trackNode) get(prop string) (any, error) {
	t := n.track
	switch prop {
	case "name":
		return t.Name, nil
	case "kind":
		return t.Kind, nil
	case "color":
		return t.Color, nil
	case "volume":
		return t.Volume, nil
	case "pan":
		return t.Pan, nil
	case "mute":
		return t.Mute, nil
	case "solo":
		return t.Solo, nil
	case "arm":
		return t.Arm, nil
	case "sends":
		return append([]float64(nil), t.Sends...), nil
	case "devices":
		devices := make([]map[string]any, 0, len(t.Devices))
		for i, d := range t.Devices {
			devices = append(devices, map[string]any{
				"index":   i,
				"name":    d.Name,
				"class":   d.Class,
				"enabled": d.Enabled,
			})
		}
		return devices, nil
	case "clip_slots":
		slots := make([]map[string]any, 0, len(t.Slots))
		for i, slot := range t.Slots {
			entry := map[string]any{"index": i, "has_clip": slot.Clip != nil}
			if slot.Clip != nil {
				entry["name"] = slot.Clip.Name
				entry["length"] = slot.Clip.Length
				entry["is_playing"] = slot.Clip.Playing
			}
			slots = append(slots, entry)
		}
		return slots, nil
	case "info":
		info := trackSummary(n.index, t)
		info["color"] = t.Color
		info["sends"] = append([]float64(nil), t.Sends...)
		info["clip_slots"] = len(t.Slots)
		return info, nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *trackNode) set(prop string, value any) error {
	t := n.track
	switch prop {
	case "name":
		name := strings.TrimSpace(toString(value))
		if name == "" {
			return remote.Errorf(remote.KindState, "track name cannot be empty")
		}
		t.Name = name
	case "color":
		c, err := toInt(value)
		if err != nil {
			return err
		}
		if c < 0 || c > 0xFFFFFF {
			return outOfRange("color", float64(c), 0, 0xFFFFFF)
		}
		t.Color = c
	case "volume":
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		if v < 0 || v > 1 {
			return outOfRange("volume", v, 0, 1)
		}
		t.Volume = v
	case "pan":
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		if v < -1 || v > 1 {
			return outOfRange("pan", v, -1, 1)
		}
		t.Pan = v
	case "mute", "solo":
		b, err := toBool(value)
		if err != nil {
			return err
		}
		if prop == "mute" {
			t.Mute = b
		} else {
			t.Solo = b
		}
	case "arm":
		if t.Kind == TrackReturn {
			return remote.Errorf(remote.KindState, "return tracks cannot be armed")
		}
		b, err := toBool(value)
		if err != nil {
			return err
		}
		t.Arm = b
	case "kind", "devices", "clip_slots", "info", "sends":
		return readOnly(n.path, prop)
	default:
		return unknownProp(n.path, prop)
	}
	return nil
}

func (n *trackNode) call(method string, args []any) (any, error) {
	t := n.track
	switch method {
	case "set_send":
		i, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		v, err := floatArg(args, 1)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(t.Sends) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "send " + toString(i) + " does not exist"}
		}
		if v < 0 || v > 1 {
			return nil, outOfRange("send", v, 0, 1)
		}
		t.Sends[i] = v
		return nil, nil
	case "stop_all_clips":
		for _, slot := range t.Slots {
			if slot.Clip != nil {
				slot.Clip.Playing = false
			}
		}
		return nil, nil
	case "load_device":
		name := strings.TrimSpace(stringArg(args, 0, ""))
		if name == "" {
			return nil, remote.Errorf(remote.KindState, "device name required")
		}
		class := stringArg(args, 1, strings.ReplaceAll(name, " ", ""))
		t.Devices = append(t.Devices, newDevice(name, class))
		n.session.undoDepth++
		return len(t.Devices) - 1, nil
	case "delete_device":
		i, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(t.Devices) {
			return nil, &remote.Error{Kind: remote.KindInvalidPath, Path: n.path, Message: "device " + toString(i) + " does not exist"}
		}
		t.Devices = append(t.Devices[:i], t.Devices[i+1:]...)
		n.session.undoDepth++
		return nil, nil
	}
	return nil, unknownMethod(n.path, method)
}

type deviceNode struct {
	device *Device
	path   string
}

func (n *deviceNode) get(prop string) (any, error) {
	d := n.device
	switch prop {
	case "name":
		return d.Name, nil
	case "class":
		return d.Class, nil
	case "enabled":
		return d.Enabled, nil
	case "parameters":
		params := make([]map[string]any, 0, len(d.Params))
		for i, p := range d.Params {
			info := parameterInfo(p)
			info["index"] = i
			params = append(params, info)
		}
		return params, nil
	case "info":
		return map[string]any{
			"name":       d.Name,
			"class":      d.Class,
			"enabled":    d.Enabled,
			"parameters": len(d.Params),
		}, nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *deviceNode) set(prop string, value any) error {
	switch prop {
	case "enabled":
		b, err := toBool(value)
		if err != nil {
			return err
		}
		n.device.Enabled = b
		if len(n.device.Params) > 0 {
			n.device.Params[0].Value = boolToFloat(b)
		}
		return nil
	case "name", "class", "parameters", "info":
		return readOnly(n.path, prop)
	}
	return unknownProp(n.path, prop)
}

func (n *deviceNode) call(method string, _ []any) (any, error) {
	return nil, unknownMethod(n.path, method)
}

type parameterNode struct {
	param *Parameter
	path  string
}

func (n *parameterNode) get(prop string) (any, error) {
	p := n.param
	switch prop {
	case "name":
		return p.Name, nil
	case "value":
		return p.Value, nil
	case "min":
		return p.Min, nil
	case "max":
		return p.Max, nil
	case "default":
		return p.Default, nil
	case "is_enabled":
		return !p.ReadOnly, nil
	case "info":
		return parameterInfo(p), nil
	}
	return nil, unknownProp(n.path, prop)
}

func (n *parameterNode) set(prop string, value any) error {
	p := n.param
	if prop != "value" {
		if _, err := n.get(prop); err != nil {
			return err
		}
		return readOnly(n.path, prop)
	}
	if p.ReadOnly {
		return readOnly(n.path, p.Name)
	}
	v, err := toFloat(value)
	if err != nil {
		return err
	}
	if v < p.Min || v > p.Max {
		return outOfRange(p.Name, v, p.Min, p.Max)
	}
	p.Value = v
	return nil
}

func (n *parameterNode) call(method string, _ []any) (any, error) {
	if method != "reset" {
		return nil, unknownMethod(n.path, method)
	}
	if n.param.ReadOnly {
		return nil, readOnly(n.path, n.param.Name)
	}
	n.param.Value = n.param.Default
	return n.param.Value, nil
}

func parameterInfo(p *Parameter) map[string]any {
	return map[string]any{
		"name":      p.Name,
		"value":     p.Value,
		"min":       p.Min,
		"max":       p.Max,
		"default":   p.Default,
		"read_only": p.ReadOnly,
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

package scheduler

import (
	"context"

	"gitlab.com/gomidi/midi/v2"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

// HostSender routes MIDI messages to the host's send_midi call. Failures are
// logged by the access layer and dropped.
func HostSender(access *remote.Access) Sender {
	return func(msg midi.Message) error {
		data := make([]any, len(msg))
		for i, b := range msg {
			data[i] = int(b)
		}
		_, err := access.Call(context.Background(), remote.Root, func(obj remote.Object) (any, error) {
			return obj.Call("send_midi", data)
		}, remote.CallOptions{Name: "send_midi", Required: true})
		return err
	}
}

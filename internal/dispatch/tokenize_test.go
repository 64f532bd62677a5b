package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "set_volume 0 0.5", []string{"set_volume", "0", "0.5"}},
		{"extra whitespace", "  set_volume\t0   0.5 ", []string{"set_volume", "0", "0.5"}},
		{"double quotes", `create_track midi "Lead Synth"`, []string{"create_track", "midi", "Lead Synth"}},
		{"single quotes", `rename_track 2 'Pad  Layer'`, []string{"rename_track", "2", "Pad  Layer"}},
		{"escaped quote", `rename_clip 0 0 "The \"Drop\""`, []string{"rename_clip", "0", "0", `The "Drop"`}},
		{"empty quoted", `create_scene ""`, []string{"create_scene", ""}},
		{"adjacent", `name"with"quote`, []string{"namewithquote"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_Unterminated(t *testing.T) {
	_, err := Tokenize(`create_track midi "Lead`)
	assert.Error(t, err)
}

func TestArgs(t *testing.T) {
	a := argList{"3", "#ff8800", "on", "1.5", "hello", "world"}

	idx, err := a.index(0, "track")
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	color, err := a.color(1)
	require.NoError(t, err)
	assert.Equal(t, 0xff8800, color)

	on, err := a.bool(2, "mute")
	require.NoError(t, err)
	assert.True(t, on)

	f, err := a.float(3, "value")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	assert.Equal(t, "hello world", a.rest(4))
	assert.Equal(t, "", a.rest(9))

	_, err = a.bool(4, "mute")
	var usage *usageError
	assert.ErrorAs(t, err, &usage)

	_, err = argList{"#zzzzzz"}.color(0)
	assert.ErrorAs(t, err, &usage)
}

func TestNewCall_Line(t *testing.T) {
	c, err := newCall(Request{Line: `Create_Track audio "Vox 2"`})
	require.NoError(t, err)
	assert.Equal(t, CmdCreateTrack, c.cmd)
	assert.Equal(t, "create_track", c.name)
	assert.Equal(t, argList{"audio", "Vox 2"}, c.args)

	c, err = newCall(Request{Command: "play it loud"})
	require.NoError(t, err)
	assert.Equal(t, Unrecognized, c.cmd)
	assert.Equal(t, FamilyFallback, c.entry.Family)

	_, err = newCall(Request{})
	assert.Error(t, err)
}

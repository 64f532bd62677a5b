package dispatch

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/stagehand/internal/host"
	"github.com/Conceptual-Machines/stagehand/internal/models"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/Conceptual-Machines/stagehand/internal/scheduler"
	"github.com/Conceptual-Machines/stagehand/internal/search"
	"github.com/Conceptual-Machines/stagehand/internal/status"
)

type fakeGenerator struct {
	mu        sync.Mutex
	notes     []models.NoteEvent
	err       error
	healthErr error
	started   chan struct{}
	release   chan struct{}
	requests  []models.GenerationRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req models.GenerationRequest) ([]models.NoteEvent, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes, f.err
}

func (f *fakeGenerator) Health(context.Context) error {
	return f.healthErr
}

func (f *fakeGenerator) lastRequest() models.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeInterpreter struct {
	result *models.Interpretation
	err    error
	prompt string
}

func (f *fakeInterpreter) Interpret(_ context.Context, prompt string) (*models.Interpretation, error) {
	f.prompt = prompt
	return f.result, f.err
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

func noTimers(time.Duration, func()) scheduler.Timer {
	return stubTimer{}
}

type fixture struct {
	engine  *Engine
	session *host.Session
	access  *remote.Access
	gen     *fakeGenerator
}

func newFixture(t *testing.T, gen *fakeGenerator, opts ...func(*Deps)) *fixture {
	t.Helper()
	s := host.NewDemoSession()
	access := remote.NewAccess(s, remote.NewStateCache(time.Minute), remote.RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	})
	deps := Deps{
		Access:              access,
		Searcher:            search.NewSearcher(access, nil, false),
		Player:              scheduler.NewPlayer(scheduler.HostSender(access), scheduler.WithAfterFunc(noTimers)),
		ExportDir:           t.TempDir(),
		CollaboratorTimeout: time.Second,
	}
	if gen != nil {
		deps.Generator = gen
	}
	for _, opt := range opts {
		opt(&deps)
	}

	e := New(deps)
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	t.Cleanup(func() {
		cancel()
		e.Wait()
	})
	return &fixture{engine: e, session: s, access: access, gen: gen}
}

func (f *fixture) run(t *testing.T, line string) Reply {
	t.Helper()
	reply, err := f.engine.Execute(context.Background(), line)
	require.NoError(t, err)
	return reply
}

func errorKind(r Reply) string {
	kind, _ := r.Result["error_kind"].(string)
	return kind
}

func bassNotes() []models.NoteEvent {
	return []models.NoteEvent{
		{Pitch: 36, StartTime: 0, Duration: 1, Velocity: 100},
		{Pitch: 43, StartTime: 2, Duration: 1, Velocity: 90},
		{Pitch: 41, StartTime: 20, Duration: 1, Velocity: 90},
	}
}

func TestTable_EveryCommandHasUsageAndHandler(t *testing.T) {
	assert.GreaterOrEqual(t, len(table), 80)
	for cmd, e := range table {
		assert.NotNil(t, e.run, cmd)
		assert.True(t, strings.HasPrefix(e.Usage, string(cmd)), "usage of %s", cmd)
		assert.Equal(t, cmd, Parse(strings.ToUpper(string(cmd))))
	}
	assert.Equal(t, Unrecognized, Parse("make it funky"))
}

func TestTable_CreationsAreNotIdempotent(t *testing.T) {
	for _, cmd := range []Command{CmdCreateTrack, CmdDuplicateTrack, CmdCreateClip, CmdCreateScene, CmdLoadDevice, CmdInsert, CmdInsertClip} {
		assert.False(t, table[cmd].Idempotent, cmd)
	}
	assert.True(t, table[CmdSetVolume].Idempotent)
}

func TestSetVolume_InvalidatesTrackAndReplies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.access.Get(ctx, "live_set tracks 0", "volume")
	require.NoError(t, err)
	_, err = f.access.Get(ctx, "live_set tracks 1", "volume")
	require.NoError(t, err)
	require.Contains(t, f.access.Cache().Keys(), "live_set tracks 0|volume")

	reply := f.run(t, "set_volume 0 0.5")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, map[string]any{
		"status": "ok",
		"action": "set_volume",
		"index":  0,
		"volume": 0.5,
	}, reply.Result)

	keys := f.access.Cache().Keys()
	assert.NotContains(t, keys, "live_set tracks 0|volume")
	assert.Contains(t, keys, "live_set tracks 1|volume", "other tracks stay cached")

	v, err := f.access.Get(ctx, "live_set tracks 0", "volume")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestIndexValidation_NoRemoteCalls(t *testing.T) {
	f := newFixture(t, nil)

	for _, line := range []string{
		"set_volume -1 0.5",
		"set_volume one 0.5",
		"get_param 0 1.5 0",
		"create_clip 0 -2 16",
		"fire_scene x",
	} {
		before := f.access.Calls()
		reply := f.run(t, line)
		assert.False(t, reply.OK(), line)
		assert.Equal(t, "INVALID_PATH", errorKind(reply), line)
		assert.Equal(t, before, f.access.Calls(), "%s reached the host", line)
	}
}

func TestMissingArgs_UsageNoOp(t *testing.T) {
	f := newFixture(t, nil)

	before := f.access.Calls()
	reply := f.run(t, "set_volume 0")
	assert.Equal(t, status.StatusError, reply.Status)
	assert.Equal(t, "usage", reply.Result["error"])
	assert.Equal(t, "set_volume <track> <0..1>", reply.Result["usage"])
	assert.Equal(t, before, f.access.Calls())

	reply = f.run(t, "set_bars lots")
	assert.Equal(t, "usage", reply.Result["error"])
}

func TestCreateClip_OccupiedSlot(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, "create_clip 0 0 16")
	require.True(t, reply.OK(), reply.Message)
	f.run(t, "rename_clip 0 0 Intro")

	reply = f.run(t, "create_clip 0 0 16")
	assert.Equal(t, "STATE", errorKind(reply))
	assert.Equal(t, false, reply.Result["retryable"])

	clip, ok := f.session.Clip(0, 0)
	require.True(t, ok)
	assert.Equal(t, "Intro", clip.Name, "occupied slot is left alone")
	assert.Equal(t, 16.0, clip.Length)
}

func TestCreateTrack_QuotedNameAndNoRetry(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, `create_track midi "Lead Synth"`)
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 5, reply.Result["index"])
	track, ok := f.session.Track(5)
	require.True(t, ok)
	assert.Equal(t, "Lead Synth", track.Name)

	f.session.FailNext(remote.Root, remote.KindTransient, 1)
	reply = f.run(t, "create_track audio")
	assert.Equal(t, "TRANSIENT", errorKind(reply))
	assert.Equal(t, 6, f.session.TrackCount(), "a failed creation is not retried")

	reply = f.run(t, "create_track bus")
	assert.Equal(t, "usage", reply.Result["error"])
}

func TestIdempotentWrite_RetriesTransient(t *testing.T) {
	f := newFixture(t, nil)

	f.session.FailNext("live_set tracks 1", remote.KindTransient, 2)
	reply := f.run(t, "set_pan 1 -0.25")
	require.True(t, reply.OK(), reply.Message)

	track, _ := f.session.Track(1)
	assert.Equal(t, -0.25, track.Pan)
}

func TestNonFiniteArgumentsAreUsageErrors(t *testing.T) {
	f := newFixture(t, nil)
	before, _ := f.session.Track(0)
	volume := before.Volume

	for _, line := range []string{
		"set_volume 0 NaN",
		"set_pan 0 -Inf",
		"quantize_clip 0 0 Inf",
		"set_song_tempo NaN",
		"set_bars NaN",
	} {
		reply := f.run(t, line)
		assert.Equal(t, "usage", reply.Result["error"], line)
	}

	after, _ := f.session.Track(0)
	assert.Equal(t, volume, after.Volume)
}

func TestSetBars_HugeValueClamps(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, "set_bars 1e20")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 32, f.run(t, "get_defaults").Result["defaults"].(map[string]any)["bars"])

	reply = f.run(t, "set_bars -99999999999999999999")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 1, f.run(t, "get_defaults").Result["defaults"].(map[string]any)["bars"])
}

func TestSelectTrack_LookupFailureKeepsKind(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, "select_track 9")
	assert.Equal(t, "INVALID_PATH", errorKind(reply))

	f.session.FailNext("live_set tracks 1", remote.KindPermission, 1)
	reply = f.run(t, "select_track 1")
	assert.Equal(t, "PERMISSION", errorKind(reply))

	f.session.FailNext("live_set tracks 1", remote.KindTransient, 1)
	reply = f.run(t, "select_track 1")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 1, reply.Result["index"])
}

func TestRead_RetriesTransient(t *testing.T) {
	f := newFixture(t, nil)

	f.session.FailNext("live_set tracks 0", remote.KindTransient, 1)
	reply := f.run(t, "get_track_info 0")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 0, reply.Result["index"])
}

func TestErrorKinds(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		line string
		kind string
	}{
		{"get_track_info 42", "INVALID_PATH"},
		{"set_param 0 0 4 0.5", "PERMISSION"},
		{"set_volume 0 3", "STATE"},
		{"set_arm 4 on", "STATE"},
		{"delete_scene 99", "INVALID_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			reply := f.run(t, tt.line)
			assert.Equal(t, status.StatusError, reply.Result["status"])
			assert.Equal(t, tt.kind, errorKind(reply))
			assert.NotEmpty(t, reply.Result["error"])
		})
	}
}

func TestSetters_ClampAndReset(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, "set_bars 64")
	require.True(t, reply.OK())
	assert.Equal(t, 32, reply.Result["bars"])
	assert.Equal(t, true, reply.Result["clamped"])

	f.run(t, "set_swing -5")
	f.run(t, "set_density 5")
	f.run(t, "set_key F#m")
	f.run(t, "set_style Lo-Fi")

	reply = f.run(t, "get_defaults")
	defaults := reply.Result["defaults"].(map[string]any)
	assert.Equal(t, 32, defaults["bars"])
	assert.Equal(t, 0, defaults["swing"])
	assert.Equal(t, 2.0, defaults["density"])
	assert.Equal(t, "F#m", defaults["key"])
	assert.Equal(t, "lo-fi", defaults["style"])

	f.run(t, "reset_defaults")
	reply = f.run(t, "get_defaults")
	assert.Equal(t, 4, reply.Result["defaults"].(map[string]any)["bars"])
}

func TestGenerate_FailsFastWhenDisconnected(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)

	reply := f.run(t, "generate_bass")
	assert.Equal(t, "CONNECTION", errorKind(reply))
	assert.Empty(t, gen.requests)

	gen.healthErr = &remote.Error{Kind: remote.KindConnection, Message: "refused"}
	reply = f.run(t, "health_check")
	assert.Equal(t, "CONNECTION", errorKind(reply))

	gen.healthErr = nil
	reply = f.run(t, "health_check")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, true, reply.Result["connected"])
}

func TestGenerate_ReplacesBufferFromDefaults(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)
	f.run(t, "health_check")
	f.run(t, "set_key Dm")
	f.run(t, "set_bars 8")

	reply := f.run(t, "generate_bass walking line")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 3, reply.Result["count"])

	req := gen.lastRequest()
	assert.Equal(t, "bass", req.Kind)
	assert.Equal(t, "Dm", req.Key)
	assert.Equal(t, 8, req.Bars)
	assert.Equal(t, "walking line", req.Prompt)

	reply = f.run(t, "show_buffer")
	assert.Equal(t, 3, reply.Result["count"])
	assert.Equal(t, "generate_bass", reply.Result["source"])
}

func TestGenerate_SeedAndInvalidNotes(t *testing.T) {
	notes := append(bassNotes(), models.NoteEvent{Pitch: 40, StartTime: -1, Duration: 1, Velocity: 90})
	gen := &fakeGenerator{notes: notes}
	f := newFixture(t, gen)
	f.run(t, "health_check")

	reply := f.run(t, "generate_melody seed:42 rising line")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 3, reply.Result["count"])
	assert.Equal(t, 1, reply.Result["dropped"])

	req := gen.lastRequest()
	assert.Equal(t, models.KindMelody, req.Kind)
	require.NotNil(t, req.Seed)
	assert.Equal(t, 42, *req.Seed)
	assert.Equal(t, "rising line", req.Prompt)

	reply = f.run(t, "generate_chords moody")
	require.True(t, reply.OK(), reply.Message)
	assert.Nil(t, gen.lastRequest().Seed)
	assert.Equal(t, "moody", gen.lastRequest().Prompt)

	reply = f.run(t, "generate_arp seed:abc")
	assert.Equal(t, "usage", reply.Result["error"])
}

func TestGenerate_FailureLeavesBuffer(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)
	f.run(t, "health_check")
	f.run(t, "generate_bass")

	gen.mu.Lock()
	gen.err = &remote.Error{Kind: remote.KindState, Message: "unsupported style"}
	gen.mu.Unlock()
	reply := f.run(t, "generate_chords")
	assert.Equal(t, "STATE", errorKind(reply))

	reply = f.run(t, "show_buffer")
	assert.Equal(t, 3, reply.Result["count"])
	assert.Equal(t, "generate_bass", reply.Result["source"])
}

func TestGenerate_LateResponseAfterClear(t *testing.T) {
	gen := &fakeGenerator{
		notes:   bassNotes(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	f := newFixture(t, gen)
	f.run(t, "health_check")

	pending := make(chan Reply, 1)
	go func() {
		reply, _ := f.engine.Execute(context.Background(), "generate_bass")
		pending <- reply
	}()
	<-gen.started

	reply := f.run(t, "clear")
	require.True(t, reply.OK())
	close(gen.release)

	late := <-pending
	assert.False(t, late.OK())
	assert.Equal(t, "STATE", errorKind(late))

	reply = f.run(t, "show_buffer")
	assert.Equal(t, 0, reply.Result["count"], "buffer stays empty")
}

func TestCommandsFlowWhileGenerating(t *testing.T) {
	gen := &fakeGenerator{
		notes:   bassNotes(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	f := newFixture(t, gen)
	f.run(t, "health_check")

	pending := make(chan Reply, 1)
	go func() {
		reply, _ := f.engine.Execute(context.Background(), "generate_drums")
		pending <- reply
	}()
	<-gen.started

	reply := f.run(t, "set_tempo 128")
	assert.True(t, reply.OK(), "setters are not blocked by a pending generation")

	close(gen.release)
	assert.True(t, (<-pending).OK())
}

func TestInsert_FromBuffer(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)
	f.run(t, "health_check")
	f.run(t, "generate_bass")

	reply := f.run(t, "insert")
	assert.Equal(t, "STATE", errorKind(reply), "nothing selected")

	f.run(t, "create_clip 1 0 16")
	f.run(t, "select_clip 1 0")
	reply = f.run(t, "insert")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 2, reply.Result["inserted"])
	assert.Equal(t, 1, reply.Result["dropped"])

	notes, _ := f.session.ClipNotes(1, 0)
	assert.Len(t, notes, 2)
}

func TestInsertClip_CreatesClip(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)
	f.run(t, "health_check")
	f.run(t, "generate_bass")
	f.run(t, "select_clip 2 3")

	reply := f.run(t, "insert_clip")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, true, reply.Result["created"])
	assert.Equal(t, 24.0, reply.Result["loop_end"])
	assert.Equal(t, 3, reply.Result["inserted"])
}

func TestPlayStopAndTranspose(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)

	reply := f.run(t, "play")
	assert.Equal(t, "STATE", errorKind(reply))

	f.run(t, "health_check")
	f.run(t, "generate_bass")
	reply = f.run(t, "play")
	require.True(t, reply.OK())
	assert.Equal(t, 3, reply.Result["notes"])

	reply = f.run(t, "transpose 12")
	assert.Equal(t, 3, reply.Result["count"])
	reply = f.run(t, "show_buffer 1")
	notes := reply.Result["notes"].([]map[string]any)
	require.Len(t, notes, 1)
	assert.Equal(t, 48, notes[0]["pitch"])

	reply = f.run(t, "stop")
	require.True(t, reply.OK())
	reply = f.run(t, "show_buffer")
	assert.Equal(t, 3, reply.Result["count"], "stop keeps the buffer")
}

func TestExportMIDI(t *testing.T) {
	gen := &fakeGenerator{notes: bassNotes()}
	f := newFixture(t, gen)
	f.run(t, "health_check")
	f.run(t, "generate_bass")

	reply := f.run(t, `export_midi "night bass"`)
	require.True(t, reply.OK(), reply.Message)
	path := reply.Result["path"].(string)
	assert.True(t, strings.HasSuffix(path, "night_bass.mid"))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCaptureClip(t *testing.T) {
	f := newFixture(t, nil)
	f.run(t, "create_clip 0 1 4")
	f.run(t, "select_clip 0 1")

	clip, err := f.session.Lookup(context.Background(), "live_set tracks 0 clip_slots 1 clip")
	require.NoError(t, err)
	_, err = clip.Call("begin_notes")
	require.NoError(t, err)
	_, err = clip.Call("add_note", 60, 0.0, 1.0, 100)
	require.NoError(t, err)
	_, err = clip.Call("commit_notes")
	require.NoError(t, err)

	reply := f.run(t, "capture_clip 0 1")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 1, reply.Result["count"])
}

func TestSearchLibrary(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, "search_library bpm:120 kick")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 1, reply.Result["count"])
	items := reply.Result["items"].([]models.LibraryItem)
	assert.Equal(t, "Kick Loop 120", items[0].Name)

	reply = f.run(t, "browse instrument")
	assert.Equal(t, 3, reply.Result["count"])

	reply = f.run(t, "load_item 3 audio_effects/Compressor")
	require.True(t, reply.OK(), reply.Message)
	track, _ := f.session.Track(3)
	require.Len(t, track.Devices, 1)
	assert.Equal(t, "Compressor", track.Devices[0].Name)

	reply = f.run(t, "load_item 3 nowhere/Nothing")
	assert.Equal(t, "INVALID_PATH", errorKind(reply))
}

func TestSearchLibrary_HostWithoutBrowser(t *testing.T) {
	f := newFixture(t, nil)
	f.session.FailNext(remote.Root, remote.KindInvalidPath, 1)

	reply := f.run(t, "search_library kick")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 0, reply.Result["count"])
	assert.Contains(t, reply.Result["library_error"], "Object not found")
}

func TestFallback_NLP(t *testing.T) {
	interp := &fakeInterpreter{result: &models.Interpretation{
		Description: "Added a bassline",
		Notes:       []map[string]any{{"pitch": 40, "start_time": 0.0, "duration": 1.0, "velocity": 100}},
	}}
	f := newFixture(t, nil, func(d *Deps) { d.Interpreter = interp })

	reply := f.run(t, "make it groovier please")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, "Added a bassline", reply.Message)
	assert.Equal(t, "make it groovier please", interp.prompt)

	reply = f.run(t, "show_buffer")
	assert.Equal(t, 1, reply.Result["count"])

	f.run(t, `ask "what key is this"`)
	assert.Equal(t, "what key is this", interp.prompt)

	interp.err = &remote.Error{Kind: remote.KindConnection, Message: "timeout"}
	reply = f.run(t, "do something")
	assert.Equal(t, "CONNECTION", errorKind(reply))
}

func TestFallback_WithoutInterpreter(t *testing.T) {
	f := newFixture(t, nil)
	reply := f.run(t, "dance")
	assert.Equal(t, "usage", reply.Result["error"])
}

func TestPanicIsReportedAsUnknown(t *testing.T) {
	f := newFixture(t, nil)
	player := f.engine.player
	f.engine.player = nil

	reply := f.run(t, "stop")
	assert.Equal(t, "UNKNOWN", errorKind(reply))
	f.engine.player = player

	reply = f.run(t, "get_defaults")
	assert.True(t, reply.OK(), "the dispatcher survives")
}

func TestRepliesAreEmitted(t *testing.T) {
	f := newFixture(t, nil)
	events, cancel := f.engine.Status().Subscribe()
	defer cancel()

	reply := f.run(t, "list_tracks")
	require.True(t, reply.OK())
	assert.Equal(t, 5, reply.Result["count"])

	select {
	case ev := <-events:
		assert.Equal(t, reply.ID, ev.ID)
		assert.Equal(t, "list_tracks", ev.Command)
		assert.Equal(t, status.StatusOK, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("no status event")
	}
}

func TestDeviceAndParameterCommands(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.run(t, "load_device 3 Auto Filter")
	require.True(t, reply.OK(), reply.Message)
	assert.Equal(t, 0, reply.Result["device"])

	reply = f.run(t, "list_devices 2")
	assert.Equal(t, 2, reply.Result["count"])

	reply = f.run(t, "set_param 2 0 1 0.3")
	require.True(t, reply.OK(), reply.Message)
	reply = f.run(t, "get_param 2 0 1")
	assert.Equal(t, 0.3, reply.Result["info"].(map[string]any)["value"])

	reply = f.run(t, "reset_param 2 0 1")
	require.True(t, reply.OK(), reply.Message)

	reply = f.run(t, "set_device_enabled 2 1 off")
	require.True(t, reply.OK(), reply.Message)
	reply = f.run(t, "delete_device 2 1")
	require.True(t, reply.OK(), reply.Message)
	reply = f.run(t, "list_devices 2")
	assert.Equal(t, 1, reply.Result["count"])
}

func TestSessionAndSceneCommands(t *testing.T) {
	f := newFixture(t, nil)

	for _, line := range []string{
		"start_transport",
		"set_song_tempo 128",
		"set_metronome on",
		"set_loop 0 16",
		"create_scene Outro",
		"rename_scene 0 Intro",
		"duplicate_scene 0",
		"fire_scene 1",
		"stop_all_clips",
		"stop_transport",
		"undo",
		"redo",
	} {
		reply := f.run(t, line)
		assert.True(t, reply.OK(), "%s: %s", line, reply.Message)
	}

	reply := f.run(t, "get_session_info")
	session := reply.Result["session"].(map[string]any)
	assert.Equal(t, 128.0, session["tempo"])
	assert.Equal(t, true, session["metronome"])

	reply = f.run(t, "list_scenes")
	scenes := reply.Result["scenes"].([]any)
	assert.Equal(t, "Intro", scenes[0].(map[string]any)["name"])
}

func TestSubmit_AfterStop(t *testing.T) {
	s := host.NewDemoSession()
	e := New(Deps{Access: remote.NewAccess(s, nil, remote.DefaultRetryPolicy())})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	_, err := e.Execute(context.Background(), "status")
	assert.True(t, errors.Is(err, ErrStopped))
}

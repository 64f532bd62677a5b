package dispatch

import (
	"sort"
	"strings"

	"github.com/Conceptual-Machines/stagehand/internal/models"
)

// Command names one entry of the dispatch table. Names outside the table
// parse to Unrecognized and go to the NLP fallback.
type Command string

// Family groups commands by what they touch
type Family string

const (
	FamilySession    Family = "session"
	FamilyScene      Family = "scene"
	FamilyTrack      Family = "track"
	FamilyDevice     Family = "device"
	FamilyClip       Family = "clip"
	FamilySetter     Family = "setter"
	FamilyGeneration Family = "generation"
	FamilyPlayback   Family = "playback"
	FamilySearch     Family = "search"
	FamilyFallback   Family = "fallback"
)

const (
	Unrecognized Command = ""

	CmdHealthCheck       Command = "health_check"
	CmdStatus            Command = "status"
	CmdHelp              Command = "help"
	CmdGetSessionInfo    Command = "get_session_info"
	CmdStartTransport    Command = "start_transport"
	CmdStopTransport     Command = "stop_transport"
	CmdContinueTransport Command = "continue_transport"
	CmdSetSongTempo      Command = "set_song_tempo"
	CmdSetMetronome      Command = "set_metronome"
	CmdUndo              Command = "undo"
	CmdRedo              Command = "redo"
	CmdTapTempo          Command = "tap_tempo"
	CmdSetLoop           Command = "set_loop"

	CmdCreateScene    Command = "create_scene"
	CmdDeleteScene    Command = "delete_scene"
	CmdDuplicateScene Command = "duplicate_scene"
	CmdFireScene      Command = "fire_scene"
	CmdRenameScene    Command = "rename_scene"
	CmdListScenes     Command = "list_scenes"

	CmdListTracks     Command = "list_tracks"
	CmdGetTrackInfo   Command = "get_track_info"
	CmdCreateTrack    Command = "create_track"
	CmdDeleteTrack    Command = "delete_track"
	CmdDuplicateTrack Command = "duplicate_track"
	CmdRenameTrack    Command = "rename_track"
	CmdSetTrackColor  Command = "set_track_color"
	CmdSelectTrack    Command = "select_track"
	CmdSetVolume      Command = "set_volume"
	CmdSetPan         Command = "set_pan"
	CmdSetMute        Command = "set_mute"
	CmdSetSolo        Command = "set_solo"
	CmdSetArm         Command = "set_arm"
	CmdSetSend        Command = "set_send"
	CmdStopTrackClips Command = "stop_track_clips"

	CmdListDevices      Command = "list_devices"
	CmdGetDeviceInfo    Command = "get_device_info"
	CmdLoadDevice       Command = "load_device"
	CmdDeleteDevice     Command = "delete_device"
	CmdSetDeviceEnabled Command = "set_device_enabled"
	CmdListParams       Command = "list_params"
	CmdGetParam         Command = "get_param"
	CmdSetParam         Command = "set_param"
	CmdResetParam       Command = "reset_param"

	CmdListClips     Command = "list_clips"
	CmdGetClipInfo   Command = "get_clip_info"
	CmdCreateClip    Command = "create_clip"
	CmdDeleteClip    Command = "delete_clip"
	CmdDuplicateClip Command = "duplicate_clip"
	CmdFireClip      Command = "fire_clip"
	CmdStopClip      Command = "stop_clip"
	CmdRenameClip    Command = "rename_clip"
	CmdSelectClip    Command = "select_clip"
	CmdSetClipLoop   Command = "set_clip_loop"
	CmdGetClipNotes  Command = "get_clip_notes"
	CmdClearClip     Command = "clear_clip"
	CmdQuantizeClip  Command = "quantize_clip"
	CmdStopAllClips  Command = "stop_all_clips"
	CmdCaptureClip   Command = "capture_clip"

	CmdSetKey        Command = "set_key"
	CmdSetBars       Command = "set_bars"
	CmdSetStyle      Command = "set_style"
	CmdSetVoicing    Command = "set_voicing"
	CmdSetPattern    Command = "set_pattern"
	CmdSetTempo      Command = "set_tempo"
	CmdSetDrumGenre  Command = "set_drum_genre"
	CmdSetSwing      Command = "set_swing"
	CmdSetHumanize   Command = "set_humanize"
	CmdSetDensity    Command = "set_density"
	CmdGetDefaults   Command = "get_defaults"
	CmdResetDefaults Command = "reset_defaults"

	CmdGenerateChords Command = "generate_chords"
	CmdGenerateBass   Command = "generate_bass"
	CmdGenerateArp    Command = "generate_arp"
	CmdGenerateDrums  Command = "generate_drums"
	CmdGenerateMelody Command = "generate_melody"

	CmdPlay       Command = "play"
	CmdStop       Command = "stop"
	CmdClear      Command = "clear"
	CmdInsert     Command = "insert"
	CmdInsertClip Command = "insert_clip"
	CmdShowBuffer Command = "show_buffer"
	CmdTranspose  Command = "transpose"
	CmdExportMIDI Command = "export_midi"

	CmdSearchLibrary Command = "search_library"
	CmdBrowse        Command = "browse"
	CmdLoadItem      Command = "load_item"

	CmdAsk Command = "ask"
)

type handler func(e *Engine, c *call) (*outcome, error)

// entry describes one command. Idempotent entries may be retried on
// TRANSIENT failures; everything that creates or deletes is not.
type entry struct {
	Family     Family
	Usage      string
	MinArgs    int
	Idempotent bool
	run        handler
}

// CommandInfo is the public description of a table entry
type CommandInfo struct {
	Name       string `json:"name"`
	Family     Family `json:"family"`
	Usage      string `json:"usage"`
	Idempotent bool   `json:"idempotent"`
}

var table map[Command]entry

func init() {
	table = map[Command]entry{
		CmdHealthCheck:       {FamilySession, "health_check", 0, true, (*Engine).healthCheck},
		CmdStatus:            {FamilySession, "status", 0, true, (*Engine).status},
		CmdHelp:              {FamilySession, "help [command]", 0, true, (*Engine).help},
		CmdGetSessionInfo:    {FamilySession, "get_session_info", 0, true, (*Engine).getSessionInfo},
		CmdStartTransport:    {FamilySession, "start_transport", 0, true, rootMethod("start_playing", "Transport started")},
		CmdStopTransport:     {FamilySession, "stop_transport", 0, true, rootMethod("stop_playing", "Transport stopped")},
		CmdContinueTransport: {FamilySession, "continue_transport", 0, true, rootMethod("continue_playing", "Transport continued")},
		CmdSetSongTempo:      {FamilySession, "set_song_tempo <bpm>", 1, true, (*Engine).setSongTempo},
		CmdSetMetronome:      {FamilySession, "set_metronome <on|off>", 1, true, (*Engine).setMetronome},
		CmdUndo:              {FamilySession, "undo", 0, false, rootMethod("undo", "Undone")},
		CmdRedo:              {FamilySession, "redo", 0, false, rootMethod("redo", "Redone")},
		CmdTapTempo:          {FamilySession, "tap_tempo", 0, false, (*Engine).tapTempo},
		CmdSetLoop:           {FamilySession, "set_loop <start> <length>", 2, true, (*Engine).setLoop},

		CmdCreateScene:    {FamilyScene, "create_scene [name]", 0, false, (*Engine).createScene},
		CmdDeleteScene:    {FamilyScene, "delete_scene <scene>", 1, false, (*Engine).deleteScene},
		CmdDuplicateScene: {FamilyScene, "duplicate_scene <scene>", 1, false, (*Engine).duplicateScene},
		CmdFireScene:      {FamilyScene, "fire_scene <scene>", 1, true, (*Engine).fireScene},
		CmdRenameScene:    {FamilyScene, "rename_scene <scene> <name>", 2, true, (*Engine).renameScene},
		CmdListScenes:     {FamilyScene, "list_scenes", 0, true, (*Engine).listScenes},

		CmdListTracks:     {FamilyTrack, "list_tracks", 0, true, (*Engine).listTracks},
		CmdGetTrackInfo:   {FamilyTrack, "get_track_info <track>", 1, true, (*Engine).getTrackInfo},
		CmdCreateTrack:    {FamilyTrack, "create_track <midi|audio|return> [name]", 1, false, (*Engine).createTrack},
		CmdDeleteTrack:    {FamilyTrack, "delete_track <track>", 1, false, (*Engine).deleteTrack},
		CmdDuplicateTrack: {FamilyTrack, "duplicate_track <track>", 1, false, (*Engine).duplicateTrack},
		CmdRenameTrack:    {FamilyTrack, "rename_track <track> <name>", 2, true, (*Engine).renameTrack},
		CmdSetTrackColor:  {FamilyTrack, "set_track_color <track> <#rrggbb>", 2, true, (*Engine).setTrackColor},
		CmdSelectTrack:    {FamilyTrack, "select_track <track>", 1, true, (*Engine).selectTrack},
		CmdSetVolume:      {FamilyTrack, "set_volume <track> <0..1>", 2, true, trackFloat("volume", "volume")},
		CmdSetPan:         {FamilyTrack, "set_pan <track> <-1..1>", 2, true, trackFloat("pan", "pan")},
		CmdSetMute:        {FamilyTrack, "set_mute <track> <on|off>", 2, true, trackBool("mute", "muted")},
		CmdSetSolo:        {FamilyTrack, "set_solo <track> <on|off>", 2, true, trackBool("solo", "soloed")},
		CmdSetArm:         {FamilyTrack, "set_arm <track> <on|off>", 2, true, trackBool("arm", "armed")},
		CmdSetSend:        {FamilyTrack, "set_send <track> <send> <0..1>", 3, true, (*Engine).setSend},
		CmdStopTrackClips: {FamilyTrack, "stop_track_clips <track>", 1, true, (*Engine).stopTrackClips},

		CmdListDevices:      {FamilyDevice, "list_devices <track>", 1, true, (*Engine).listDevices},
		CmdGetDeviceInfo:    {FamilyDevice, "get_device_info <track> <device>", 2, true, (*Engine).getDeviceInfo},
		CmdLoadDevice:       {FamilyDevice, "load_device <track> <name>", 2, false, (*Engine).loadDevice},
		CmdDeleteDevice:     {FamilyDevice, "delete_device <track> <device>", 2, false, (*Engine).deleteDevice},
		CmdSetDeviceEnabled: {FamilyDevice, "set_device_enabled <track> <device> <on|off>", 3, true, (*Engine).setDeviceEnabled},
		CmdListParams:       {FamilyDevice, "list_params <track> <device>", 2, true, (*Engine).listParams},
		CmdGetParam:         {FamilyDevice, "get_param <track> <device> <param>", 3, true, (*Engine).getParam},
		CmdSetParam:         {FamilyDevice, "set_param <track> <device> <param> <value>", 4, true, (*Engine).setParam},
		CmdResetParam:       {FamilyDevice, "reset_param <track> <device> <param>", 3, true, (*Engine).resetParam},

		CmdListClips:     {FamilyClip, "list_clips <track>", 1, true, (*Engine).listClips},
		CmdGetClipInfo:   {FamilyClip, "get_clip_info <track> <slot>", 2, true, (*Engine).getClipInfo},
		CmdCreateClip:    {FamilyClip, "create_clip <track> <slot> [beats]", 2, false, (*Engine).createClip},
		CmdDeleteClip:    {FamilyClip, "delete_clip <track> <slot>", 2, false, (*Engine).deleteClip},
		CmdDuplicateClip: {FamilyClip, "duplicate_clip <track> <slot> <target_slot>", 3, false, (*Engine).duplicateClip},
		CmdFireClip:      {FamilyClip, "fire_clip <track> <slot>", 2, true, slotCall("fire", "Fired")},
		CmdStopClip:      {FamilyClip, "stop_clip <track> <slot>", 2, true, slotCall("stop", "Stopped")},
		CmdRenameClip:    {FamilyClip, "rename_clip <track> <slot> <name>", 3, true, (*Engine).renameClip},
		CmdSelectClip:    {FamilyClip, "select_clip <track> <slot>", 2, true, (*Engine).selectClip},
		CmdSetClipLoop:   {FamilyClip, "set_clip_loop <track> <slot> <start> <end>", 4, true, (*Engine).setClipLoop},
		CmdGetClipNotes:  {FamilyClip, "get_clip_notes <track> <slot>", 2, true, (*Engine).getClipNotes},
		CmdClearClip:     {FamilyClip, "clear_clip <track> <slot>", 2, true, (*Engine).clearClip},
		CmdQuantizeClip:  {FamilyClip, "quantize_clip <track> <slot> [grid]", 2, true, (*Engine).quantizeClip},
		CmdStopAllClips:  {FamilyClip, "stop_all_clips", 0, true, (*Engine).stopAllClips},
		CmdCaptureClip:   {FamilyClip, "capture_clip <track> <slot>", 2, true, (*Engine).captureClip},

		CmdSetKey:        {FamilySetter, "set_key <key>", 1, true, (*Engine).setKey},
		CmdSetBars:       {FamilySetter, "set_bars <1..32>", 1, true, (*Engine).setBars},
		CmdSetStyle:      {FamilySetter, "set_style <style>", 1, true, (*Engine).setStyle},
		CmdSetVoicing:    {FamilySetter, "set_voicing <voicing>", 1, true, (*Engine).setVoicing},
		CmdSetPattern:    {FamilySetter, "set_pattern <pattern>", 1, true, (*Engine).setPattern},
		CmdSetTempo:      {FamilySetter, "set_tempo <bpm>", 1, true, (*Engine).setTempo},
		CmdSetDrumGenre:  {FamilySetter, "set_drum_genre <genre>", 1, true, (*Engine).setDrumGenre},
		CmdSetSwing:      {FamilySetter, "set_swing <0..100>", 1, true, (*Engine).setSwing},
		CmdSetHumanize:   {FamilySetter, "set_humanize <0..100>", 1, true, (*Engine).setHumanize},
		CmdSetDensity:    {FamilySetter, "set_density <0.1..2.0>", 1, true, (*Engine).setDensity},
		CmdGetDefaults:   {FamilySetter, "get_defaults", 0, true, (*Engine).getDefaults},
		CmdResetDefaults: {FamilySetter, "reset_defaults", 0, true, (*Engine).resetDefaults},

		CmdGenerateChords: {FamilyGeneration, "generate_chords [seed:N] [prompt]", 0, true, generate(models.KindChords)},
		CmdGenerateBass:   {FamilyGeneration, "generate_bass [seed:N] [prompt]", 0, true, generate(models.KindBass)},
		CmdGenerateArp:    {FamilyGeneration, "generate_arp [seed:N] [prompt]", 0, true, generate(models.KindArp)},
		CmdGenerateDrums:  {FamilyGeneration, "generate_drums [seed:N] [prompt]", 0, true, generate(models.KindDrums)},
		CmdGenerateMelody: {FamilyGeneration, "generate_melody [seed:N] [prompt]", 0, true, generate(models.KindMelody)},

		CmdPlay:       {FamilyPlayback, "play", 0, true, (*Engine).play},
		CmdStop:       {FamilyPlayback, "stop", 0, true, (*Engine).stop},
		CmdClear:      {FamilyPlayback, "clear", 0, true, (*Engine).clear},
		CmdInsert:     {FamilyPlayback, "insert", 0, false, (*Engine).insert},
		CmdInsertClip: {FamilyPlayback, "insert_clip", 0, false, (*Engine).insertClip},
		CmdShowBuffer: {FamilyPlayback, "show_buffer [limit]", 0, true, (*Engine).showBuffer},
		CmdTranspose:  {FamilyPlayback, "transpose <semitones>", 1, true, (*Engine).transpose},
		CmdExportMIDI: {FamilyPlayback, "export_midi [name]", 0, true, (*Engine).exportMIDI},

		CmdSearchLibrary: {FamilySearch, "search_library <query>", 1, true, (*Engine).searchLibrary},
		CmdBrowse:        {FamilySearch, "browse [type]", 0, true, (*Engine).browse},
		CmdLoadItem:      {FamilySearch, "load_item <track> <path>", 2, false, (*Engine).loadItem},

		CmdAsk: {FamilyFallback, "ask <text>", 1, true, (*Engine).ask},
	}
}

// Parse maps a command name to its table entry, case-insensitively
func Parse(name string) Command {
	cmd := Command(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := table[cmd]; ok {
		return cmd
	}
	return Unrecognized
}

// Commands lists the table sorted by family then name
func Commands() []CommandInfo {
	infos := make([]CommandInfo, 0, len(table))
	for cmd, e := range table {
		infos = append(infos, CommandInfo{
			Name:       string(cmd),
			Family:     e.Family,
			Usage:      e.Usage,
			Idempotent: e.Idempotent,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Family != infos[j].Family {
			return infos[i].Family < infos[j].Family
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

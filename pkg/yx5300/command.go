package yx5300

import "fmt"

// CommandCode is the command byte of a request frame.
type CommandCode byte

// Commands understood by the module.
const (
	CmdNul            CommandCode = 0x00
	CmdNextSong       CommandCode = 0x01
	CmdPrevSong       CommandCode = 0x02
	CmdPlayWithIndex  CommandCode = 0x03
	CmdVolumeUp       CommandCode = 0x04
	CmdVolumeDown     CommandCode = 0x05
	CmdSetVolume      CommandCode = 0x06
	CmdSetEqualizer   CommandCode = 0x07
	CmdSingleCycle    CommandCode = 0x08 // loop play the given track
	CmdSelectDevice   CommandCode = 0x09
	CmdSleepMode      CommandCode = 0x0a
	CmdWakeUp         CommandCode = 0x0b
	CmdReset          CommandCode = 0x0c
	CmdPlay           CommandCode = 0x0d
	CmdPause          CommandCode = 0x0e
	CmdPlayFolderFile CommandCode = 0x0f
	CmdStopPlay       CommandCode = 0x16
	CmdFolderCycle    CommandCode = 0x17
	CmdShufflePlay    CommandCode = 0x18
	CmdSetSingleCycle CommandCode = 0x19 // repeat on/off for current file
	CmdSetDAC         CommandCode = 0x1a
	CmdPlayWithVolume CommandCode = 0x22
	CmdShuffleFolder  CommandCode = 0x28
	CmdQueryStatus    CommandCode = 0x42
	CmdQueryVolume    CommandCode = 0x43
	CmdQueryEqualizer CommandCode = 0x44
	CmdQueryTotFiles  CommandCode = 0x48
	CmdQueryPlaying   CommandCode = 0x4c
	CmdQueryFldrFiles CommandCode = 0x4e
	CmdQueryTotFldr   CommandCode = 0x4f
)

// Option bytes used as data2 of on/off style commands.
const (
	OptOn  byte = 0x00
	OptOff byte = 0x01
)

// Storage devices for CmdSelectDevice.
const (
	DevUDisk byte = 0x01
	DevTF    byte = 0x02
	DevFlash byte = 0x04
)

// Equalizer presets for CmdSetEqualizer.
const (
	EqNormal byte = iota
	EqPop
	EqRock
	EqJazz
	EqClassic
	EqBass
)

// MaxVolume is the highest volume level accepted by the module.
const MaxVolume byte = 30

var commandNames = map[CommandCode]string{
	CmdNul:            "nul",
	CmdNextSong:       "next",
	CmdPrevSong:       "prev",
	CmdPlayWithIndex:  "play-index",
	CmdVolumeUp:       "volume-up",
	CmdVolumeDown:     "volume-down",
	CmdSetVolume:      "set-volume",
	CmdSetEqualizer:   "set-equalizer",
	CmdSingleCycle:    "single-cycle",
	CmdSelectDevice:   "select-device",
	CmdSleepMode:      "sleep",
	CmdWakeUp:         "wake-up",
	CmdReset:          "reset",
	CmdPlay:           "play",
	CmdPause:          "pause",
	CmdPlayFolderFile: "play-folder-file",
	CmdStopPlay:       "stop",
	CmdFolderCycle:    "folder-cycle",
	CmdShufflePlay:    "shuffle",
	CmdSetSingleCycle: "set-single-cycle",
	CmdSetDAC:         "set-dac",
	CmdPlayWithVolume: "play-with-volume",
	CmdShuffleFolder:  "shuffle-folder",
	CmdQueryStatus:    "query-status",
	CmdQueryVolume:    "query-volume",
	CmdQueryEqualizer: "query-equalizer",
	CmdQueryTotFiles:  "query-total-files",
	CmdQueryPlaying:   "query-playing",
	CmdQueryFldrFiles: "query-folder-files",
	CmdQueryTotFldr:   "query-total-folders",
}

// String implements fmt.Stringer.
func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cmd(0x%02x)", byte(c))
}

// IsQuery indicates the device answers the command with data
// instead of a plain acknowledgment.
func (c CommandCode) IsQuery() bool {
	return c >= CmdQueryStatus
}

// Request is a command with its two data bytes.
type Request struct {
	Command CommandCode
	Data1   byte
	Data2   byte
}

// NewRequest creates a Request.
func NewRequest(cmd CommandCode, data1, data2 byte) Request {
	return Request{Command: cmd, Data1: data1, Data2: data2}
}

// Frame builds the request frame with feedback requested.
func (r Request) Frame() Frame {
	return Frame{
		Version:  Version,
		Length:   PayloadLength,
		Command:  byte(r.Command),
		Feedback: FeedbackOn,
		Data1:    r.Data1,
		Data2:    r.Data2,
	}
}

// String implements fmt.Stringer.
func (r Request) String() string {
	return fmt.Sprintf("%s(0x%02x, 0x%02x)", r.Command, r.Data1, r.Data2)
}

// Package player runs a YX5300 player in a control loop and exposes
// its operations by name.
package player

import (
	"fmt"
	"sort"

	"github.com/robotalks/mp3.go/pkg/yx5300"
)

// Command is a named player operation.
type Command struct {
	Name  string
	Args  []string
	Usage string
	Run   func(p *yx5300.Player, args []byte) bool
}

// UnknownCommandError indicates the command name isn't in Commands.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// ArgsError indicates invalid arguments.
type ArgsError struct {
	Command *Command
	Reason  string
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("%s: %s, usage: %s", e.Command.Name, e.Reason, e.Command.Synopsis())
}

// Synopsis is the command name followed by its args.
func (c *Command) Synopsis() string {
	s := c.Name
	for _, arg := range c.Args {
		s += " <" + arg + ">"
	}
	return s
}

func noArgs(fn func(*yx5300.Player) bool) func(*yx5300.Player, []byte) bool {
	return func(p *yx5300.Player, _ []byte) bool { return fn(p) }
}

func oneArg(fn func(*yx5300.Player, byte) bool) func(*yx5300.Player, []byte) bool {
	return func(p *yx5300.Player, args []byte) bool { return fn(p, args[0]) }
}

func onOffArg(fn func(*yx5300.Player, bool) bool) func(*yx5300.Player, []byte) bool {
	return func(p *yx5300.Player, args []byte) bool { return fn(p, args[0] != 0) }
}

// Commands are all operations by name.
var Commands = map[string]*Command{}

func addCommands(cmds ...*Command) {
	for _, cmd := range cmds {
		Commands[cmd.Name] = cmd
	}
}

func init() {
	addCommands(
		&Command{Name: "begin", Usage: "Reset state and select the TF card.", Run: noArgs((*yx5300.Player).Begin)},
		&Command{Name: "device", Args: []string{"dev"}, Usage: "Select storage: 1 U-disk, 2 TF card, 4 flash.", Run: oneArg((*yx5300.Player).Device)},
		&Command{Name: "equalizer", Args: []string{"eq"}, Usage: "Equalizer 0-5: normal, pop, rock, jazz, classic, bass.", Run: oneArg((*yx5300.Player).Equalizer)},
		&Command{Name: "sleep", Usage: "Enter sleep mode.", Run: noArgs((*yx5300.Player).Sleep)},
		&Command{Name: "wake-up", Usage: "Leave sleep mode.", Run: noArgs((*yx5300.Player).WakeUp)},
		&Command{Name: "shuffle", Args: []string{"on"}, Usage: "Shuffle play on (1) or off (0).", Run: onOffArg((*yx5300.Player).Shuffle)},
		&Command{Name: "repeat", Args: []string{"on"}, Usage: "Repeat the current file on (1) or off (0).", Run: onOffArg((*yx5300.Player).Repeat)},
		&Command{Name: "reset", Usage: "Reset the module.", Run: noArgs((*yx5300.Player).Reset)},
		&Command{Name: "next", Usage: "Play the next track.", Run: noArgs((*yx5300.Player).PlayNext)},
		&Command{Name: "prev", Usage: "Play the previous track.", Run: noArgs((*yx5300.Player).PlayPrev)},
		&Command{Name: "stop", Usage: "Stop playing.", Run: noArgs((*yx5300.Player).PlayStop)},
		&Command{Name: "pause", Usage: "Pause playing.", Run: noArgs((*yx5300.Player).PlayPause)},
		&Command{Name: "play", Usage: "Resume playing.", Run: noArgs((*yx5300.Player).PlayStart)},
		&Command{Name: "track", Args: []string{"index"}, Usage: "Play a track by index.", Run: oneArg((*yx5300.Player).PlayTrack)},
		&Command{Name: "track-repeat", Args: []string{"file"}, Usage: "Play a file in a loop.", Run: oneArg((*yx5300.Player).PlayTrackRepeat)},
		&Command{Name: "play-specific", Args: []string{"folder", "file"}, Usage: "Play a file in a folder.", Run: func(p *yx5300.Player, args []byte) bool {
			return p.PlaySpecific(args[0], args[1])
		}},
		&Command{Name: "folder-repeat", Args: []string{"folder"}, Usage: "Play all files of a folder in a loop.", Run: oneArg((*yx5300.Player).PlayFolderRepeat)},
		&Command{Name: "folder-shuffle", Args: []string{"folder"}, Usage: "Play files of a folder randomly.", Run: oneArg((*yx5300.Player).PlayFolderShuffle)},
		&Command{Name: "play-with-volume", Args: []string{"track", "volume"}, Usage: "Play a track at a volume.", Run: func(p *yx5300.Player, args []byte) bool {
			return p.PlayWithVolume(args[0], args[1])
		}},
		&Command{Name: "volume", Args: []string{"level"}, Usage: "Set volume 0-30.", Run: oneArg((*yx5300.Player).Volume)},
		&Command{Name: "volume-inc", Usage: "Increase volume.", Run: noArgs((*yx5300.Player).VolumeInc)},
		&Command{Name: "volume-dec", Usage: "Decrease volume.", Run: noArgs((*yx5300.Player).VolumeDec)},
		&Command{Name: "mute", Args: []string{"on"}, Usage: "Mute (1) or unmute (0).", Run: onOffArg((*yx5300.Player).VolumeMute)},
		&Command{Name: "query-status", Usage: "Query the module status.", Run: noArgs((*yx5300.Player).QueryStatus)},
		&Command{Name: "query-volume", Usage: "Query the volume.", Run: noArgs((*yx5300.Player).QueryVolume)},
		&Command{Name: "query-equalizer", Usage: "Query the equalizer.", Run: noArgs((*yx5300.Player).QueryEqualizer)},
		&Command{Name: "query-folder-files", Args: []string{"folder"}, Usage: "Query the number of files in a folder.", Run: oneArg((*yx5300.Player).QueryFolderFiles)},
		&Command{Name: "query-folder-count", Usage: "Query the number of folders.", Run: noArgs((*yx5300.Player).QueryFolderCount)},
		&Command{Name: "query-files-count", Usage: "Query the number of files.", Run: noArgs((*yx5300.Player).QueryFilesCount)},
		&Command{Name: "query-file", Usage: "Query the playing file.", Run: noArgs((*yx5300.Player).QueryFile)},
	)
}

// Names returns sorted command names.
func Names() []string {
	names := make([]string, 0, len(Commands))
	for name := range Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a command.
func Lookup(name string) (*Command, error) {
	cmd := Commands[name]
	if cmd == nil {
		return nil, &UnknownCommandError{Name: name}
	}
	return cmd, nil
}

// Execute runs a command by name.
// Arguments are validated before anything is sent to the device.
func Execute(p *yx5300.Player, name string, args []uint32) (bool, error) {
	cmd, err := Lookup(name)
	if err != nil {
		return false, err
	}
	if len(args) != len(cmd.Args) {
		return false, &ArgsError{Command: cmd, Reason: fmt.Sprintf("expect %d args, got %d", len(cmd.Args), len(args))}
	}
	bs := make([]byte, len(args))
	for n, arg := range args {
		if arg > 0xff {
			return false, &ArgsError{Command: cmd, Reason: fmt.Sprintf("%s %d out of range", cmd.Args[n], arg)}
		}
		bs[n] = byte(arg)
	}
	return cmd.Run(p, bs), nil
}

package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm"
	"github.com/robotalks/mp3.go/pkg/bridge/env"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
	"github.com/robotalks/mp3.go/pkg/player"
	"github.com/robotalks/mp3.go/pkg/serial"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.ConnectorConfig
	Serial *serial.Config
	Player *player.Config
	Target *Target

	lock       sync.Mutex
	lastStatus *msgs.PlayerStatus
}

// Target is a connected player running with its own loop.
type Target struct {
	Name   string
	Ctx    context.Context
	Cancel func()
	Loop   *fx.Loop
	Conn   bridge.Conn
	// Local is true when the player is driven through a local serial port.
	Local bool
}

// eventSource is implemented by connections delivering events.
type eventSource interface {
	HandleEvents(comm.EventHandler)
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = 5 * time.Second

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&OpenCmd,
		&DisconnectCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "wait", timeout, "Time to wait for a command reply.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.ConnectorConfig) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
		Serial: serial.NewConfig(),
		Player: player.NewConfig(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Target == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints PlayerInfo into friendly string for display.
func FormatInfo(info bridge.PlayerInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// FormatStatus prints a PlayerStatus for display.
func FormatStatus(st *msgs.PlayerStatus) string {
	if st == nil {
		return "no status"
	}
	return fmt.Sprintf("%s(0x%02x) %d", st.Name, st.Code, st.Data)
}

// FormatMsg prints a message for display.
func FormatMsg(msg msgs.Message) string {
	switch m := msg.(type) {
	case *msgs.PlayerReply:
		result := "OK"
		if !m.Ok {
			result = "FAILED"
		}
		return result + " " + FormatStatus(m.Status)
	case *msgs.PlayerStatus:
		return "event " + FormatStatus(m)
	}
	return fmt.Sprintf("%s %s", reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
}

func (s *Shell) print(msg msgs.Message) {
	if s.OutputJSON {
		out, err := json.Marshal(msg)
		if err != nil {
			s.Shell.Println(err.Error())
			return
		}
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Println(FormatMsg(msg))
}

func (s *Shell) updateStatus(st *msgs.PlayerStatus) {
	if st == nil {
		return
	}
	s.lock.Lock()
	s.lastStatus = st
	s.lock.Unlock()
}

// LastStatus returns the last status seen from the player.
func (s *Shell) LastStatus() *msgs.PlayerStatus {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastStatus
}

func (s *Shell) handleEvent(msg msgs.Message) {
	if st, ok := msg.(*msgs.PlayerStatus); ok {
		s.updateStatus(st)
	}
	if s.Interactive {
		s.print(msg)
	}
}

// DoCommand runs a command and waits for result.
func DoCommand(c *ishell.Context, msg msgs.Message) error {
	s := ShellFrom(c)
	if s.Target == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := context.WithTimeout(s.Target.Ctx, s.Timeout)
	defer cancel()
	reply, err := bridge.Wait(ctx, s.Target.Conn.DoCommand(msg))
	if err == context.DeadlineExceeded {
		err = fmt.Errorf("command timeout")
	}
	if err != nil {
		c.Err(err)
		return err
	}
	if r, ok := reply.(*msgs.PlayerReply); ok {
		s.updateStatus(r.Status)
	}
	s.print(reply)
	return nil
}

// ParseArgs converts command arguments into numbers.
func ParseArgs(args []string) ([]uint32, error) {
	vals := make([]uint32, len(args))
	for n, arg := range args {
		val, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q", arg)
		}
		vals[n] = uint32(val)
	}
	return vals, nil
}

// PlayerCmd exposes a player command.
func PlayerCmd(cmd *player.Command) *ishell.Cmd {
	return &ishell.Cmd{
		Name: cmd.Name,
		Help: cmd.Synopsis() + ": " + cmd.Usage,
		Func: MustBeConnected(func(c *ishell.Context) {
			args, err := ParseArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			DoCommand(c, &msgs.PlayerCommand{Name: cmd.Name, Args: args})
		}),
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverPlayers discovers players.
func (s *Shell) DiscoverPlayers(filter func(bridge.PlayerInfo) bool) (bridge.Connector, []bridge.PlayerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil {
		return connector, nil, err
	}
	if filter != nil {
		items := make([]bridge.PlayerInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return connector, infoList, nil
}

// SelectPlayer discovers players and asks for a choice.
func (s *Shell) SelectPlayer(filter func(bridge.PlayerInfo) bool) (*bridge.PlayerInfo, error) {
	_, infoList, err := s.DiscoverPlayers(filter)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 players discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &infoList[index], nil
}

// Connect connects a remote player with ref.
func (s *Shell) Connect(ref bridge.PlayerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	target := &Target{Name: ref.Name(), Loop: fx.NewLoop()}
	target.Ctx, target.Cancel = context.WithCancel(context.Background())
	if target.Conn, err = connector.Connect(target.Ctx, ref); err != nil {
		target.Cancel()
		return err
	}
	if src, ok := target.Conn.(eventSource); ok {
		src.HandleEvents(s.handleEvent)
	}
	s.attach(target)
	return nil
}

// Open drives a player through a local serial port.
func (s *Shell) Open(conf *serial.Config) error {
	sc, err := s.Player.OpenConn(conf)
	if err != nil {
		return err
	}
	p := s.Player.NewPlayer(sc)
	ctl := player.NewController(p, bridge.RegistrarFunc(func(_ context.Context, msg msgs.Message) error {
		s.handleEvent(msg)
		return nil
	}))
	ctl.Begin = s.Player.Begin
	target := &Target{Name: portName(conf), Loop: fx.NewLoop(), Local: true}
	target.Loop.Interval = s.Player.PollInterval
	target.Loop.AddRunnable(sc).Add(ctl, &comm.UnsupportedCommands{})
	target.Ctx, target.Cancel = context.WithCancel(context.Background())
	target.Conn = player.NewLocalConn(target.Loop)
	s.attach(target)
	return nil
}

func portName(conf *serial.Config) string {
	if conf.Driver == serial.DriverSim {
		return serial.DriverSim
	}
	return conf.Port
}

func (s *Shell) attach(target *Target) {
	s.Disconnect()
	s.Target = target
	go func() {
		if err := target.Loop.Run(target.Ctx); err != nil && target.Ctx.Err() == nil {
			s.Shell.Printf("%s: %v\n", target.Name, err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target.Name))
}

// Disconnect disconnects current player.
func (s *Shell) Disconnect() {
	if t := s.Target; t != nil {
		t.Conn.Close()
		t.Cancel()
		s.Target = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	switch {
	case s.Serial.Port != "" || s.Serial.Driver == serial.DriverSim:
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", portName(s.Serial))
		}
		if err := s.Open(s.Serial); err != nil {
			log.Fatalf("open %q failed: %v", portName(s.Serial), err)
		}
	case s.AutoConnect && s.Config.Ref.IsValid():
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers players.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			_, infoList, err := s.DiscoverPlayers(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []bridge.PlayerInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No players found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a remote player.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE] [ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref bridge.PlayerRef
			if len(c.Args) >= 2 {
				ref.Type, ref.ID = c.Args[0], c.Args[1]
			} else {
				var filter func(bridge.PlayerInfo) bool
				if len(c.Args) == 1 {
					filter = func(info bridge.PlayerInfo) bool {
						return info.Ref.Type == c.Args[0]
					}
				}
				info, err := s.SelectPlayer(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no player discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// OpenCmd opens a local serial port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			conf := *s.Serial
			if len(c.Args) > 0 {
				conf.Port = c.Args[0]
			}
			if err := s.Open(&conf); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current player.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StatusCmd shows the last status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.LastStatus()
			if s.OutputJSON {
				out, err := json.Marshal(st)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			mode := "remote"
			if s.Target.Local {
				mode = "local"
			}
			c.Printf("%s (%s): %s\n", s.Target.Name, mode, FormatStatus(st))
		}),
	}
)

func init() {
	for _, name := range player.Names() {
		AddCmds(PlayerCmd(player.Commands[name]))
	}
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConnectorConfig()).WithAutoConnect(true).Run(flag.Args()...)
}

package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mp3.go/pkg/bridge"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
	"github.com/robotalks/mp3.go/pkg/serial"
	"github.com/robotalks/mp3.go/pkg/sim"
	"github.com/robotalks/mp3.go/pkg/yx5300"
)

// fakeDevice acknowledges every request unless reply is set.
// Queries are answered with data 0 after the acknowledgment.
type fakeDevice struct {
	requests []yx5300.Request
	rx       []byte
	reply    func(yx5300.Request) []yx5300.Status
}

func statusBytes(st yx5300.Status) []byte {
	f := yx5300.Frame{
		Version: yx5300.Version,
		Length:  yx5300.PayloadLength,
		Command: byte(st.Code),
		Data1:   byte(st.Data >> 8),
		Data2:   byte(st.Data),
	}
	return f.Bytes(true)
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	f, err := yx5300.Decode(p, true)
	if err != nil {
		return 0, err
	}
	req := f.Request()
	d.requests = append(d.requests, req)
	statuses := []yx5300.Status{{Code: yx5300.StatusAckOK}}
	if req.Command.IsQuery() {
		statuses = append(statuses, yx5300.Status{Code: yx5300.StatusCode(req.Command)})
	}
	if d.reply != nil {
		statuses = d.reply(req)
	}
	for _, st := range statuses {
		d.rx = append(d.rx, statusBytes(st)...)
	}
	return len(p), nil
}

func (d *fakeDevice) Recv(p []byte) (int, error) {
	n := copy(p, d.rx)
	d.rx = d.rx[n:]
	return n, nil
}

func (d *fakeDevice) inject(st yx5300.Status) {
	d.rx = append(d.rx, statusBytes(st)...)
}

func newTestPlayer() (*yx5300.Player, *fakeDevice) {
	dev := &fakeDevice{}
	return yx5300.New(dev, yx5300.WithTimeout(20*time.Millisecond)), dev
}

func TestExecute(t *testing.T) {
	testCases := []struct {
		name   string
		args   []uint32
		expect yx5300.Request
	}{
		{"volume", []uint32{40}, yx5300.NewRequest(yx5300.CmdSetVolume, 0, 30)},
		{"play-specific", []uint32{2, 9}, yx5300.NewRequest(yx5300.CmdPlayFolderFile, 2, 9)},
		{"play-with-volume", []uint32{4, 10}, yx5300.NewRequest(yx5300.CmdPlayWithVolume, 10, 4)},
		{"mute", []uint32{1}, yx5300.NewRequest(yx5300.CmdSetDAC, 0, yx5300.OptOff)},
		{"shuffle", []uint32{1}, yx5300.NewRequest(yx5300.CmdShufflePlay, 0, yx5300.OptOn)},
		{"next", nil, yx5300.NewRequest(yx5300.CmdNextSong, 0, 0)},
		{"begin", nil, yx5300.NewRequest(yx5300.CmdSelectDevice, 0, yx5300.DevTF)},
		{"query-folder-files", []uint32{3}, yx5300.NewRequest(yx5300.CmdQueryFldrFiles, 0, 3)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, dev := newTestPlayer()
			ok, err := Execute(p, tc.name, tc.args)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, []yx5300.Request{tc.expect}, dev.requests)
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	p, dev := newTestPlayer()
	_, err := Execute(p, "dance", nil)
	require.EqualError(t, err, `unknown command "dance"`)
	_, err = Execute(p, "volume", nil)
	require.EqualError(t, err, "volume: expect 1 args, got 0, usage: volume <level>")
	_, err = Execute(p, "track", []uint32{256})
	require.EqualError(t, err, "track: index 256 out of range, usage: track <index>")
	require.Empty(t, dev.requests)
}

func TestCommandsComplete(t *testing.T) {
	names := Names()
	require.Len(t, names, len(Commands))
	for _, name := range names {
		cmd := Commands[name]
		require.Equal(t, name, cmd.Name)
		require.NotNil(t, cmd.Run, name)
		require.NotEmpty(t, cmd.Usage, name)
	}
}

type fakeCommand struct {
	msg   msgs.Message
	reply msgs.Message
}

func (c *fakeCommand) Msg() msgs.Message { return c.msg }

func (c *fakeCommand) Done(reply msgs.Message) error {
	c.reply = reply
	return nil
}

type fakeRegistrar struct {
	events []msgs.Message
}

func (r *fakeRegistrar) SendEvent(_ context.Context, msg msgs.Message) error {
	r.events = append(r.events, msg)
	return nil
}

func TestControllerCommands(t *testing.T) {
	p, dev := newTestPlayer()
	dev.reply = func(req yx5300.Request) []yx5300.Status {
		if req.Command == yx5300.CmdQueryVolume {
			return []yx5300.Status{{Code: yx5300.StatusAckOK}, {Code: yx5300.StatusVolume, Data: 12}}
		}
		return []yx5300.Status{{Code: yx5300.StatusAckOK}}
	}
	reg := &fakeRegistrar{}
	loop := fx.NewLoop().Add(NewController(p, reg))

	query := &fakeCommand{msg: &msgs.PlayerCommand{Name: "query-volume"}}
	unknown := &fakeCommand{msg: &msgs.PlayerCommand{Name: "dance"}}
	loop.PostMessage(&bridge.CommandMsg{Command: query})
	loop.PostMessage(&bridge.CommandMsg{Command: unknown})
	loop.RunIteration(context.Background())

	require.Equal(t, &msgs.PlayerReply{
		Ok:     true,
		Status: &msgs.PlayerStatus{Code: 0x43, Data: 12, Name: "volume"},
	}, query.reply)
	require.EqualError(t, unknown.reply.(*msgs.CommandErr), `unknown command "dance"`)
	require.Equal(t, []msgs.Message{
		&msgs.PlayerStatus{Code: 0x41, Name: "ack"},
		&msgs.PlayerStatus{Code: 0x43, Data: 12, Name: "volume"},
	}, reg.events)
}

func TestControllerPollsEvents(t *testing.T) {
	p, dev := newTestPlayer()
	reg := &fakeRegistrar{}
	ctl := NewController(p, reg)
	ctl.Begin = true
	loop := fx.NewLoop().Add(ctl)

	dev.inject(yx5300.Status{Code: yx5300.StatusFileEnd, Data: 3})
	loop.RunIteration(context.Background())
	require.Equal(t, []yx5300.Request{yx5300.NewRequest(yx5300.CmdSelectDevice, 0, yx5300.DevTF)}, dev.requests)
	require.Equal(t, []msgs.Message{
		&msgs.PlayerStatus{Code: 0x3d, Data: 3, Name: "file-end"},
		&msgs.PlayerStatus{Code: 0x41, Name: "ack"},
	}, reg.events)

	reg.events = nil
	dev.inject(yx5300.Status{Code: yx5300.StatusTFRemove})
	dev.inject(yx5300.Status{Code: yx5300.StatusTFInsert})
	loop.RunIteration(context.Background())
	require.Len(t, dev.requests, 1)
	require.Equal(t, []msgs.Message{
		&msgs.PlayerStatus{Code: 0x3b, Name: "tf-remove"},
		&msgs.PlayerStatus{Code: 0x3a, Name: "tf-insert"},
	}, reg.events)
}

func TestControllerTimeoutReply(t *testing.T) {
	p, dev := newTestPlayer()
	dev.reply = func(yx5300.Request) []yx5300.Status { return nil }
	loop := fx.NewLoop().Add(NewController(p, nil))
	cmd := &fakeCommand{msg: &msgs.PlayerCommand{Name: "volume", Args: []uint32{5}}}
	loop.PostMessage(&bridge.CommandMsg{Command: cmd})
	loop.RunIteration(context.Background())
	require.Equal(t, &msgs.PlayerReply{
		Status: &msgs.PlayerStatus{Code: 0x01, Name: "timeout"},
	}, cmd.reply)
}

func TestOpenConnSim(t *testing.T) {
	testCases := []struct {
		name       string
		noChecksum bool
		sim        *sim.Config
	}{
		{"checksum", false, nil},
		{"no-checksum", true, nil},
		{"no-checksum sim config", true, &sim.Config{Folders: []int{3}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.NoChecksum = tc.noChecksum
			sc := serial.NewConfig()
			sc.Driver, sc.Sim = serial.DriverSim, tc.sim
			conn, err := conf.OpenConn(sc)
			require.NoError(t, err)
			require.Equal(t, tc.sim, sc.Sim)

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- conn.Run(ctx) }()

			p := conf.NewPlayer(conn)
			require.True(t, p.Volume(12))
			require.True(t, p.QueryVolume())
			require.Equal(t, yx5300.Status{Code: yx5300.StatusVolume, Data: 12}, p.Status())
			require.False(t, p.PlayTrack(200))
			require.Equal(t, yx5300.StatusErrFile, p.StatusCode())

			cancel()
			require.Equal(t, context.Canceled, <-errCh)
		})
	}
}

func TestLocalConn(t *testing.T) {
	p, _ := newTestPlayer()
	var events []msgs.Message
	reg := bridge.RegistrarFunc(func(_ context.Context, msg msgs.Message) error {
		events = append(events, msg)
		return nil
	})
	loop := fx.NewLoop().Add(NewController(p, reg))
	conn := NewLocalConn(loop)

	f := conn.DoCommand(&msgs.PlayerCommand{Name: "next"})
	loop.RunIteration(context.Background())
	reply, err := bridge.Wait(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, &msgs.PlayerReply{
		Ok:     true,
		Status: &msgs.PlayerStatus{Code: 0x41, Name: "ack"},
	}, reply)
	require.Len(t, events, 1)

	f = conn.DoCommand(&msgs.PlayerCommand{Name: "volume"})
	loop.RunIteration(context.Background())
	_, err = bridge.Wait(context.Background(), f)
	require.EqualError(t, err, "volume: expect 1 args, got 0, usage: volume <level>")

	require.NoError(t, conn.Close())
	_, err = bridge.Wait(context.Background(), conn.DoCommand(&msgs.PlayerCommand{Name: "next"}))
	require.EqualError(t, err, ErrClosed.Error())
}

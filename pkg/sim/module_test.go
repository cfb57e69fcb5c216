package sim

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mp3.go/pkg/yx5300"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Add(d time.Duration) { c.now = c.now.Add(d) }

func newTestModule(folders ...int) (*Module, *fakeClock) {
	m := New(folders...)
	m.TrackDuration = 10 * time.Second
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m.clock = clock.Now
	return m, clock
}

func drain(t *testing.T, m *Module) []yx5300.Status {
	m.lock.Lock()
	m.advance(m.clock())
	out := m.out
	m.out = nil
	m.lock.Unlock()

	var p yx5300.Parser
	p.DisableChecksum = m.NoChecksum
	var statuses []yx5300.Status
	for _, b := range out {
		pr := p.Parse(b)
		require.Zero(t, pr.Discarded)
		if pr.Frame != nil {
			require.True(t, pr.Valid)
			statuses = append(statuses, pr.Status())
		}
	}
	require.False(t, p.InFrame())
	return statuses
}

func send(t *testing.T, m *Module, cmd yx5300.CommandCode, data1, data2 byte) []yx5300.Status {
	f := yx5300.NewRequest(cmd, data1, data2).Frame()
	_, err := m.Write(f.Bytes(!m.NoChecksum))
	require.NoError(t, err)
	return drain(t, m)
}

func st(code yx5300.StatusCode, data uint16) []yx5300.Status {
	return []yx5300.Status{{Code: code, Data: data}}
}

// answered is the reply to a query.
func answered(code yx5300.StatusCode, data uint16) []yx5300.Status {
	return []yx5300.Status{{Code: yx5300.StatusAckOK}, {Code: code, Data: data}}
}

func TestModuleRequests(t *testing.T) {
	testCases := []struct {
		name   string
		cmd    yx5300.CommandCode
		d1, d2 byte
		expect []yx5300.Status
	}{
		{"set-volume", yx5300.CmdSetVolume, 0, 12, st(yx5300.StatusAckOK, 0)},
		{"query-volume", yx5300.CmdQueryVolume, 0, 0, answered(yx5300.StatusVolume, 12)},
		{"volume-up", yx5300.CmdVolumeUp, 0, 0, st(yx5300.StatusAckOK, 0)},
		{"query-volume-up", yx5300.CmdQueryVolume, 0, 0, answered(yx5300.StatusVolume, 13)},
		{"equalizer", yx5300.CmdSetEqualizer, 0, yx5300.EqJazz, st(yx5300.StatusAckOK, 0)},
		{"bad-equalizer", yx5300.CmdSetEqualizer, 0, 9, st(yx5300.StatusErrFile, ErrRange)},
		{"query-equalizer", yx5300.CmdQueryEqualizer, 0, 0, answered(yx5300.StatusEqualizer, uint16(yx5300.EqJazz))},
		{"total-files", yx5300.CmdQueryTotFiles, 0, 0, answered(yx5300.StatusTotalFiles, 7)},
		{"total-folders", yx5300.CmdQueryTotFldr, 0, 0, answered(yx5300.StatusTotalFolders, 2)},
		{"folder-files", yx5300.CmdQueryFldrFiles, 0, 2, answered(yx5300.StatusFolderFiles, 4)},
		{"no-folder", yx5300.CmdQueryFldrFiles, 0, 3, st(yx5300.StatusErrFile, ErrNotFound)},
		{"play-specific", yx5300.CmdPlayFolderFile, 2, 1, st(yx5300.StatusAckOK, 0)},
		{"query-playing", yx5300.CmdQueryPlaying, 0, 0, answered(yx5300.StatusPlaying, 4)},
		{"query-status", yx5300.CmdQueryStatus, 0, 0, answered(yx5300.StatusStatus, uint16(yx5300.DevTF)<<8|uint16(Playing))},
		{"missing-file", yx5300.CmdPlayFolderFile, 1, 9, st(yx5300.StatusErrFile, ErrNotFound)},
		{"bad-index", yx5300.CmdPlayWithIndex, 0, 8, st(yx5300.StatusErrFile, ErrNotFound)},
		{"udisk", yx5300.CmdSelectDevice, 0, yx5300.DevUDisk, st(yx5300.StatusErrFile, ErrNotFound)},
		{"unknown", yx5300.CommandCode(0x30), 0, 0, st(yx5300.StatusErrFile, ErrReceive)},
		{"sleep", yx5300.CmdSleepMode, 0, 0, st(yx5300.StatusAckOK, 0)},
		{"asleep", yx5300.CmdNextSong, 0, 0, st(yx5300.StatusErrFile, ErrSleeping)},
		{"wake-up", yx5300.CmdWakeUp, 0, 0, st(yx5300.StatusAckOK, 0)},
		{"reset", yx5300.CmdReset, 0, 0, []yx5300.Status{
			{Code: yx5300.StatusAckOK},
			{Code: yx5300.StatusInit, Data: uint16(yx5300.DevTF)},
		}},
		{"volume-after-reset", yx5300.CmdQueryVolume, 0, 0, answered(yx5300.StatusVolume, uint16(yx5300.MaxVolume))},
	}
	m, _ := newTestModule(3, 4)
	for _, tc := range testCases {
		require.Equal(t, tc.expect, send(t, m, tc.cmd, tc.d1, tc.d2), tc.name)
	}
}

func TestModuleTrackEnd(t *testing.T) {
	m, clock := newTestModule(2, 1)
	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdPlayWithIndex, 0, 2))

	clock.Add(5 * time.Second)
	require.Empty(t, drain(t, m))
	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdPause, 0, 0))
	clock.Add(time.Minute)
	require.Empty(t, drain(t, m))
	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdPlay, 0, 0))

	clock.Add(5 * time.Second)
	require.Equal(t, st(yx5300.StatusFileEnd, 2), drain(t, m))
	require.Equal(t, answered(yx5300.StatusPlaying, 3), send(t, m, yx5300.CmdQueryPlaying, 0, 0))

	// the last track ends without a next one.
	clock.Add(15 * time.Second)
	require.Equal(t, st(yx5300.StatusFileEnd, 3), drain(t, m))
	require.Equal(t, answered(yx5300.StatusStatus, uint16(yx5300.DevTF)<<8|uint16(Stopped)),
		send(t, m, yx5300.CmdQueryStatus, 0, 0))
}

func TestModuleLoopModes(t *testing.T) {
	m, clock := newTestModule(2, 3)

	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdSingleCycle, 0, 1))
	clock.Add(25 * time.Second)
	require.Equal(t, []yx5300.Status{
		{Code: yx5300.StatusFileEnd, Data: 1},
		{Code: yx5300.StatusFileEnd, Data: 1},
	}, drain(t, m))

	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdFolderCycle, 2, 0))
	clock.Add(30 * time.Second)
	require.Equal(t, []yx5300.Status{
		{Code: yx5300.StatusFileEnd, Data: 3},
		{Code: yx5300.StatusFileEnd, Data: 4},
		{Code: yx5300.StatusFileEnd, Data: 5},
	}, drain(t, m))
	require.Equal(t, answered(yx5300.StatusPlaying, 3), send(t, m, yx5300.CmdQueryPlaying, 0, 0))

	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdShuffleFolder, 1, 0))
	clock.Add(10 * time.Second)
	statuses := drain(t, m)
	require.Len(t, statuses, 1)
	require.Equal(t, yx5300.StatusFileEnd, statuses[0].Code)
	require.Contains(t, []uint16{1, 2}, statuses[0].Data)
}

func TestModuleCard(t *testing.T) {
	m, _ := newTestModule(2)
	send(t, m, yx5300.CmdPlayWithIndex, 0, 1)
	m.RemoveCard()
	require.Equal(t, st(yx5300.StatusTFRemove, uint16(yx5300.DevTF)), drain(t, m))
	require.Equal(t, answered(yx5300.StatusTotalFiles, 0), send(t, m, yx5300.CmdQueryTotFiles, 0, 0))
	require.Equal(t, st(yx5300.StatusErrFile, ErrNotFound), send(t, m, yx5300.CmdPlay, 0, 0))
	m.InsertCard()
	require.Equal(t, st(yx5300.StatusTFInsert, uint16(yx5300.DevTF)), drain(t, m))
	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdPlay, 0, 0))
}

func TestModuleChecksum(t *testing.T) {
	m, _ := newTestModule(1)
	f := yx5300.NewRequest(yx5300.CmdPlay, 0, 0).Frame()
	raw := f.Bytes(true)
	raw[7]++
	_, err := m.Write(raw)
	require.NoError(t, err)
	require.Equal(t, st(yx5300.StatusErrFile, ErrChecksum), drain(t, m))

	m.NoChecksum = true
	require.Equal(t, st(yx5300.StatusAckOK, 0), send(t, m, yx5300.CmdPlay, 0, 0))
}

func TestModuleReadClose(t *testing.T) {
	m, _ := newTestModule(1)
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, yx5300.FrameSize)
		_, err := m.Read(buf)
		done <- err
	}()
	require.NoError(t, m.Close())
	require.Equal(t, io.EOF, <-done)
	_, err := m.Write([]byte{yx5300.StartMarker})
	require.Equal(t, io.ErrClosedPipe, err)
}

func TestParseFolders(t *testing.T) {
	folders, err := ParseFolders("5, 12,0")
	require.NoError(t, err)
	require.Equal(t, []int{5, 12, 0}, folders)
	_, err = ParseFolders("5,x")
	require.EqualError(t, err, `invalid file count "x"`)
	_, err = ParseFolders("300")
	require.EqualError(t, err, `invalid file count "300"`)

	conf := NewConfig()
	conf.Folders, conf.TrackDuration = folders, time.Second
	m := conf.NewModule()
	require.Len(t, m.tracks, 17)
	require.Equal(t, time.Second, m.TrackDuration)
}

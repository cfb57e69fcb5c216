// Package sim simulates a YX5300 module behind a serial port.
package sim

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/yx5300"
)

// Data of StatusErrFile replies.
const (
	ErrBusy     uint16 = 0x01
	ErrSleeping uint16 = 0x02
	ErrReceive  uint16 = 0x03
	ErrChecksum uint16 = 0x04
	ErrRange    uint16 = 0x05
	ErrNotFound uint16 = 0x06
)

// Playback states reported in the low byte of StatusStatus.
const (
	Stopped byte = 0x00
	Playing byte = 0x01
	Paused  byte = 0x02
)

type loopMode int

const (
	loopNone loopMode = iota
	loopTrack
	loopFolder
	shuffleAll
	shuffleFolder
)

const tickInterval = 10 * time.Millisecond

type track struct {
	folder, file byte
}

// Module is an io.ReadWriteCloser behaving like a YX5300 module with
// a TF card inserted. Requests written are answered with frames to read.
// Tracks end after TrackDuration and are reported as StatusFileEnd.
type Module struct {
	TrackDuration time.Duration
	NoChecksum    bool

	lock   sync.Mutex
	notify chan struct{}
	parser yx5300.Parser
	out    []byte
	closed bool
	clock  func() time.Time
	rand   *rand.Rand

	folders  []int
	tracks   []track
	inserted bool
	device   byte
	volume   byte
	eq       byte
	sleeping bool
	dacOff   bool
	state    byte
	mode     loopMode
	current  int
	// elapsed is the play time before startedAt.
	elapsed   time.Duration
	startedAt time.Time
}

// New creates a Module with the number of files in each folder.
func New(folders ...int) *Module {
	m := &Module{
		TrackDuration: DefaultTrackDuration,
		notify:        make(chan struct{}, 1),
		clock:         time.Now,
		rand:          rand.New(rand.NewSource(1)),
		folders:       folders,
		inserted:      true,
	}
	for n, count := range folders {
		for f := 1; f <= count; f++ {
			m.tracks = append(m.tracks, track{folder: byte(n + 1), file: byte(f)})
		}
	}
	m.reset()
	return m
}

func (m *Module) reset() {
	m.device = yx5300.DevTF
	m.volume = yx5300.MaxVolume
	m.eq = yx5300.EqNormal
	m.sleeping, m.dacOff = false, false
	m.state, m.mode, m.current, m.elapsed = Stopped, loopNone, 0, 0
}

// Read blocks until reply frames are available or the Module is closed.
func (m *Module) Read(b []byte) (int, error) {
	for {
		m.lock.Lock()
		m.advance(m.clock())
		if len(m.out) > 0 {
			n := copy(b, m.out)
			m.out = m.out[n:]
			m.lock.Unlock()
			return n, nil
		}
		closed := m.closed
		m.lock.Unlock()
		if closed {
			return 0, io.EOF
		}
		select {
		case <-m.notify:
		case <-time.After(tickInterval):
		}
	}
}

// Write parses request frames and executes them.
func (m *Module) Write(b []byte) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	m.parser.DisableChecksum = m.NoChecksum
	now := m.clock()
	m.advance(now)
	for _, c := range b {
		pr := m.parser.Parse(c)
		if pr.Frame == nil {
			continue
		}
		if !pr.Valid {
			m.reply(yx5300.StatusErrFile, ErrChecksum)
			continue
		}
		req := pr.Frame.Request()
		glog.V(3).Infof("sim: %s", req)
		m.execute(req, now)
	}
	m.wakeUp()
	return len(b), nil
}

// Close implements io.Closer.
func (m *Module) Close() error {
	m.lock.Lock()
	m.closed = true
	m.lock.Unlock()
	m.wakeUp()
	return nil
}

// RemoveCard simulates pulling out the TF card.
func (m *Module) RemoveCard() {
	m.lock.Lock()
	m.inserted = false
	m.stop()
	m.reply(yx5300.StatusTFRemove, uint16(yx5300.DevTF))
	m.lock.Unlock()
	m.wakeUp()
}

// InsertCard simulates inserting the TF card.
func (m *Module) InsertCard() {
	m.lock.Lock()
	m.inserted = true
	m.reply(yx5300.StatusTFInsert, uint16(yx5300.DevTF))
	m.lock.Unlock()
	m.wakeUp()
}

func (m *Module) wakeUp() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Module) reply(code yx5300.StatusCode, data uint16) {
	f := yx5300.Frame{
		Version: yx5300.Version,
		Length:  yx5300.PayloadLength,
		Command: byte(code),
		Data1:   byte(data >> 8),
		Data2:   byte(data),
	}
	m.out = append(m.out, f.Bytes(!m.NoChecksum)...)
}

func (m *Module) ack() {
	m.reply(yx5300.StatusAckOK, 0)
}

// answer replies a query: the acknowledgment followed by the data.
func (m *Module) answer(code yx5300.StatusCode, data uint16) {
	m.ack()
	m.reply(code, data)
}

func onOpt(b byte) bool {
	return b == yx5300.OptOn
}

func (m *Module) execute(req yx5300.Request, now time.Time) {
	if m.sleeping && req.Command != yx5300.CmdWakeUp && req.Command != yx5300.CmdReset {
		m.reply(yx5300.StatusErrFile, ErrSleeping)
		return
	}
	data := uint16(req.Data1)<<8 | uint16(req.Data2)
	switch req.Command {
	case yx5300.CmdNextSong:
		m.step(1, now)
	case yx5300.CmdPrevSong:
		m.step(-1, now)
	case yx5300.CmdPlayWithIndex:
		m.playIndex(int(data), loopNone, now)
	case yx5300.CmdSingleCycle:
		m.playIndex(int(data), loopTrack, now)
	case yx5300.CmdVolumeUp:
		if m.volume < yx5300.MaxVolume {
			m.volume++
		}
		m.ack()
	case yx5300.CmdVolumeDown:
		if m.volume > 0 {
			m.volume--
		}
		m.ack()
	case yx5300.CmdSetVolume:
		m.setVolume(req.Data2)
		m.ack()
	case yx5300.CmdSetEqualizer:
		if req.Data2 > yx5300.EqBass {
			m.reply(yx5300.StatusErrFile, ErrRange)
			return
		}
		m.eq = req.Data2
		m.ack()
	case yx5300.CmdSelectDevice:
		if req.Data2 != yx5300.DevTF {
			m.reply(yx5300.StatusErrFile, ErrNotFound)
			return
		}
		m.device = req.Data2
		m.ack()
	case yx5300.CmdSleepMode:
		m.stop()
		m.sleeping = true
		m.ack()
	case yx5300.CmdWakeUp:
		m.sleeping = false
		m.ack()
	case yx5300.CmdReset:
		m.reset()
		m.ack()
		if m.inserted {
			m.reply(yx5300.StatusInit, uint16(yx5300.DevTF))
		}
	case yx5300.CmdPlay:
		m.resume(now)
	case yx5300.CmdPause:
		if m.state == Playing {
			m.elapsed += now.Sub(m.startedAt)
			m.state = Paused
		}
		m.ack()
	case yx5300.CmdStopPlay:
		m.stop()
		m.ack()
	case yx5300.CmdPlayFolderFile:
		m.playFile(req.Data1, req.Data2, now)
	case yx5300.CmdFolderCycle:
		m.playFolder(req.Data1, loopFolder, now)
	case yx5300.CmdShuffleFolder:
		m.playFolder(req.Data1, shuffleFolder, now)
	case yx5300.CmdShufflePlay:
		if onOpt(req.Data2) {
			m.mode = shuffleAll
			if m.state != Playing {
				if m.available() == 0 {
					m.reply(yx5300.StatusErrFile, ErrNotFound)
					return
				}
				m.play(m.rand.Intn(len(m.tracks)), shuffleAll, now)
				return
			}
		} else if m.mode == shuffleAll {
			m.mode = loopNone
		}
		m.ack()
	case yx5300.CmdSetSingleCycle:
		if onOpt(req.Data2) {
			m.mode = loopTrack
		} else if m.mode == loopTrack {
			m.mode = loopNone
		}
		m.ack()
	case yx5300.CmdSetDAC:
		m.dacOff = !onOpt(req.Data2)
		m.ack()
	case yx5300.CmdPlayWithVolume:
		m.setVolume(req.Data1)
		m.playIndex(int(req.Data2), loopNone, now)
	case yx5300.CmdQueryStatus:
		st := m.state
		if m.sleeping {
			st = 0x03
		}
		m.answer(yx5300.StatusStatus, uint16(m.device)<<8|uint16(st))
	case yx5300.CmdQueryVolume:
		m.answer(yx5300.StatusVolume, uint16(m.volume))
	case yx5300.CmdQueryEqualizer:
		m.answer(yx5300.StatusEqualizer, uint16(m.eq))
	case yx5300.CmdQueryTotFiles:
		m.answer(yx5300.StatusTotalFiles, uint16(m.available()))
	case yx5300.CmdQueryPlaying:
		m.answer(yx5300.StatusPlaying, uint16(m.current+1))
	case yx5300.CmdQueryFldrFiles:
		folder := int(req.Data2)
		if !m.inserted || folder < 1 || folder > len(m.folders) {
			m.reply(yx5300.StatusErrFile, ErrNotFound)
			return
		}
		m.answer(yx5300.StatusFolderFiles, uint16(m.folders[folder-1]))
	case yx5300.CmdQueryTotFldr:
		if !m.inserted {
			m.answer(yx5300.StatusTotalFolders, 0)
			return
		}
		m.answer(yx5300.StatusTotalFolders, uint16(len(m.folders)))
	default:
		m.reply(yx5300.StatusErrFile, ErrReceive)
	}
}

func (m *Module) available() int {
	if !m.inserted {
		return 0
	}
	return len(m.tracks)
}

func (m *Module) setVolume(vol byte) {
	if vol > yx5300.MaxVolume {
		vol = yx5300.MaxVolume
	}
	m.volume = vol
}

// playIndex plays the track with the 1-based index.
func (m *Module) playIndex(index int, mode loopMode, now time.Time) {
	if index < 1 || index > m.available() {
		m.reply(yx5300.StatusErrFile, ErrNotFound)
		return
	}
	m.play(index-1, mode, now)
}

func (m *Module) playFile(folder, file byte, now time.Time) {
	for n, t := range m.tracks {
		if t.folder == folder && t.file == file && m.inserted {
			m.play(n, loopNone, now)
			return
		}
	}
	m.reply(yx5300.StatusErrFile, ErrNotFound)
}

func (m *Module) playFolder(folder byte, mode loopMode, now time.Time) {
	first, count := m.folderRange(folder)
	if count == 0 || !m.inserted {
		m.reply(yx5300.StatusErrFile, ErrNotFound)
		return
	}
	index := first
	if mode == shuffleFolder {
		index += m.rand.Intn(count)
	}
	m.play(index, mode, now)
}

func (m *Module) folderRange(folder byte) (first, count int) {
	for n, t := range m.tracks {
		if t.folder == folder {
			if count == 0 {
				first = n
			}
			count++
		}
	}
	return
}

func (m *Module) play(index int, mode loopMode, now time.Time) {
	m.current, m.mode = index, mode
	m.state, m.elapsed, m.startedAt = Playing, 0, now
	m.ack()
}

func (m *Module) resume(now time.Time) {
	switch {
	case m.available() == 0:
		m.reply(yx5300.StatusErrFile, ErrNotFound)
		return
	case m.state == Paused:
		m.state, m.startedAt = Playing, now
	case m.state == Stopped:
		m.state, m.elapsed, m.startedAt = Playing, 0, now
	}
	m.ack()
}

func (m *Module) stop() {
	m.state, m.elapsed = Stopped, 0
}

func (m *Module) step(delta int, now time.Time) {
	total := m.available()
	if total == 0 {
		m.reply(yx5300.StatusErrFile, ErrNotFound)
		return
	}
	m.play((m.current+delta+total)%total, m.mode, now)
}

// advance reports the tracks finished by now and moves to the next ones.
func (m *Module) advance(now time.Time) {
	for m.state == Playing && m.TrackDuration > 0 {
		endAt := m.startedAt.Add(m.TrackDuration - m.elapsed)
		if now.Before(endAt) {
			return
		}
		m.reply(yx5300.StatusFileEnd, uint16(m.current+1))
		next, ok := m.next()
		if !ok {
			m.stop()
			return
		}
		m.current, m.elapsed, m.startedAt = next, 0, endAt
	}
}

func (m *Module) next() (int, bool) {
	total := len(m.tracks)
	switch m.mode {
	case loopTrack:
		return m.current, true
	case shuffleAll:
		return m.rand.Intn(total), true
	case loopFolder, shuffleFolder:
		first, count := m.folderRange(m.tracks[m.current].folder)
		if m.mode == shuffleFolder {
			return first + m.rand.Intn(count), true
		}
		return first + (m.current-first+1)%count, true
	}
	if m.current+1 < total {
		return m.current + 1, true
	}
	return 0, false
}

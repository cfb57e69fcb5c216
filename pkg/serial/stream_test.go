package serial

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mp3.go/pkg/sim"
	"github.com/robotalks/mp3.go/pkg/yx5300"
)

type readResult struct {
	data []byte
	err  error
}

// scriptedPort returns scripted reads, then blocks until closed.
type scriptedPort struct {
	reads   chan readResult
	written []byte
	closeCh chan struct{}
	once    sync.Once
}

func newScriptedPort(results ...readResult) *scriptedPort {
	p := &scriptedPort{
		reads:   make(chan readResult, len(results)),
		closeCh: make(chan struct{}),
	}
	for _, r := range results {
		p.reads <- r
	}
	return p
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	select {
	case r := <-p.reads:
		return copy(b, r.data), r.err
	case <-p.closeCh:
		return 0, io.ErrClosedPipe
	}
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *scriptedPort) Close() error {
	p.once.Do(func() { close(p.closeCh) })
	return nil
}

func waitBuffered(t *testing.T, s *StreamConn, n int) {
	require.Eventually(t, func() bool { return s.Buffered() >= n }, 5*time.Second, time.Millisecond)
}

func TestStreamConnRecv(t *testing.T) {
	port := newScriptedPort(
		readResult{data: []byte{0x7e, 0xff}},
		readResult{err: io.EOF},
		readResult{data: []byte{0x06, 0x41}},
	)
	s := NewStreamConn(port)
	s.ReadTimeout = true

	buf := make([]byte, 8)
	n, err := s.Recv(buf)
	require.NoError(t, err)
	require.Zero(t, n)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	waitBuffered(t, s, 4)

	n, err = s.Recv(buf[:3])
	require.NoError(t, err)
	require.Equal(t, []byte{0x7e, 0xff, 0x06}, buf[:n])
	n, err = s.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x41}, buf[:n])

	cancel()
	port.reads <- readResult{err: timeoutError{}}
	require.Equal(t, context.Canceled, <-errCh)
}

func TestStreamConnReadError(t *testing.T) {
	errBroken := errors.New("broken")
	port := newScriptedPort(
		readResult{data: []byte{0x01}},
		readResult{data: []byte{0x02}, err: errBroken},
	)
	s := NewStreamConn(port)
	require.Equal(t, errBroken, s.Run(context.Background()))

	buf := make([]byte, 8)
	n, err := s.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, buf[:n])
	_, err = s.Recv(buf)
	require.Equal(t, errBroken, err)
}

func TestStreamConnCloseOnCancel(t *testing.T) {
	testCases := []struct {
		name        string
		readTimeout bool
	}{
		{"blocking", false},
		{"read timeout", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			port := newScriptedPort()
			port.reads = make(chan readResult, 1)
			s := NewStreamConn(port)
			s.ReadTimeout = tc.readTimeout
			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- s.Run(ctx) }()
			cancel()
			if tc.readTimeout {
				port.reads <- readResult{err: timeoutError{}}
			}
			require.Equal(t, context.Canceled, <-errCh)
			select {
			case <-port.closeCh:
			default:
				t.Fatal("port not closed")
			}
		})
	}
}

func TestStreamConnOverflow(t *testing.T) {
	s := NewStreamConn(newScriptedPort())
	s.received(make([]byte, MaxBuffered))
	s.received([]byte{1, 2, 3})
	require.Equal(t, MaxBuffered, s.Buffered())
	buf := make([]byte, MaxBuffered)
	n, err := s.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, buf[n-3:n])
}

func TestStreamConnWrite(t *testing.T) {
	port := newScriptedPort()
	s := NewStreamConn(port)
	n, err := s.Write([]byte{0x7e, 0xef})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0x7e, 0xef}, port.written)
}

func TestIsTimeout(t *testing.T) {
	require.True(t, isTimeout(io.EOF))
	require.True(t, isTimeout(timeoutError{}))
	require.False(t, isTimeout(io.ErrClosedPipe))
}

func TestOpenErrors(t *testing.T) {
	conf := NewConfig()
	conf.Port = ""
	_, err := conf.Open()
	require.Equal(t, ErrNoPort, err)

	conf.Port = "/dev/null-mp3"
	conf.Driver = "bogus"
	_, err = conf.Open()
	require.EqualError(t, err, `unknown serial driver "bogus"`)
}

func TestOpenSim(t *testing.T) {
	conf := NewConfig()
	conf.Port, conf.Driver = "", DriverSim
	conf.Sim = &sim.Config{Folders: []int{4, 2}}
	conn, err := conf.OpenConn()
	require.NoError(t, err)
	require.False(t, conn.ReadTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- conn.Run(ctx) }()

	p := yx5300.New(conn)
	require.True(t, p.Volume(12))
	require.Equal(t, yx5300.StatusAckOK, p.StatusCode())
	require.True(t, p.QueryVolume())
	require.Equal(t, yx5300.Status{Code: yx5300.StatusVolume, Data: 12}, p.Status())
	require.False(t, p.PlayTrack(200))
	require.Equal(t, yx5300.StatusErrFile, p.StatusCode())
	require.True(t, p.QueryFolderCount())
	require.Equal(t, yx5300.Status{Code: yx5300.StatusTotalFolders, Data: 2}, p.Status())

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

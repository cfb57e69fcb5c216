package serial

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/mp3.go/pkg/framework"
)

var (
	// ErrNoPort indicates the serial port is not configured.
	ErrNoPort = errors.New("serial port not specified")
)

// MaxBuffered is the number of received bytes kept before Recv.
// Older bytes are dropped on overflow.
const MaxBuffered = 4096

// StreamConn turns a blocking io.ReadWriter into a Conn with
// non-blocking Recv. Bytes are received when Run is running.
type StreamConn struct {
	ReadWriter io.ReadWriter
	// ReadTimeout is true when Read returns periodically with a timeout
	// error, io.EOF or no data. Otherwise the ReadWriter is closed to
	// stop reading, if it's an io.Closer.
	ReadTimeout bool

	lock sync.Mutex
	buf  []byte
	err  error
}

// NewStreamConn creates a StreamConn.
func NewStreamConn(rw io.ReadWriter) *StreamConn {
	return &StreamConn{ReadWriter: rw}
}

// Write implements io.Writer.
func (s *StreamConn) Write(p []byte) (int, error) {
	return s.ReadWriter.Write(p)
}

// Recv copies received bytes into p without blocking.
// The read error is returned once all received bytes are consumed.
func (s *StreamConn) Recv(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.buf) == 0 {
		return 0, s.err
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Buffered returns the number of bytes available to Recv.
func (s *StreamConn) Buffered() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.buf)
}

// Close closes the ReadWriter if it's an io.Closer.
func (s *StreamConn) Close() error {
	if c, ok := s.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Run implements Runnable.
// The ReadWriter is closed when Run returns, if it's an io.Closer.
func (s *StreamConn) Run(ctx context.Context) error {
	closer, ok := s.ReadWriter.(io.Closer)
	if !ok {
		return s.readLoop(ctx)
	}
	if !s.ReadTimeout {
		return fx.RunWithContextCloser(ctx, closer, func() error {
			return s.readLoop(ctx)
		})
	}
	defer closer.Close()
	return s.readLoop(ctx)
}

func (s *StreamConn) readLoop(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := s.ReadWriter.Read(buf)
		if n > 0 {
			s.received(buf[:n])
		}
		if err != nil {
			if s.ReadTimeout && isTimeout(err) {
				continue
			}
			s.lock.Lock()
			s.err = err
			s.lock.Unlock()
			return err
		}
	}
}

func (s *StreamConn) received(data []byte) {
	if glog.V(3) {
		glog.Infof("serial RX % x", data)
	}
	s.lock.Lock()
	s.buf = append(s.buf, data...)
	if over := len(s.buf) - MaxBuffered; over > 0 {
		s.buf = s.buf[over:]
		glog.Warningf("serial receive buffer overflow, %d bytes dropped", over)
	}
	s.lock.Unlock()
}

func isTimeout(err error) bool {
	return err == io.EOF || os.IsTimeout(err)
}

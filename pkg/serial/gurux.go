package serial

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/Gurux/gxserial-go"
	"github.com/golang/glog"
)

// guruxPort adapts the event based Gurux media to io.ReadWriteCloser.
type guruxPort struct {
	media   *gxserial.GXSerial
	timeout time.Duration

	rxCh    chan []byte
	doneCh  chan struct{}
	pending []byte

	closeOnce sync.Once
	lock      sync.Mutex
	err       error
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func openGurux(c *Config) (io.ReadWriteCloser, error) {
	p := &guruxPort{
		media:   gxserial.NewGXSerial(c.Port, gxcommon.BaudRate(c.Baud), 8, gxcommon.StopBitsOne, gxcommon.ParityNone),
		timeout: c.ReadTimeout,
		rxCh:    make(chan []byte, 64),
		doneCh:  make(chan struct{}),
	}
	p.media.SetOnReceived(func(m gxcommon.IGXMedia, e gxcommon.ReceiveEventArgs) {
		data, err := gxcommon.ToBytes(e.Data(), binary.BigEndian)
		if err != nil {
			glog.Errorf("serial %s: %v", c.Port, err)
			return
		}
		p.received(append([]byte(nil), data...))
	})
	p.media.SetOnError(func(m gxcommon.IGXMedia, err error) {
		glog.Errorf("serial %s: %v", c.Port, err)
		p.lock.Lock()
		p.err = err
		p.lock.Unlock()
	})
	if err := p.media.Validate(); err != nil {
		return nil, err
	}
	if err := p.media.Open(); err != nil {
		return nil, err
	}
	glog.V(2).Infof("serial %s opened at %d baud (gurux)", c.Port, c.Baud)
	return p, nil
}

func (p *guruxPort) received(data []byte) {
	select {
	case p.rxCh <- data:
	case <-p.doneCh:
	}
}

// Read implements io.Reader.
func (p *guruxPort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		var timer <-chan time.Time
		if p.timeout > 0 {
			t := time.NewTimer(p.timeout)
			defer t.Stop()
			timer = t.C
		}
		select {
		case p.pending = <-p.rxCh:
		case <-timer:
			return 0, timeoutError{}
		case <-p.doneCh:
			p.lock.Lock()
			err := p.err
			p.lock.Unlock()
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *guruxPort) Write(b []byte) (int, error) {
	if err := p.media.Send(b, ""); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close implements io.Closer.
func (p *guruxPort) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.doneCh)
		err = p.media.Close()
	})
	return
}

package yx5300

import (
	"time"

	"github.com/golang/glog"
)

// DefaultTimeout is the default time to wait for a response.
const DefaultTimeout = time.Second

// pollDelay is the pause between polls while waiting synchronously.
const pollDelay = time.Millisecond

// Callback is invoked with every status reported by Poll.
type Callback func(Status)

// Player talks to a YX5300 module over a Conn.
// A Player must only be used from one goroutine.
type Player struct {
	conn     Conn
	parser   Parser
	observer Observer
	clock    func() time.Time

	timeout  time.Duration
	synch    bool
	callback Callback

	status     Status
	request    Request
	sentAt     time.Time
	waiting    bool
	badVersion bool
	err        error

	rxBuf   [32]byte
	pending []byte
}

// Option configures a Player.
type Option func(*Player)

// WithTimeout sets the response timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Player) {
		p.timeout = timeout
	}
}

// WithSynchronous sets whether Send waits for the response.
func WithSynchronous(synch bool) Option {
	return func(p *Player) {
		p.synch = synch
	}
}

// WithCallback registers the status callback.
func WithCallback(cb Callback) Option {
	return func(p *Player) {
		p.callback = cb
	}
}

// WithObserver attaches an Observer, e.g. for metrics.
func WithObserver(o Observer) Option {
	return func(p *Player) {
		p.observer = o
	}
}

// WithoutChecksum sends and expects frames without checksum bytes.
func WithoutChecksum() Option {
	return func(p *Player) {
		p.parser.DisableChecksum = true
	}
}

// New creates a Player, synchronous with DefaultTimeout unless
// changed by options.
func New(conn Conn, opts ...Option) *Player {
	p := &Player{
		conn:    conn,
		clock:   time.Now,
		timeout: DefaultTimeout,
		synch:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetTimeout sets the response timeout for next requests.
func (p *Player) SetTimeout(timeout time.Duration) { p.timeout = timeout }

// Timeout gets the response timeout.
func (p *Player) Timeout() time.Duration { return p.timeout }

// SetSynchronous sets whether Send waits for the response.
func (p *Player) SetSynchronous(synch bool) { p.synch = synch }

// Synchronous indicates Send waits for the response.
func (p *Player) Synchronous() bool { return p.synch }

// SetCallback registers the status callback, nil to remove it.
func (p *Player) SetCallback(cb Callback) { p.callback = cb }

// Status gets the latest status.
func (p *Player) Status() Status { return p.status }

// StatusCode gets the code of the latest status.
func (p *Player) StatusCode() StatusCode { return p.status.Code }

// StatusData gets the data of the latest status.
func (p *Player) StatusData() uint16 { return p.status.Data }

// Waiting indicates a request is still expecting its response.
func (p *Player) Waiting() bool { return p.waiting }

// Err returns the last I/O error of the Conn, if any.
func (p *Player) Err() error { return p.err }

// Begin resets the client state and selects the TF card.
func (p *Player) Begin() bool {
	p.parser.Reset()
	p.pending = nil
	p.waiting = false
	p.status = Status{}
	return p.Device(DevTF)
}

// Send sends a request.
// Frames already received are reported first, so they are not taken as
// the response. The outstanding request, if any, is replaced.
// In synchronous mode it polls until the response arrives or the timeout
// expires, and returns true if the device replied without error.
// Otherwise it returns true once the request is written, and the result
// must be retrieved later via Poll.
func (p *Player) Send(cmd CommandCode, data1, data2 byte) bool {
	p.waiting = false
	for p.Poll() {
	}
	req := NewRequest(cmd, data1, data2)
	frame := req.Frame()
	raw := frame.Bytes(!p.parser.DisableChecksum)
	if glog.V(3) {
		glog.Infof("TX %s: % x", req, raw)
	}
	if _, err := p.conn.Write(raw); err != nil {
		p.err = err
		glog.Errorf("send %s error: %v", req, err)
		return false
	}
	p.request, p.sentAt, p.waiting, p.badVersion = req, p.clock(), true, false
	if o := p.observer; o != nil {
		o.RequestSent(req)
	}
	if !p.synch {
		return true
	}
	for p.waiting {
		if !p.Poll() {
			time.Sleep(pollDelay)
		}
	}
	return !p.status.Code.IsLocal() && p.status.Code != StatusErrFile
}

// Poll processes received bytes without blocking.
// It returns true when a new status is reported: a complete frame
// was received, or the outstanding request timed out.
func (p *Player) Poll() bool {
	for {
		for len(p.pending) > 0 {
			b := p.pending[0]
			p.pending = p.pending[1:]
			pr := p.parser.Parse(b)
			if pr.Discarded > 0 {
				p.discarded(pr.Discarded)
			}
			if pr.BadVersion && p.waiting {
				p.badVersion = true
			}
			if pr.Frame != nil {
				p.handleFrame(pr)
				return true
			}
		}
		n, err := p.conn.Recv(p.rxBuf[:])
		if err != nil {
			if err != p.err {
				glog.Warningf("recv error: %v", err)
			}
			p.err = err
			break
		}
		if n == 0 {
			break
		}
		p.pending = p.rxBuf[:n]
	}

	if p.waiting && p.clock().Sub(p.sentAt) >= p.timeout {
		if n := p.parser.Reset(); n > 0 {
			p.discarded(n)
		}
		p.waiting = false
		code := StatusTimeout
		if p.badVersion {
			code = StatusVersion
		}
		glog.V(1).Infof("%s: no response in %v: %s", p.request, p.timeout, code)
		p.report(Status{Code: code})
		return true
	}
	return false
}

func (p *Player) handleFrame(pr ParseResult) {
	st := pr.Status()
	if glog.V(3) {
		f := pr.Frame
		glog.Infof("RX cmd=0x%02x fb=%d data=0x%04x chk=0x%04x valid=%v",
			f.Command, f.Feedback, f.Data(), f.Checksum, pr.Valid)
	}
	if !pr.Valid {
		glog.V(1).Infof("checksum mismatch on frame 0x%02x", pr.Frame.Command)
	}
	if p.waiting && p.answers(st) {
		p.waiting = false
	}
	p.report(st)
}

// answers indicates st is the response to the outstanding request.
// A query is answered by the status carrying its code, which follows
// the acknowledgment. Other commands are answered by the acknowledgment.
// Errors answer any request.
func (p *Player) answers(st Status) bool {
	switch {
	case st.Code.IsLocal(), st.Code == StatusErrFile:
		return true
	case p.request.Command.IsQuery():
		return st.Code == StatusCode(p.request.Command)
	}
	return st.Code == StatusAckOK
}

func (p *Player) report(st Status) {
	p.status = st
	if o := p.observer; o != nil {
		o.StatusReported(st)
	}
	if cb := p.callback; cb != nil {
		cb(st)
	}
}

func (p *Player) discarded(n int) {
	glog.V(2).Infof("resync: %d bytes discarded", n)
	if o := p.observer; o != nil {
		o.BytesDiscarded(n)
	}
}

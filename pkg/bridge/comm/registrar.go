package comm

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/bridge"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
)

// ErrNoLoop indicates a Registrar runs outside of a Loop.
var ErrNoLoop = errors.New("not running in a loop")

// Registrar is the player side of a Pipe.
// Received commands are posted to the loop as bridge.CommandMsg.
type Registrar struct {
	pipe Pipe
}

// NewRegistrar creates a Registrar over rw.
func NewRegistrar(rw PacketReadWriter) *Registrar {
	r := &Registrar{}
	r.Init(rw)
	return r
}

// Init initializes the Registrar.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(r.handleTypedMsg)
}

func (r *Registrar) handleTypedMsg(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	lc := fx.LoopControlFrom(ctx)
	if lc == nil {
		return ErrNoLoop
	}
	if typed.IsEvent() {
		lc.PostMessage(msg)
	} else if !typed.IsReply() {
		lc.PostMessage(&bridge.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}})
	} else {
		return nil
	}
	lc.TriggerNext()
	return nil
}

// SendEvent implements bridge.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg msgs.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// Run implements Runnable.
// It returns when the transport is closed or ctx is done.
func (r *Registrar) Run(ctx context.Context) error {
	return r.pipe.Run(ctx)
}

// Close closes the transport.
func (r *Registrar) Close() error {
	return r.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

type command struct {
	seq  uint32
	msg  msgs.Message
	pipe *Pipe
}

func (c *command) Msg() msgs.Message { return c.msg }

func (c *command) Done(reply msgs.Message) error {
	return c.pipe.SendCommandMsg(reply, c.seq)
}

// RegistrarMux fans events out to Registrars which may come and go.
type RegistrarMux struct {
	lock       sync.RWMutex
	registrars []bridge.Registrar
}

// Add adds registrars.
func (m *RegistrarMux) Add(regs ...bridge.Registrar) *RegistrarMux {
	m.lock.Lock()
	m.registrars = append(m.registrars, regs...)
	m.lock.Unlock()
	return m
}

// Remove removes a registrar.
func (m *RegistrarMux) Remove(reg bridge.Registrar) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for n, r := range m.registrars {
		if r == reg {
			m.registrars = append(m.registrars[:n], m.registrars[n+1:]...)
			return
		}
	}
}

// Registrars returns the current registrars.
func (m *RegistrarMux) Registrars() []bridge.Registrar {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return append([]bridge.Registrar(nil), m.registrars...)
}

// SendEvent implements bridge.Registrar.
func (m *RegistrarMux) SendEvent(ctx context.Context, msg msgs.Message) error {
	var errs fx.AggregatedError
	for _, reg := range m.Registrars() {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder for registrars added so far.
func (m *RegistrarMux) AddToLoop(loop *fx.Loop) {
	for _, reg := range m.Registrars() {
		if adder, ok := reg.(fx.LoopAdder); ok {
			loop.Add(adder)
		}
	}
}

// Serve runs a Registrar over rw until the transport is closed.
// The Registrar receives events only while being served.
// ctx must be from a Runnable in a Loop.
func (m *RegistrarMux) Serve(ctx context.Context, rw PacketReadWriter) error {
	reg := NewRegistrar(rw)
	m.Add(reg)
	defer m.Remove(reg)
	return reg.Run(ctx)
}

// UnsupportedCommands replies commands no controller has taken.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageContext) {
		if cmd, ok := mc.Message().(*bridge.CommandMsg); ok {
			mc.Take()
			if err := cmd.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
				glog.Errorf("reply %s: %v", cmd.Command.Msg(), err)
			}
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}

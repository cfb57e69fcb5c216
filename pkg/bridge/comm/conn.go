package comm

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/bridge"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
)

// DefaultCommandExpiration is how long a command waits for its reply.
const DefaultCommandExpiration = 2 * time.Second

// EventHandler receives events from the player.
type EventHandler func(msgs.Message)

// Conn implements bridge.Conn over a Pipe.
// Replies are matched to commands by sequence number. Commands without
// a reply after Expiration fail with context.DeadlineExceeded.
type Conn struct {
	Expiration time.Duration
	// OnEvent receives events. If nil, events are posted to the loop
	// when running in one.
	OnEvent EventHandler

	pipe     Pipe
	seq      uint32
	commands list.List
	seqMap   map[uint32]*future
	lock     sync.Mutex
}

// NewConn creates a Conn over rw.
func NewConn(rw PacketReadWriter) *Conn {
	c := &Conn{}
	c.Init(rw)
	return c
}

// Init initializes the Conn.
func (c *Conn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.seqMap = make(map[uint32]*future)
}

// DoCommand implements bridge.Conn.
func (c *Conn) DoCommand(msg msgs.Message) bridge.Future {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f := &future{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan bridge.Result, 1),
	}
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.done(bridge.Result{Err: err})
		return f
	}
	f.elem = c.commands.PushBack(f)
	c.seqMap[f.seq] = f
	return f
}

// Close implements bridge.Conn.
func (c *Conn) Close() error {
	return c.pipe.Close()
}

// Run receives replies and events until the transport is closed.
// Pending commands fail with context.Canceled when it returns.
func (c *Conn) Run(ctx context.Context) error {
	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	interval := c.Expiration / 4
	if interval <= 0 {
		interval = DefaultCommandExpiration / 4
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case now := <-ticker.C:
				c.PurgeExpired(now)
			}
		}
	}()
	defer c.failAll(context.Canceled)
	return c.pipe.Run(ctx)
}

// HandleEvents sets OnEvent while the Conn may be running.
func (c *Conn) HandleEvents(h EventHandler) {
	c.lock.Lock()
	c.OnEvent = h
	c.lock.Unlock()
}

// AddToLoop implements LoopAdder.
func (c *Conn) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
}

// PurgeExpired fails commands expired at now.
func (c *Conn) PurgeExpired(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for c.commands.Len() > 0 {
		elem := c.commands.Front()
		f := elem.Value.(*future)
		if f.expireAt.After(now) {
			break
		}
		c.commands.Remove(elem)
		delete(c.seqMap, f.seq)
		f.done(bridge.Result{Err: context.DeadlineExceeded})
	}
}

func (c *Conn) failAll(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for elem := c.commands.Front(); elem != nil; elem = elem.Next() {
		f := elem.Value.(*future)
		delete(c.seqMap, f.seq)
		f.done(bridge.Result{Err: err})
	}
	c.commands.Init()
}

func (c *Conn) handleTypedMsg(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		c.lock.Lock()
		h := c.OnEvent
		c.lock.Unlock()
		if h != nil {
			h(msg)
		} else if lc := fx.LoopControlFrom(ctx); lc != nil {
			lc.PostMessage(msg)
			lc.TriggerNext()
		}
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.seqMap[typed.Sequence]
	if f == nil {
		glog.V(1).Infof("reply #%d without command", typed.Sequence)
		return nil
	}
	c.commands.Remove(f.elem)
	delete(c.seqMap, f.seq)
	result := bridge.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.done(result)
	return nil
}

type future struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan bridge.Result
}

func (f *future) ResultChan() <-chan bridge.Result {
	return f.result
}

func (f *future) done(res bridge.Result) {
	f.result <- res
	close(f.result)
}

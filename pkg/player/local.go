package player

import (
	"errors"
	"sync"

	"github.com/robotalks/mp3.go/pkg/bridge"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
)

// ErrClosed indicates the LocalConn is closed.
var ErrClosed = errors.New("connection closed")

// LocalConn is a bridge.Conn to the Controller in a Loop of the
// same process. Commands are posted as CommandMsg.
type LocalConn struct {
	Loop *fx.Loop

	lock   sync.Mutex
	closed bool
}

// NewLocalConn creates a LocalConn.
func NewLocalConn(loop *fx.Loop) *LocalConn {
	return &LocalConn{Loop: loop}
}

// DoCommand implements bridge.Conn.
func (c *LocalConn) DoCommand(msg msgs.Message) bridge.Future {
	cmd := &localCommand{msg: msg, result: make(chan bridge.Result, 1)}
	c.lock.Lock()
	closed := c.closed
	c.lock.Unlock()
	if closed {
		cmd.Done(msgs.NewCommandErr(ErrClosed))
		return cmd
	}
	c.Loop.PostMessage(&bridge.CommandMsg{Command: cmd})
	c.Loop.TriggerNext()
	return cmd
}

// Close implements bridge.Conn.
func (c *LocalConn) Close() error {
	c.lock.Lock()
	c.closed = true
	c.lock.Unlock()
	return nil
}

type localCommand struct {
	msg    msgs.Message
	once   sync.Once
	result chan bridge.Result
}

func (c *localCommand) Msg() msgs.Message { return c.msg }

func (c *localCommand) Done(reply msgs.Message) error {
	c.once.Do(func() {
		res := bridge.Result{Msg: reply}
		if cmdErr, ok := reply.(*msgs.CommandErr); ok {
			res.Err = cmdErr
		}
		c.result <- res
		close(c.result)
	})
	return nil
}

func (c *localCommand) ResultChan() <-chan bridge.Result {
	return c.result
}

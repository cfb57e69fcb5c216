// Package bridge exposes a player to remote clients.
package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/robotalks/mp3.go/pkg/msgs"
)

// Registrar publishes a player to clients.
type Registrar interface {
	// SendEvent sends an event to all clients.
	SendEvent(context.Context, msgs.Message) error
}

// RegistrarFunc is a func implementing Registrar.
type RegistrarFunc func(context.Context, msgs.Message) error

// SendEvent implements Registrar.
func (f RegistrarFunc) SendEvent(ctx context.Context, msg msgs.Message) error {
	return f(ctx, msg)
}

// Command is a received command waiting for a reply.
type Command interface {
	Msg() msgs.Message
	Done(reply msgs.Message) error
}

// CommandMsg is posted to the loop when a command is received.
type CommandMsg struct {
	Command Command
}

// PlayerRef identifies a player.
type PlayerRef struct {
	// Type is the kind of player, e.g. yx5300.
	Type string
	// ID is unique per device.
	ID string
}

// ParseRef parses "type/id".
func ParseRef(s string) (ref PlayerRef, err error) {
	items := strings.SplitN(s, "/", 2)
	if len(items) == 2 {
		ref.Type, ref.ID = items[0], items[1]
	}
	if !ref.IsValid() {
		err = fmt.Errorf("invalid player reference %q, expect type/id", s)
	}
	return
}

// Name is "type/id".
func (r PlayerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates both type and ID are present.
func (r PlayerRef) IsValid() bool {
	return r.Type != "" && r.ID != "" && !strings.Contains(r.Type, "/")
}

// PlayerMeta is published along with the ref.
type PlayerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// PlayerInfo describes a registered player.
type PlayerInfo struct {
	Ref  PlayerRef
	Meta PlayerMeta
}

// Connector finds and connects players.
type Connector interface {
	// Discover lists registered players.
	Discover(context.Context) ([]PlayerInfo, error)
	// Connect connects to a player.
	Connect(context.Context, PlayerRef) (Conn, error)
}

// Conn is the client side of a connection to a player.
type Conn interface {
	// DoCommand sends a command and returns the future of its reply.
	DoCommand(msgs.Message) Future
	// Close disconnects.
	Close() error
}

// Result is the reply to a command.
type Result struct {
	Msg msgs.Message
	Err error
}

// Future is the pending result of a command.
type Future interface {
	ResultChan() <-chan Result
}

// Wait waits for the result of a command.
func Wait(ctx context.Context, f Future) (msgs.Message, error) {
	select {
	case res, ok := <-f.ResultChan():
		if !ok {
			return nil, context.Canceled
		}
		return res.Msg, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

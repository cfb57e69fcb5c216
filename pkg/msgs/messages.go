package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Type ID groups.
const (
	GroupCommand uint32 = 0x00000000
	GroupPlayer  uint32 = 0x00010000
)

// Type IDs.
const (
	CommandErrTypeID    uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	PlayerCommandTypeID uint32 = GroupPlayer | 0x0001
	PlayerReplyTypeID   uint32 = PlayerCommandTypeID | TypeIDMaskReply
	PlayerStatusTypeID  uint32 = TypeIDKindEvent | GroupPlayer | 0x0002
)

var (
	// ErrUnsupportedCommand indicates no one handles the command.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

func init() {
	Register(
		func() Message { return &CommandErr{} },
		func() Message { return &PlayerCommand{} },
		func() Message { return &PlayerReply{} },
		func() Message { return &PlayerStatus{} },
	)
}

// CommandErr is the reply to a failed command.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{Message: err.Error()}
}

// NewCommandErrf creates a CommandErr with a formatted message.
func NewCommandErrf(format string, args ...interface{}) *CommandErr {
	return &CommandErr{Message: fmt.Sprintf(format, args...)}
}

// TypeID implements Message.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// PlayerCommand invokes a player operation by name, e.g. "volume" with
// args [20].
type PlayerCommand struct {
	Name string   `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Args []uint32 `protobuf:"varint,2,rep,packed,name=args,proto3" json:"args,omitempty"`
}

// TypeID implements Message.
func (m *PlayerCommand) TypeID() uint32 { return PlayerCommandTypeID }

// ProtoMessage implements proto.Message.
func (m *PlayerCommand) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PlayerCommand) Reset() { *m = PlayerCommand{} }

// String implements proto.Message.
func (m *PlayerCommand) String() string { return proto.CompactTextString(m) }

// PlayerReply is the reply to PlayerCommand with the resulting status.
type PlayerReply struct {
	Ok     bool          `protobuf:"varint,1,opt,name=ok,proto3" json:"ok,omitempty"`
	Status *PlayerStatus `protobuf:"bytes,2,opt,name=status,proto3" json:"status,omitempty"`
}

// TypeID implements Message.
func (m *PlayerReply) TypeID() uint32 { return PlayerReplyTypeID }

// ProtoMessage implements proto.Message.
func (m *PlayerReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PlayerReply) Reset() { *m = PlayerReply{} }

// String implements proto.Message.
func (m *PlayerReply) String() string { return proto.CompactTextString(m) }

// PlayerStatus is an event reporting a status of the module.
type PlayerStatus struct {
	Code uint32 `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Data uint32 `protobuf:"varint,2,opt,name=data,proto3" json:"data,omitempty"`
	Name string `protobuf:"bytes,3,opt,name=name,proto3" json:"name,omitempty"`
}

// TypeID implements Message.
func (m *PlayerStatus) TypeID() uint32 { return PlayerStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *PlayerStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PlayerStatus) Reset() { *m = PlayerStatus{} }

// String implements proto.Message.
func (m *PlayerStatus) String() string { return proto.CompactTextString(m) }

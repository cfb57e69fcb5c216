package msgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Type ID masks.
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Message kinds.
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Message is a serializable message.
type Message interface {
	proto.Message
	TypeID() uint32
}

var (
	// ErrNotSerializable indicates the message has no type ID.
	ErrNotSerializable = errors.New("not serializable message")
)

// UnknownTypeError indicates the type ID isn't registered.
type UnknownTypeError struct {
	TypeID uint32
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %08x", e.TypeID)
}

// Typed is the envelope of a message.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message  []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	Sequence uint32 `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Typed) Reset() { *m = Typed{} }

// String implements proto.Message.
func (m *Typed) String() string { return proto.CompactTextString(m) }

// TypedMsgHandler handles a decoded message.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, Message, *Typed) error
}

// HandleTypedMsgFunc is the func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

var messageTypes = make(map[uint32]func() Message)

// Register registers message constructors by their type IDs.
// It's not safe to call concurrently with Decode.
func Register(newFns ...func() Message) {
	for _, fn := range newFns {
		messageTypes[fn().TypeID()] = fn
	}
}

// New creates an empty message of the type ID.
func New(typeID uint32) (Message, error) {
	fn := messageTypes[typeID]
	if fn == nil {
		return nil, &UnknownTypeError{TypeID: typeID}
	}
	return fn(), nil
}

// TypedFrom wraps a message in a Typed.
func TypedFrom(msg interface{}) (*Typed, error) {
	m, ok := msg.(Message)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(m)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: m.TypeID(), Message: data}, nil
}

// Decode decodes the wrapped message.
func (m *Typed) Decode() (Message, error) {
	msg, err := New(m.TypeId)
	if err != nil {
		return nil, err
	}
	if err = proto.Unmarshal(m.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the envelope.
func (m *Typed) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Kind gets the message kind.
func (m *Typed) Kind() uint32 {
	return m.TypeId & TypeIDMaskKind
}

// IsCommand indicates a command or a reply.
func (m *Typed) IsCommand() bool {
	return m.Kind() == TypeIDKindCommand
}

// IsEvent indicates an event.
func (m *Typed) IsEvent() bool {
	return m.Kind() == TypeIDKindEvent
}

// IsReply indicates a reply to a command.
func (m *Typed) IsReply() bool {
	return m.IsCommand() && (m.TypeId&TypeIDMaskReply) != 0
}

// DecodeTyped decodes an envelope.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

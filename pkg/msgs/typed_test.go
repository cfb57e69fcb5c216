package msgs

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"
)

func TestTypedKinds(t *testing.T) {
	testCases := []struct {
		name                  string
		typeID                uint32
		command, event, reply bool
	}{
		{"command", PlayerCommandTypeID, true, false, false},
		{"reply", PlayerReplyTypeID, true, false, true},
		{"error", CommandErrTypeID, true, false, true},
		{"event", PlayerStatusTypeID, false, true, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typed := &Typed{TypeId: tc.typeID}
			require.Equal(t, tc.command, typed.IsCommand())
			require.Equal(t, tc.event, typed.IsEvent())
			require.Equal(t, tc.reply, typed.IsReply())
		})
	}
}

func TestTypedEncodeDecode(t *testing.T) {
	cmd := &PlayerCommand{Name: "play-specific", Args: []uint32{1, 300}}
	typed, err := TypedFrom(cmd)
	require.NoError(t, err)
	typed.Sequence = 7
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, PlayerCommandTypeID, decoded.TypeId)
	require.Equal(t, uint32(7), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.True(t, proto.Equal(cmd, msg))
}

func TestTypedDecodeReply(t *testing.T) {
	reply := &PlayerReply{Ok: true, Status: &PlayerStatus{Code: 0x43, Data: 20, Name: "volume"}}
	typed, err := TypedFrom(reply)
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	decoded, ok := msg.(*PlayerReply)
	require.True(t, ok)
	require.True(t, decoded.Ok)
	require.Equal(t, uint32(20), decoded.Status.Data)
	require.Equal(t, "volume", decoded.Status.Name)
}

func TestTypedErrors(t *testing.T) {
	_, err := TypedFrom("not a message")
	require.Equal(t, ErrNotSerializable, err)

	typed := &Typed{TypeId: GroupPlayer | 0x7777}
	_, err = typed.Decode()
	require.EqualError(t, err, "unknown type: 00017777")
}

func TestCommandErr(t *testing.T) {
	err := NewCommandErrf("unknown command %q", "dance")
	require.EqualError(t, err, `unknown command "dance"`)
	require.Equal(t, ErrUnsupportedCommand.Error(), NewCommandErr(ErrUnsupportedCommand).Error())
}

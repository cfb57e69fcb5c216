package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mp3.go/pkg/msgs"
)

type resultFuture chan Result

func (f resultFuture) ResultChan() <-chan Result { return f }

func TestParseRef(t *testing.T) {
	testCases := []struct {
		in    string
		ref   PlayerRef
		valid bool
	}{
		{"yx5300/abc", PlayerRef{Type: "yx5300", ID: "abc"}, true},
		{"yx5300/a/b", PlayerRef{Type: "yx5300", ID: "a/b"}, true},
		{"yx5300", PlayerRef{}, false},
		{"/abc", PlayerRef{ID: "abc"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			ref, err := ParseRef(tc.in)
			require.Equal(t, tc.ref, ref)
			if tc.valid {
				require.NoError(t, err)
				require.Equal(t, tc.in, ref.Name())
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestWait(t *testing.T) {
	f := make(resultFuture, 1)
	f <- Result{Msg: &msgs.PlayerReply{Ok: true}}
	msg, err := Wait(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, &msgs.PlayerReply{Ok: true}, msg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err = Wait(ctx, make(resultFuture))
	require.Equal(t, context.DeadlineExceeded, err)
}

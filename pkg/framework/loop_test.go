package framework

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	record := func(n int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, n*100+cc.PriorityLevel())
			return nil
		})
	}
	l := NewLoop()
	l.AddController(PrLvActuate, record(3))
	l.AddController(PrLvSense, record(1))
	l.AddController(PrLvControl, record(2))
	l.PreRunAt(PrLvSense, record(0))
	l.PostRunAt(PrLvControl, record(4))

	l.RunIteration(context.Background())
	require.Equal(t, []int{4, 104, 208, 408, 312}, order)

	order = nil
	l.RunIteration(context.Background())
	require.Equal(t, []int{104, 208, 312}, order)
}

func TestLoopPostRunFromController(t *testing.T) {
	var calls []string
	l := NewLoop()
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		calls = append(calls, "ctl")
		cc.PostRun(ControlFunc(func(cc ControlContext) error {
			calls = append(calls, "hook")
			return nil
		}))
		return nil
	}))
	l.RunIteration(context.Background())
	require.Equal(t, []string{"ctl", "hook"}, calls)
}

func TestLoopMessages(t *testing.T) {
	var seen, taken []Message
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageContext) {
			seen = append(seen, mc.Message())
			if s, ok := mc.Message().(string); ok && s == "take" {
				mc.Take()
			}
		}))
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageContext) {
			taken = append(taken, mc.Message())
			mc.Take()
		}))
		return nil
	}))

	l.PostMessage("keep")
	l.PostMessage("take")
	l.RunIteration(context.Background())
	require.Equal(t, []Message{"keep", "take"}, seen)
	require.Equal(t, []Message{"keep"}, taken)

	seen, taken = nil, nil
	l.RunIteration(context.Background())
	require.Empty(t, seen)
	require.Empty(t, taken)
}

func TestLoopMessagesStop(t *testing.T) {
	var first, second []Message
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageContext) {
			first = append(first, mc.Message())
			mc.Take()
			mc.Stop()
		}))
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().AddMessages(3)
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageContext) {
			second = append(second, mc.Message())
		}))
		return nil
	}))
	l.PostMessage(1)
	l.PostMessage(2)
	l.RunIteration(context.Background())
	require.Equal(t, []Message{1}, first)
	require.Equal(t, []Message{2, 3}, second)
}

func TestLoopRun(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	done := make(chan Message, 1)
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageContext) {
			mc.Take()
			done <- mc.Message()
		}))
		return nil
	}))
	started := make(chan LoopControl, 1)
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		started <- LoopControlFrom(ctx)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	lc := <-started
	require.NotNil(t, lc)
	lc.PostMessage("hello")
	lc.TriggerNext()
	select {
	case msg := <-done:
		require.Equal(t, "hello", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("message not processed")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

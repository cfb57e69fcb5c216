package framework

import (
	"context"
	"time"
)

// Named is implemented by components with a name.
type Named interface {
	Name() string
}

// Runnable is a component running in background until the context is done.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is anything posted to a Loop for controllers to consume.
type Message interface{}

// Controller is invoked once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is the state of the current iteration.
type ControlContext interface {
	// Context is the context of the running loop.
	Context() context.Context
	// Time is the time the iteration started.
	Time() time.Time
	// PriorityLevel is the level of the controller being invoked.
	PriorityLevel() int
	// Messages are the messages collected when the iteration started.
	Messages() MessageStore
	// PostRun installs one-shot hooks run after the controllers at the
	// current level. Hooks installed from hooks run next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// PriorityLevels is the number of priority levels.
const PriorityLevels = 16

// Priority levels, lower runs earlier.
const (
	PrLvTop    = 0
	PrLvHigh   = 4
	PrLvNormal = 8
	PrLvLow    = 12
	PrLvIdle   = PriorityLevels - 1

	// PrLvSense is for reading devices.
	PrLvSense = PrLvHigh
	// PrLvControl is for controlling logic.
	PrLvControl = PrLvNormal
	// PrLvActuate is for writing devices.
	PrLvActuate = PrLvLow
	// PrLvPostProc is for reporting.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl is what components may do with a running loop.
type LoopControl interface {
	// PreRunAt installs one-shot hooks before controllers at a level.
	PreRunAt(priorityLevel int, hooks ...Controller)
	// PostRunAt installs one-shot hooks after controllers at a level.
	PostRunAt(priorityLevel int, hooks ...Controller)
	// PostMessage queues a message for the next iteration.
	// It's safe to call from any goroutine.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for the tick.
	TriggerNext()
}

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits messages in order.
	ProcessMessages(MessageProcessor)
	// AddMessages appends messages visible to later controllers.
	AddMessages(msgs ...Message)
}

// MessageProcessor visits a message.
type MessageProcessor interface {
	ProcessMessage(MessageContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageContext) {
	f(mc)
}

// MessageContext is passed to MessageProcessor.
type MessageContext interface {
	// Message is the message being visited.
	Message() Message
	// Take removes the message from the store.
	Take()
	// Stop skips remaining messages.
	Stop()
}

package player

import (
	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/bridge"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
	"github.com/robotalks/mp3.go/pkg/yx5300"
)

// maxPollsPerIteration bounds the statuses handled in one iteration.
const maxPollsPerIteration = 32

// Controller owns a Player in a Loop. It polls the player, executes
// PlayerCommand and publishes every status as a PlayerStatus event.
type Controller struct {
	Player    *yx5300.Player
	Registrar bridge.Registrar
	Begin     bool

	started  bool
	statuses []yx5300.Status
}

// NewController creates a Controller. It takes over the callback of p.
func NewController(p *yx5300.Player, reg bridge.Registrar) *Controller {
	c := &Controller{Player: p, Registrar: reg}
	p.SetCallback(c.statusReported)
	return c
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.poll))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.publish))
}

// StatusMsg converts a Status into a PlayerStatus.
func StatusMsg(st yx5300.Status) *msgs.PlayerStatus {
	return &msgs.PlayerStatus{
		Code: uint32(st.Code),
		Data: uint32(st.Data),
		Name: st.Code.String(),
	}
}

func (c *Controller) statusReported(st yx5300.Status) {
	c.statuses = append(c.statuses, st)
}

func (c *Controller) poll(cc fx.ControlContext) error {
	if !c.started {
		c.started = true
		if c.Begin && !c.Player.Begin() {
			glog.Warningf("begin: %s", c.Player.Status())
		}
	}
	for n := 0; n < maxPollsPerIteration; n++ {
		if !c.Player.Poll() {
			break
		}
	}
	return nil
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageContext) {
		cmd, ok := mc.Message().(*bridge.CommandMsg)
		if !ok {
			return
		}
		pc, ok := cmd.Command.Msg().(*msgs.PlayerCommand)
		if !ok {
			return
		}
		mc.Take()
		reply := c.Execute(pc)
		if err := cmd.Command.Done(reply); err != nil {
			glog.Errorf("reply %s: %v", pc.Name, err)
		}
	}))
	return nil
}

// Execute runs a PlayerCommand and returns the reply.
func (c *Controller) Execute(pc *msgs.PlayerCommand) msgs.Message {
	ok, err := Execute(c.Player, pc.Name, pc.Args)
	if err != nil {
		glog.V(1).Infof("command %s: %v", pc, err)
		return msgs.NewCommandErr(err)
	}
	if err = c.Player.Err(); err != nil && !ok {
		return msgs.NewCommandErr(err)
	}
	glog.V(2).Infof("command %s: ok=%v %s", pc, ok, c.Player.Status())
	return &msgs.PlayerReply{Ok: ok, Status: StatusMsg(c.Player.Status())}
}

func (c *Controller) publish(cc fx.ControlContext) error {
	statuses := c.statuses
	c.statuses = nil
	if c.Registrar == nil {
		return nil
	}
	var errs fx.AggregatedError
	for _, st := range statuses {
		errs.Add(c.Registrar.SendEvent(cc.Context(), StatusMsg(st)))
	}
	return errs.Aggregate()
}

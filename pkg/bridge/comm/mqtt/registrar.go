package mqtt

import (
	"context"
	"encoding/json"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/msgs"
)

// Registrar publishes a player on MQTT.
// The retained meta topic announces the player; the broker clears it
// through the will message when the daemon disappears.
type Registrar struct {
	Queue *Queue
	Info  bridge.PlayerInfo

	meta      []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info bridge.PlayerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+metaTopic(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("mp3:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue: NewQueue(opts, prefix),
		Info:  info,
		meta:  meta,
	}
	r.Queue.OnConnect = func(q *Queue) {
		q.PubWith(metaTopic(r.Info.Ref), r.meta, 1, true)
	}
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForPlayer(info.Ref))
	return r, nil
}

func metaTopic(ref bridge.PlayerRef) string {
	return ref.Name() + "/" + TopicMeta
}

// SendEvent implements bridge.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg msgs.Message) error {
	if !r.Queue.Client.IsConnected() {
		return nil
	}
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(fx.NamedRun("mqtt-registrar", r))
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	if token := r.Queue.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	<-ctx.Done()
	r.Queue.PubWith(metaTopic(r.Info.Ref), nil, 1, true).Wait()
	r.registrar.Close()
	r.Queue.Close()
	return ctx.Err()
}

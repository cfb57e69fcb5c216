package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm"
)

// DefaultDiscoverTimeout is how long Discover collects retained metas.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements bridge.Connector on MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options *paho.ClientOptions
	prefix  string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		prefix:          prefix,
	}, nil
}

// ParseMeta parses a meta message into PlayerInfo.
// An empty payload means the player is offline, and ok is false.
func ParseMeta(topic string, payload []byte) (info bridge.PlayerInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return
	}
	info.Ref = bridge.PlayerRef{Type: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.V(1).Infof("invalid meta of %s: %v", info.Ref.Name(), err)
	}
	return info, info.Ref.IsValid()
}

// Discover implements bridge.Connector.
func (c *Connector) Discover(ctx context.Context) ([]bridge.PlayerInfo, error) {
	q := NewQueue(c.options, c.prefix)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()

	infoCh := make(chan bridge.PlayerInfo, 16)
	sub := q.Sub("+/+/"+TopicMeta, func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case infoCh <- info:
			case <-ctx.Done():
			}
		}
	})
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	var infos []bridge.PlayerInfo
	for {
		select {
		case info := <-infoCh:
			infos = append(infos, info)
		case <-timer.C:
			return infos, nil
		case <-ctx.Done():
			return infos, ctx.Err()
		}
	}
}

// Connect implements bridge.Connector.
func (c *Connector) Connect(ctx context.Context, ref bridge.PlayerRef) (bridge.Conn, error) {
	q := NewQueue(c.options, c.prefix)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	rw := NewPacketReadWriter(q).ForConnector(ref)
	rw.Subscribe().Token.Wait()
	conn := &Conn{Queue: q}
	conn.Init(rw)
	go conn.Run(context.Background())
	return conn, nil
}

// Conn is a bridge.Conn over MQTT.
type Conn struct {
	comm.Conn
	Queue *Queue
}

// Close implements bridge.Conn.
func (c *Conn) Close() error {
	err := c.Conn.Close()
	c.Queue.Close()
	return err
}

package env

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/mqtt"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/stream"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/websocket"
)

// ConnectorConfig sets up a Connector for clients.
type ConnectorConfig struct {
	Ref bridge.PlayerRef

	// RegistryURL is one of
	//   mqtt://host:port/topic-prefix
	//   tcp://host:port
	//   ws://host:port/path
	RegistryURL string
}

var defaultConnectorConfig = ConnectorConfig{
	Ref:         bridge.PlayerRef{Type: PlayerType},
	RegistryURL: "mqtt://localhost:1883/mp3/",
}

func init() {
	if val := os.Getenv("MP3_REGISTRY_URL"); val != "" {
		defaultConnectorConfig.RegistryURL = val
	}
	if val := os.Getenv("MP3_PLAYER"); val != "" {
		if ref, err := bridge.ParseRef(val); err == nil {
			defaultConnectorConfig.Ref = ref
		}
	}
}

// SetupConnectorFlags sets command line flags.
func SetupConnectorFlags() {
	flag.StringVar(&defaultConnectorConfig.Ref.ID, "player", defaultConnectorConfig.Ref.ID, "Player ID to connect.")
	flag.StringVar(&defaultConnectorConfig.RegistryURL, "reg", defaultConnectorConfig.RegistryURL, "Player registry URL (mqtt://, tcp:// or ws://).")
}

// NewConnectorConfig creates a ConnectorConfig with defaults.
func NewConnectorConfig() *ConnectorConfig {
	conf := defaultConnectorConfig
	return &conf
}

// NewConnector creates a Connector from RegistryURL.
func (c *ConnectorConfig) NewConnector() (bridge.Connector, error) {
	u, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mqtt", "mqtts":
		return mqtt.NewConnector(c.RegistryURL)
	case "tcp":
		return &stream.Connector{Addr: u.Host, Ref: c.Ref}, nil
	case "ws", "wss":
		return &websocket.Connector{URL: c.RegistryURL, Ref: c.Ref}, nil
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", u.Scheme)
	}
}

// Connect connects to Ref.
func (c *ConnectorConfig) Connect(ctx context.Context) (bridge.Conn, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("player must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}

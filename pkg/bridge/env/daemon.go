package env

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/mqtt"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/stream"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/websocket"
	fx "github.com/robotalks/mp3.go/pkg/framework"
)

// PlayerType is the type in PlayerRef of YX5300 players.
const PlayerType = "yx5300"

// Config sets up the bridges of a player daemon.
type Config struct {
	Info bridge.PlayerInfo

	// MQTTBrokerURL e.g. mqtt://host:port/topic-prefix, empty to disable.
	MQTTBrokerURL string
	// StreamAddr is the TCP listen address, empty to disable.
	StreamAddr string
	// Websocket enables the websocket handler.
	Websocket bool
}

var defaultConfig = Config{
	Info: bridge.PlayerInfo{
		Ref: bridge.PlayerRef{Type: PlayerType},
	},
	MQTTBrokerURL: "mqtt://localhost:1883/mp3/",
	Websocket:     true,
}

func init() {
	if val, ok := os.LookupEnv("MP3_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("MP3_PLAYER_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
	if val := os.Getenv("MP3_STREAM_ADDR"); val != "" {
		defaultConfig.StreamAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	if defaultConfig.Info.Ref.ID == "" {
		defaultConfig.Info.Ref.ID = MachineID()
	}
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Player ID.")
	flag.StringVar(&defaultConfig.Info.Meta.Description, "desc", defaultConfig.Info.Meta.Description, "Player description.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.StreamAddr, "listen", defaultConfig.StreamAddr, "TCP address for stream clients, empty to disable.")
	flag.BoolVar(&defaultConfig.Websocket, "websocket", defaultConfig.Websocket, "Serve websocket clients on the HTTP address.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env holds the bridges of a daemon.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	Stream       *stream.Server
	Websocket    *websocket.Server
}

// NewEnv creates the bridges.
func (c *Config) NewEnv() (*Env, error) {
	if c.Info.Ref.ID == "" {
		c.Info.Ref.ID = MachineID()
	}
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("invalid player %q", c.Info.Ref.Name())
	}
	e := &Env{Config: c, Registrar: &comm.RegistrarMux{}}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("MQTT registrar: %v", err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.StreamAddr != "" {
		e.Stream = stream.NewServer(c.StreamAddr, e.Registrar)
	}
	if c.Websocket {
		e.Websocket = websocket.NewServer(e.Registrar)
	}
	if len(e.Registrar.Registrars()) == 0 && e.Stream == nil && e.Websocket == nil {
		return nil, errors.New("no bridge enabled")
	}
	return e, nil
}

// AddToLoop implements LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	if e.Stream != nil {
		loop.Add(e.Stream)
	}
	if e.Websocket != nil {
		loop.Add(e.Websocket)
	}
	loop.Add(&comm.UnsupportedCommands{})
}

package env

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mp3.go/pkg/bridge/comm/mqtt"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/stream"
	"github.com/robotalks/mp3.go/pkg/bridge/comm/websocket"
)

func TestNewConnector(t *testing.T) {
	testCases := []struct {
		url    string
		expect interface{}
	}{
		{"mqtt://localhost:1883/mp3/", &mqtt.Connector{}},
		{"tcp://localhost:7300", &stream.Connector{}},
		{"ws://localhost:8300/ws", &websocket.Connector{}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			conf := NewConnectorConfig()
			conf.RegistryURL = tc.url
			connector, err := conf.NewConnector()
			require.NoError(t, err)
			require.IsType(t, tc.expect, connector)
		})
	}

	conf := NewConnectorConfig()
	conf.RegistryURL = "http://localhost"
	_, err := conf.NewConnector()
	require.EqualError(t, err, `unknown registry URL scheme: "http"`)
}

func TestStreamConnectorAddr(t *testing.T) {
	conf := NewConnectorConfig()
	conf.RegistryURL = "tcp://127.0.0.1:7300"
	conf.Ref.ID = "abc"
	connector, err := conf.NewConnector()
	require.NoError(t, err)
	sc := connector.(*stream.Connector)
	require.Equal(t, "127.0.0.1:7300", sc.Addr)
	require.Equal(t, "yx5300/abc", sc.Ref.Name())
}

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.Info.Ref.ID = "test"
	conf.MQTTBrokerURL = ""
	conf.StreamAddr = "127.0.0.1:0"
	conf.Websocket = false
	e, err := conf.NewEnv()
	require.NoError(t, err)
	require.NotNil(t, e.Stream)
	require.Nil(t, e.Websocket)
	require.Empty(t, e.RegistryURLs)

	conf.StreamAddr = ""
	_, err = conf.NewEnv()
	require.EqualError(t, err, "no bridge enabled")
}

package player

import (
	"flag"
	"time"

	"github.com/robotalks/mp3.go/pkg/serial"
	"github.com/robotalks/mp3.go/pkg/sim"
	"github.com/robotalks/mp3.go/pkg/yx5300"
)

// Config defines the player client settings.
type Config struct {
	Timeout      time.Duration
	Asynchronous bool
	NoChecksum   bool
	// PollInterval is the loop interval polling the player.
	PollInterval time.Duration
	// Begin selects the TF card when the loop starts.
	Begin bool
}

var defaultConfig = Config{
	Timeout:      yx5300.DefaultTimeout,
	PollInterval: 20 * time.Millisecond,
	Begin:        true,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Response timeout.")
	flag.BoolVar(&defaultConfig.Asynchronous, "async", defaultConfig.Asynchronous, "Don't wait for responses.")
	flag.BoolVar(&defaultConfig.NoChecksum, "no-checksum", defaultConfig.NoChecksum, "Frames carry no checksum.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Interval polling the player.")
	flag.BoolVar(&defaultConfig.Begin, "begin", defaultConfig.Begin, "Select the TF card on start.")
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

// Options converts the config into Player options.
func (c *Config) Options() []yx5300.Option {
	opts := []yx5300.Option{
		yx5300.WithTimeout(c.Timeout),
		yx5300.WithSynchronous(!c.Asynchronous),
	}
	if c.NoChecksum {
		opts = append(opts, yx5300.WithoutChecksum())
	}
	return opts
}

// NewPlayer creates a Player on conn.
func (c *Config) NewPlayer(conn yx5300.Conn, opts ...yx5300.Option) *yx5300.Player {
	return yx5300.New(conn, append(c.Options(), opts...)...)
}

// OpenConn opens the serial port of sc.
// A simulated module uses the same framing as the player.
func (c *Config) OpenConn(sc *serial.Config) (*serial.StreamConn, error) {
	conf := *sc
	simConf := sim.NewConfig()
	if sc.Sim != nil {
		*simConf = *sc.Sim
	}
	simConf.NoChecksum = simConf.NoChecksum || c.NoChecksum
	conf.Sim = simConf
	return conf.OpenConn()
}

package serial

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/mp3.go/pkg/sim"
)

// Drivers.
const (
	DriverTarm  = "tarm"
	DriverGurux = "gurux"
	// DriverSim opens a simulated module, Port is ignored.
	DriverSim = "sim"
)

// DefaultBaud is the baud rate of the YX5300 module.
const DefaultBaud = 9600

// Config defines a serial port.
type Config struct {
	Port   string
	Baud   int
	Driver string
	// ReadTimeout bounds a single Read so the reader can be stopped
	// without closing the port. Zero blocks.
	ReadTimeout time.Duration
	// Sim configures the module opened by DriverSim.
	// Nil uses the sim defaults.
	Sim *sim.Config
}

var defaultConfig = Config{
	Baud:        DefaultBaud,
	Driver:      DriverTarm,
	ReadTimeout: 100 * time.Millisecond,
}

func init() {
	if port := os.Getenv("MP3_SERIAL_PORT"); port != "" {
		defaultConfig.Port = port
	}
	if baud, err := strconv.Atoi(os.Getenv("MP3_SERIAL_BAUD")); err == nil && baud > 0 {
		defaultConfig.Baud = baud
	}
	if driver := os.Getenv("MP3_SERIAL_DRIVER"); driver != "" {
		defaultConfig.Driver = driver
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port connected to the MP3 module.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial port baud rate.")
	flag.StringVar(&defaultConfig.Driver, "serial-driver", defaultConfig.Driver, "Serial driver: tarm, gurux or sim.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "serial-read-timeout", defaultConfig.ReadTimeout, "Serial read timeout, 0 to block.")
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

// Open opens the serial port with the configured driver.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	if c.Driver == DriverSim {
		simConf := c.Sim
		if simConf == nil {
			simConf = sim.NewConfig()
		}
		return simConf.NewModule(), nil
	}
	if c.Port == "" {
		return nil, ErrNoPort
	}
	switch c.Driver {
	case DriverTarm, "":
		return openTarm(c)
	case DriverGurux:
		return openGurux(c)
	default:
		return nil, fmt.Errorf("unknown serial driver %q", c.Driver)
	}
}

// OpenConn opens the port and wraps it in a StreamConn.
func (c *Config) OpenConn() (*StreamConn, error) {
	port, err := c.Open()
	if err != nil {
		return nil, err
	}
	conn := NewStreamConn(port)
	conn.ReadTimeout = c.ReadTimeout > 0 && c.Driver != DriverSim
	return conn, nil
}

package serial

import (
	"io"

	"github.com/golang/glog"
	tarm "github.com/tarm/serial"
)

func openTarm(c *Config) (io.ReadWriteCloser, error) {
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        c.Port,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	})
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("serial %s opened at %d baud", c.Port, c.Baud)
	return port, nil
}

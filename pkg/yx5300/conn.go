package yx5300

import "io"

// Conn is the byte channel to the device.
type Conn interface {
	io.Writer
	// Recv copies bytes already received into p. It must not block,
	// and returns 0 when nothing is available.
	Recv(p []byte) (int, error)
}

// Observer is notified about the traffic of a Player.
type Observer interface {
	RequestSent(Request)
	StatusReported(Status)
	BytesDiscarded(n int)
}

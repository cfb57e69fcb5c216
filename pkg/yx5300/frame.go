package yx5300

import (
	"io"
)

// Protocol characters.
const (
	StartMarker   byte = 0x7e
	Version       byte = 0xff
	PayloadLength byte = 0x06 // version through data2
	EndMarker     byte = 0xef
	FeedbackOff   byte = 0x00
	FeedbackOn    byte = 0x01
)

// Frame sizes on the wire.
const (
	FrameSize           = 10
	FrameSizeNoChecksum = 8
)

// Frame is one protocol message.
type Frame struct {
	Version  byte
	Length   byte
	Command  byte
	Feedback byte
	Data1    byte
	Data2    byte
	Checksum uint16
}

// Checksum calculates the two's complement of the sum of payload bytes.
func Checksum(payload []byte) uint16 {
	var sum uint16
	for _, b := range payload {
		sum += uint16(b)
	}
	return -sum
}

// Payload returns the bytes covered by the checksum.
func (f *Frame) Payload() []byte {
	return []byte{f.Version, f.Length, f.Command, f.Feedback, f.Data1, f.Data2}
}

// Data returns data bytes as a 16-bit value.
func (f *Frame) Data() uint16 {
	return uint16(f.Data1)<<8 | uint16(f.Data2)
}

// ComputeChecksum calculates the checksum of the payload.
func (f *Frame) ComputeChecksum() uint16 {
	return Checksum(f.Payload())
}

// ChecksumValid verifies the carried checksum.
func (f *Frame) ChecksumValid() bool {
	return f.Checksum == f.ComputeChecksum()
}

// Request converts the frame back to the request it carries.
func (f *Frame) Request() Request {
	return Request{Command: CommandCode(f.Command), Data1: f.Data1, Data2: f.Data2}
}

// Status converts the frame into the status it reports.
func (f *Frame) Status() Status {
	return Status{Code: StatusCode(f.Command), Data: f.Data()}
}

// Bytes returns encoded bytes for sending. The checksum is
// recalculated unless withChecksum is false, in which case
// it's omitted from the output.
func (f *Frame) Bytes(withChecksum bool) []byte {
	b := make([]byte, 0, FrameSize)
	b = append(b, StartMarker)
	b = append(b, f.Payload()...)
	if withChecksum {
		f.Checksum = f.ComputeChecksum()
		b = append(b, byte(f.Checksum>>8), byte(f.Checksum))
	}
	return append(b, EndMarker)
}

// WriteTo writes encoded bytes including checksum.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes(true))
	return int64(n), err
}

// Decode decodes exactly one frame from b.
// A frame with mismatched checksum is returned together with a *ChecksumError.
func Decode(b []byte, withChecksum bool) (*Frame, error) {
	size := FrameSize
	if !withChecksum {
		size = FrameSizeNoChecksum
	}
	if len(b) < size {
		return nil, ErrShortFrame
	}
	switch {
	case b[0] != StartMarker:
		return nil, ErrStartMarker
	case b[1] != Version:
		return nil, ErrVersion
	case b[2] != PayloadLength:
		return nil, ErrLength
	case b[size-1] != EndMarker:
		return nil, ErrEndMarker
	}
	f := &Frame{
		Version:  b[1],
		Length:   b[2],
		Command:  b[3],
		Feedback: b[4],
		Data1:    b[5],
		Data2:    b[6],
	}
	if !withChecksum {
		f.Checksum = f.ComputeChecksum()
		return f, nil
	}
	f.Checksum = uint16(b[7])<<8 | uint16(b[8])
	if expected := f.ComputeChecksum(); expected != f.Checksum {
		return f, &ChecksumError{Expected: expected, Actual: f.Checksum}
	}
	return f, nil
}

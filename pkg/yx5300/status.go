package yx5300

import "fmt"

// StatusCode identifies the kind of Status.
// Codes up to StatusChecksum are generated by the client itself,
// the rest are reported by the device.
type StatusCode byte

// Status codes.
const (
	StatusOK           StatusCode = 0x00
	StatusTimeout      StatusCode = 0x01
	StatusVersion      StatusCode = 0x02
	StatusChecksum     StatusCode = 0x03
	StatusTFInsert     StatusCode = 0x3a
	StatusTFRemove     StatusCode = 0x3b
	StatusFileEnd      StatusCode = 0x3d
	StatusInit         StatusCode = 0x3f
	StatusErrFile      StatusCode = 0x40
	StatusAckOK        StatusCode = 0x41
	StatusStatus       StatusCode = 0x42
	StatusVolume       StatusCode = 0x43
	StatusEqualizer    StatusCode = 0x44
	StatusTotalFiles   StatusCode = 0x48
	StatusPlaying      StatusCode = 0x4c
	StatusFolderFiles  StatusCode = 0x4e
	StatusTotalFolders StatusCode = 0x4f
)

var statusNames = map[StatusCode]string{
	StatusOK:           "ok",
	StatusTimeout:      "timeout",
	StatusVersion:      "version",
	StatusChecksum:     "checksum",
	StatusTFInsert:     "tf-insert",
	StatusTFRemove:     "tf-remove",
	StatusFileEnd:      "file-end",
	StatusInit:         "init",
	StatusErrFile:      "err-file",
	StatusAckOK:        "ack",
	StatusStatus:       "status",
	StatusVolume:       "volume",
	StatusEqualizer:    "equalizer",
	StatusTotalFiles:   "total-files",
	StatusPlaying:      "playing",
	StatusFolderFiles:  "folder-files",
	StatusTotalFolders: "total-folders",
}

// String implements fmt.Stringer.
func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("status(0x%02x)", byte(c))
}

// IsLocal indicates the status was synthesized by the client.
func (c StatusCode) IsLocal() bool {
	return c <= StatusChecksum
}

// IsUnsolicited indicates the device sends the status on its own.
func (c StatusCode) IsUnsolicited() bool {
	switch c {
	case StatusTFInsert, StatusTFRemove, StatusFileEnd, StatusInit:
		return true
	}
	return false
}

// Status is the latest result seen by a Player.
type Status struct {
	Code StatusCode
	Data uint16
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return fmt.Sprintf("%s 0x%04x", s.Code, s.Data)
}

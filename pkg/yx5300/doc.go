// Package yx5300 provides the client for YX5300 serial MP3 modules.
package yx5300

// The module talks a fixed 10-byte frame protocol over a 9600 baud
// point-to-point serial link:
//
//	7E FF 06 CMD FB D1 D2 CHK_HI CHK_LO EF
//
// Requests and responses share the same shape. The device also sends
// frames on its own (card inserted/removed, track ended, init complete),
// which are decoded exactly like responses.
//
// The Player is cooperative: Poll never blocks and must be called from
// the host control loop. In synchronous mode Send spins on Poll until
// the reply arrives or the timeout expires.

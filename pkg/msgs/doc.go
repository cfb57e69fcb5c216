// Package msgs defines the messages exchanged between the player daemon
// and remote clients.
package msgs

// Every message travels in a Typed envelope carrying a type ID and, for
// commands and their replies, a sequence number matching the reply to
// the command. Type IDs with the high bit set are events, which are
// pushed by the daemon without being requested.

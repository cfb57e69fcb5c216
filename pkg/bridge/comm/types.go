// Package comm carries Typed messages over packet transports.
package comm

// PacketReader reads packets.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads and writes packets.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

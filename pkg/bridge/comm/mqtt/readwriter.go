package mqtt

import (
	"context"
	"io"
	"sync"

	"github.com/robotalks/mp3.go/pkg/bridge"
)

// Topic suffixes.
const (
	TopicCmd  = "cmd"
	TopicMsg  = "msg"
	TopicMeta = "meta"
)

// ReadWriter implements comm.PacketReadWriter on a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	sub       *Subscription
	subLock   sync.Mutex
}

// NewPacketReadWriter creates a ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		closeCh:  make(chan struct{}),
	}
}

// WithTopics sets the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForConnector reads <ref>/msg and writes <ref>/cmd.
func (p *ReadWriter) ForConnector(ref bridge.PlayerRef) *ReadWriter {
	return p.WithTopics(ref.Name()+"/"+TopicMsg, ref.Name()+"/"+TopicCmd)
}

// ForPlayer reads <ref>/cmd and writes <ref>/msg.
func (p *ReadWriter) ForPlayer(ref bridge.PlayerRef) *ReadWriter {
	return p.WithTopics(ref.Name()+"/"+TopicCmd, ref.Name()+"/"+TopicMsg)
}

// Subscribe starts receiving packets. ReadPacket subscribes if needed.
func (p *ReadWriter) Subscribe() *Subscription {
	p.subLock.Lock()
	defer p.subLock.Unlock()
	if p.sub == nil {
		p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	}
	return p.sub
}

// ReadPacket implements comm.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	p.Subscribe()
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closeCh:
		return nil, io.EOF
	}
}

// WritePacket implements comm.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close stops reading.
func (p *ReadWriter) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closeCh)
		p.subLock.Lock()
		if p.sub != nil {
			err = p.sub.Close()
		}
		p.subLock.Unlock()
	})
	return err
}

// Run implements Runnable, it closes the ReadWriter when ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	p.Subscribe()
	select {
	case <-ctx.Done():
	case <-p.closeCh:
	}
	p.Close()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.closeCh:
	}
}

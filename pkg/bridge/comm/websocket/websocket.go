// Package websocket carries packets in websocket binary messages.
package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm"
	fx "github.com/robotalks/mp3.go/pkg/framework"
)

// ReadWriter implements comm.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps a websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements comm.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements comm.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close closes the websocket.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Server is an http.Handler serving each websocket client with
// a Registrar in Mux. Clients are rejected until Run is called from
// the Loop running the player.
type Server struct {
	Mux *comm.RegistrarMux

	lock  sync.RWMutex
	ctx   context.Context
	wg    sync.WaitGroup
	wsSrv websocket.Server
}

// NewServer creates a Server.
func NewServer(mux *comm.RegistrarMux) *Server {
	s := &Server{Mux: mux}
	s.wsSrv.Handler = s.serve
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lock.RLock()
	ctx := s.ctx
	s.lock.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		http.Error(w, "player not ready", http.StatusServiceUnavailable)
		return
	}
	s.wsSrv.ServeHTTP(w, r)
}

func (s *Server) serve(conn *websocket.Conn) {
	s.lock.RLock()
	ctx := s.ctx
	s.lock.RUnlock()
	conn.PayloadType = websocket.BinaryFrame
	s.wg.Add(1)
	defer s.wg.Done()
	glog.V(2).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	err := s.Mux.Serve(ctx, New(conn))
	glog.V(2).Infof("websocket client %s disconnected: %v", conn.Request().RemoteAddr, err)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	s.lock.Lock()
	s.ctx = ctx
	s.lock.Unlock()
	<-ctx.Done()
	s.wg.Wait()
	return ctx.Err()
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("websocket-server", s))
}

// Connector connects a player served by a Server directly.
type Connector struct {
	URL    string
	Origin string
	Ref    bridge.PlayerRef
}

// Discover implements bridge.Connector.
func (c *Connector) Discover(ctx context.Context) ([]bridge.PlayerInfo, error) {
	return []bridge.PlayerInfo{{Ref: c.Ref}}, nil
}

// Connect implements bridge.Connector.
func (c *Connector) Connect(ctx context.Context, ref bridge.PlayerRef) (bridge.Conn, error) {
	origin := c.Origin
	if origin == "" {
		origin = "http://localhost/"
	}
	config, err := websocket.NewConfig(c.URL, origin)
	if err != nil {
		return nil, err
	}
	ws, err := config.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	conn := comm.NewConn(New(ws))
	go conn.Run(context.Background())
	return conn, nil
}

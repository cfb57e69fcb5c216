package stream

import (
	"context"
	"net"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/bridge"
	"github.com/robotalks/mp3.go/pkg/bridge/comm"
	fx "github.com/robotalks/mp3.go/pkg/framework"
)

// Server accepts TCP clients, each served by a Registrar in Mux.
type Server struct {
	Addr string
	Mux  *comm.RegistrarMux

	lock     sync.Mutex
	listener net.Listener
}

// NewServer creates a Server.
func NewServer(addr string, mux *comm.RegistrarMux) *Server {
	return &Server{Addr: addr, Mux: mux}
}

// Listen starts listening, Run calls it if not yet listening.
func (s *Server) Listen() (net.Addr, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.Addr)
		if err != nil {
			return nil, err
		}
		s.listener = ln
		glog.Infof("stream bridge listening on %s", ln.Addr())
	}
	return s.listener.Addr(), nil
}

// Run implements Runnable. It must be added to the Loop running
// the player.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	var wg sync.WaitGroup
	defer wg.Wait()
	return fx.RunWithContextCloser(ctx, s.listener, func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				return err
			}
			glog.V(2).Infof("stream client %s connected", conn.RemoteAddr())
			wg.Add(1)
			go func(conn net.Conn) {
				defer wg.Done()
				err := s.Mux.Serve(ctx, New(conn))
				glog.V(2).Infof("stream client %s disconnected: %v", conn.RemoteAddr(), err)
			}(conn)
		}
	})
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("stream-server", s))
}

// Connector connects a player served by a Server directly.
type Connector struct {
	Addr string
	Ref  bridge.PlayerRef
}

// Discover implements bridge.Connector.
func (c *Connector) Discover(ctx context.Context) ([]bridge.PlayerInfo, error) {
	return []bridge.PlayerInfo{{Ref: c.Ref}}, nil
}

// Connect implements bridge.Connector. The ref is ignored as
// the address identifies the player.
func (c *Connector) Connect(ctx context.Context, ref bridge.PlayerRef) (bridge.Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, err
	}
	conn := comm.NewConn(New(nc))
	go conn.Run(context.Background())
	return conn, nil
}

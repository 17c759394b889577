package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	"github.com/robotalks/wheelphone.go/pkg/l1/comm"
)

// Defaults.
const (
	DefaultPath = "/l1"
	// InfoSuffix is appended to the websocket path to serve
	// ControllerInfo as JSON.
	InfoSuffix = "/info"
)

// Server implements l1.Registrar by accepting websocket connections.
// Events are broadcasted to all connected clients.
type Server struct {
	Addr string
	Path string
	Info l1.ControllerInfo
	// Listener is used instead of listening on Addr if set.
	Listener net.Listener

	lock  sync.Mutex
	ctx   context.Context
	conns map[*comm.Registrar]*websocket.Conn
}

// NewServer creates a Server.
func NewServer(addr string, info l1.ControllerInfo) *Server {
	return &Server{Addr: addr, Path: DefaultPath, Info: info}
}

func (s *Server) path() string {
	if s.Path == "" {
		return DefaultPath
	}
	return s.Path
}

// Handler returns the http.Handler serving websocket and info.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.path(), websocket.Handler(s.serveConn))
	mux.HandleFunc(s.path()+InfoSuffix, s.serveInfo)
	return mux
}

// SendEvent implements l1.Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	s.lock.Lock()
	regs := make([]*comm.Registrar, 0, len(s.conns))
	for reg := range s.conns {
		regs = append(regs, reg)
	}
	s.lock.Unlock()
	var errs fx.AggregatedError
	for _, reg := range regs {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln := s.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.Addr); err != nil {
			return err
		}
	}
	s.lock.Lock()
	s.ctx = ctx
	s.lock.Unlock()
	glog.Infof("websocket serving at %s%s", ln.Addr(), s.path())
	srv := &http.Server{Handler: s.Handler()}
	return fx.RunWithContextCancel(ctx, func() {
		srv.Close()
		s.closeAll()
	}, func() error {
		return srv.Serve(ln)
	})
}

func (s *Server) closeAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) serveInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode([]l1.ControllerInfo{s.Info})
}

func (s *Server) serveConn(conn *websocket.Conn) {
	defer conn.Close()
	reg := &comm.Registrar{}
	reg.Init(New(conn))

	s.lock.Lock()
	ctx := s.ctx
	if ctx != nil {
		if s.conns == nil {
			s.conns = make(map[*comm.Registrar]*websocket.Conn)
		}
		s.conns[reg] = conn
	}
	s.lock.Unlock()
	if ctx == nil {
		return
	}

	remote := conn.Request().RemoteAddr
	glog.Infof("websocket client %s connected", remote)
	err := reg.Serve(ctx)
	glog.Infof("websocket client %s disconnected: %v", remote, err)

	s.lock.Lock()
	delete(s.conns, reg)
	s.lock.Unlock()
}

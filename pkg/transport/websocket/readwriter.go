// Package websocket carries the protocol over websocket.
package websocket

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/transport"
)

// DefaultPath is the HTTP path of the websocket endpoint.
const DefaultPath = "/feagi"

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// SetWriteDeadline implements transport.WriteDeadliner.
func (p *ReadWriter) SetWriteDeadline(t time.Time) error {
	return (*websocket.Conn)(p).SetWriteDeadline(t)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Server accepts brain connections over websocket.
type Server struct {
	Addr string
	Path string
	*transport.Pipe

	listening chan net.Addr
}

// NewServer creates a Server.
func NewServer(addr string) *Server {
	return &Server{
		Addr:      addr,
		Path:      DefaultPath,
		Pipe:      transport.NewPipe(),
		listening: make(chan net.Addr, 1),
	}
}

// Listening delivers the bound address once Run is listening.
func (s *Server) Listening() <-chan net.Addr {
	return s.listening
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.Path, websocket.Handler(func(conn *websocket.Conn) {
		glog.Infof("brain connected from %s", conn.Request().RemoteAddr)
		err := s.Serve(ctx, New(conn))
		glog.Infof("brain %s disconnected: %v", conn.Request().RemoteAddr, err)
	}))
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("websocket listening on %s%s", ln.Addr(), s.Path)
	s.listening <- ln.Addr()
	server := &http.Server{Handler: mux}
	return fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}

// Dial connects to a device websocket endpoint, e.g. ws://host:port/feagi.
func Dial(url string) (*websocket.Conn, error) {
	return websocket.Dial(url, "", "http://localhost/")
}

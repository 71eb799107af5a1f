// Package stream carries the protocol over TCP.
package stream

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/transport"
)

// ReadSize is the max number of bytes returned by one ReadPacket.
const ReadSize = 512

// ReadWriter implements PacketReadWriter over a byte stream. Packets
// are whatever a single Read returns, the protocol does its own framing.
type ReadWriter struct {
	io.ReadWriter
	buf []byte
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s, buf: make([]byte, ReadSize)}
}

// ReadPacket implements PacketReader. The returned slice is reused by
// the next call.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	n, err := p.Read(p.buf)
	if n > 0 {
		return p.buf[:n], nil
	}
	return nil, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	_, err := p.Write(pkt)
	return err
}

// SetWriteDeadline implements transport.WriteDeadliner when the
// underlying stream supports deadlines.
func (p *ReadWriter) SetWriteDeadline(t time.Time) error {
	if d, ok := p.ReadWriter.(transport.WriteDeadliner); ok {
		return d.SetWriteDeadline(t)
	}
	return nil
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Server accepts brain connections on a TCP address. The latest
// connection replaces the previous one.
type Server struct {
	Addr string
	*transport.Pipe

	listening chan net.Addr
}

// NewServer creates a Server.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, Pipe: transport.NewPipe(), listening: make(chan net.Addr, 1)}
}

// Listening delivers the bound address once Run is listening.
func (s *Server) Listening() <-chan net.Addr {
	return s.listening
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("listening on %s", ln.Addr())
	s.listening <- ln.Addr()
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			glog.Infof("brain connected from %s", conn.RemoteAddr())
			go func() {
				err := s.Serve(ctx, New(conn))
				glog.Infof("brain %s disconnected: %v", conn.RemoteAddr(), err)
			}()
		}
	})
}

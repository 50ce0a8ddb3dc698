package proxyserver

import (
	"context"
	"io"
	"net"
	"net/rpc"

	log "github.com/sirupsen/logrus"

	"github.com/zbxtools/zbxcall/modules/call"
	calltypes "github.com/zbxtools/zbxcall/modules/call/types"
	"github.com/zbxtools/zbxcall/internal/proxy/types"
)

// Proxy struct of to rpc server
type Proxy struct {
	s *call.Service
}

// NewServer registers a Proxy bound to s on a new rpc server
func NewServer(s *call.Service) (*rpc.Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName("Proxy", &Proxy{s: s}); err != nil {
		return nil, err
	}
	return server, nil
}

// ServeConn serves calls on one connection until the peer hangs up
func ServeConn(conn io.ReadWriteCloser, s *call.Service) error {
	server, err := NewServer(s)
	if err != nil {
		return err
	}
	server.ServeConn(conn)
	return nil
}

// ServeTCP accepts connections on addr until ctx is done
func ServeTCP(ctx context.Context, addr string, s *call.Service) error {
	server, err := NewServer(s)
	if err != nil {
		return err
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	log.Infof("Serving net/rpc on %s", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go server.ServeConn(conn)
	}
}

// Call runs one request through the call service
func (p *Proxy) Call(req calltypes.CallRequest, resp *types.CallResponse) error {
	req.Transport = calltypes.TransportRPC
	out := p.s.Execute(context.Background(), req)
	r, err := types.NewCallResponse(out)
	if err != nil {
		return err
	}
	*resp = r
	return nil
}

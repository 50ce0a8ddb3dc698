package proxyclient

import (
	"fmt"
	"io"
	"net/rpc"

	"github.com/zbxtools/zbxcall/internal/dispatcher"
	"github.com/zbxtools/zbxcall/internal/proxy/types"
	calltypes "github.com/zbxtools/zbxcall/modules/call/types"
)

// Client is the connection to rpc server
type Client struct {
	c *rpc.Client
}

// ConnectRPCServer by a connection such as a pipe pair
func ConnectRPCServer(conn io.ReadWriteCloser) (*Client, error) {
	c := rpc.NewClient(conn)
	if c == nil {
		return nil, fmt.Errorf("Failed to connect rpc server")
	}
	return &Client{c: c}, nil
}

// Dial connects an rpc server listening on a TCP address
func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{c: c}, nil
}

// Call runs req on the server
func (c *Client) Call(req calltypes.CallRequest) (dispatcher.Outcome, error) {
	var resp types.CallResponse
	if err := c.c.Call("Proxy.Call", req, &resp); err != nil {
		return dispatcher.Outcome{}, err
	}
	return resp.Outcome()
}

// Close the connection
func (c *Client) Close() error {
	return c.c.Close()
}

package session

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// Endpoint returns the multiaddr of a TCP endpoint. address may be an IP,
// a host name or a complete multiaddr such as /ip4/127.0.0.1/tcp/5000,
// in which case port is ignored.
func Endpoint(address string, port int) (ma.Multiaddr, error) {
	if strings.HasPrefix(address, "/") {
		return ma.NewMultiaddr(address)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("session: invalid port %d", port)
	}
	if ip := net.ParseIP(address); ip != nil {
		return manet.FromNetAddr(&net.TCPAddr{IP: ip, Port: port})
	}
	return ma.NewMultiaddr("/dns/" + address + "/tcp/" + strconv.Itoa(port))
}

// TCPDialer dials TCP transports.
type TCPDialer struct {
	Timeout time.Duration
}

func (d *TCPDialer) Dial(ctx context.Context, address string, port int) (Transport, error) {
	maddr, err := Endpoint(address, port)
	if err != nil {
		return nil, err
	}
	network, hostport, err := manet.DialArgs(maddr)
	if err != nil {
		return nil, err
	}
	nd := net.Dialer{Timeout: d.Timeout}
	raw, err := nd.DialContext(ctx, network, hostport)
	if err != nil {
		return nil, err
	}
	conn, err := manet.WrapNetConn(raw)
	if err != nil {
		raw.Close()
		return nil, err
	}
	return &TCPConn{Conn: conn, raw: raw}, nil
}

// TCPConn is a connected TCP transport.
type TCPConn struct {
	manet.Conn
	raw net.Conn
}

// CloseWrite shuts down the sending side of the connection.
func (c *TCPConn) CloseWrite() error {
	if tc, ok := c.raw.(*net.TCPConn); ok {
		return tc.CloseWrite()
	}
	return nil
}

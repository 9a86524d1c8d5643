// Package client implements the framed TCP client that speaks the same
// wire protocol as internal/server.
package client

import (
	"net"

	"github.com/ignite-kv/ignite/internal/protocol"
	"github.com/ignite-kv/ignite/pkg/errors"
)

// Client is a single TCP connection carrying request/response pairs
// strictly in order. It is not safe for concurrent use by multiple
// goroutines.
type Client struct {
	conn   net.Conn
	reader *protocol.FrameReader
	writer *protocol.FrameWriter
}

// Dial opens a TCP connection to addr and installs the request/response
// framing used by the server.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, errors.Io, "failed to connect").WithDetail("address", addr)
	}
	return &Client{
		conn:   conn,
		reader: protocol.NewFrameReader(conn),
		writer: protocol.NewFrameWriter(conn),
	}, nil
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	_, _, err := c.roundTrip(protocol.NewSetRequest(key, value))
	return err
}

// Get retrieves the live value for key. ok is false when the key is
// absent.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	return c.roundTrip(protocol.NewGetRequest(key))
}

// Remove deletes key. Removing an absent key returns an error.
func (c *Client) Remove(key string) error {
	_, _, err := c.roundTrip(protocol.NewRemoveRequest(key))
	return err
}

// Close closes the underlying connection. The client must not be used
// afterward.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return errors.Wrap(err, errors.Io, "failed to close connection")
	}
	return nil
}

func (c *Client) roundTrip(req protocol.Request) (value string, ok bool, err error) {
	if err := c.writer.WriteFrame(req); err != nil {
		return "", false, err
	}

	var resp protocol.Response
	if err := c.reader.ReadFrame(&resp); err != nil {
		return "", false, err
	}

	if resp.Err != "" {
		kind := errors.Kind(resp.ErrKind)
		if kind == "" {
			kind = errors.Other
		}
		return "", false, errors.New(kind, resp.Err).WithDetail("key", req.Key)
	}
	return resp.Ok, resp.Found, nil
}

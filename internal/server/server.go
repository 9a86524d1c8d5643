// Package server implements the TCP front-end: an accept loop that hands
// each connection a framed request/response handler backed by a cloned
// engine handle (or the shared handle, for engines that cannot be
// cloned), plus a self-connect shutdown protocol.
package server

import (
	"io"
	"net"
	"sync/atomic"

	"github.com/ignite-kv/ignite/internal/engine"
	"github.com/ignite-kv/ignite/internal/kvs"
	"github.com/ignite-kv/ignite/internal/protocol"
	"github.com/ignite-kv/ignite/pkg/errors"
	"go.uber.org/zap"
)

// Config encapsulates the parameters required to start a Server.
type Config struct {
	Engine  engine.Engine
	Logger  *zap.SugaredLogger
	Address string
}

// Server accepts framed TCP connections and dispatches their requests to a
// shared engine handle.
type Server struct {
	eng      engine.Engine
	log      *zap.SugaredLogger
	listener net.Listener
	running  atomic.Bool
}

// New binds a TCP listener on config.Address. The listener is open and
// accepting once New returns; call Serve to run the accept loop.
func New(config *Config) (*Server, error) {
	listener, err := net.Listen("tcp", config.Address)
	if err != nil {
		return nil, errors.Wrap(err, errors.Io, "failed to bind listener").WithDetail("address", config.Address)
	}

	s := &Server{
		eng:      config.Engine,
		log:      config.Logger,
		listener: listener,
	}
	s.running.Store(true)
	return s, nil
}

// Addr returns the address the listener is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until Shutdown is called. Each accepted
// connection is served by a dedicated goroutine. For the log-structured
// engine that goroutine drives its own clone of the engine handle, so
// requests on different connections never contend on the reader cache;
// other engines are shared as-is (see acquireHandle). Serve returns nil
// once the loop observes
// running=false.
func (s *Server) Serve() error {
	s.log.Infow("server accepting connections", "address", s.listener.Addr().String())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			return errors.Wrap(err, errors.Io, "accept failed")
		}

		if !s.running.Load() {
			conn.Close()
			return nil
		}

		go s.handleConn(conn)
	}
}

// Shutdown stops the accept loop gracefully: it marks the server as no
// longer running, then opens a connection to its own listener so the
// blocked Accept call returns and observes the flag. In-flight
// connections are left to drain on their own.
func (s *Server) Shutdown() {
	s.running.Store(false)

	conn, err := net.Dial("tcp", s.listener.Addr().String())
	if err != nil {
		s.log.Warnw("shutdown self-dial failed, accept loop may block until next connection", "error", err)
		return
	}
	conn.Close()

	if err := s.listener.Close(); err != nil {
		s.log.Warnw("failed to close listener during shutdown", "error", err)
	}
}

// handleConn serves one connection until the peer closes it or a frame
// error occurs, dispatching each decoded Request to the handle chosen by
// acquireHandle: a private clone where the engine supports it, otherwise
// the shared engine handle.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	eng, owned := acquireHandle(s.eng)
	if owned {
		defer eng.Close()
	}

	reader := protocol.NewFrameReader(conn)
	writer := protocol.NewFrameWriter(conn)

	for {
		var req protocol.Request
		if err := reader.ReadFrame(&req); err != nil {
			if err != io.EOF {
				s.log.Debugw("connection closed on read error", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}

		resp := s.dispatch(eng, req)
		if err := writer.WriteFrame(resp); err != nil {
			s.log.Debugw("connection closed on write error", "remote", conn.RemoteAddr(), "error", err)
			return
		}
	}
}

func (s *Server) dispatch(eng engine.Engine, req protocol.Request) protocol.Response {
	switch req.Type {
	case protocol.RequestSet:
		if err := eng.Set(req.Key, req.Value); err != nil {
			return errResponse(err)
		}
		return protocol.OkResponse()

	case protocol.RequestGet:
		value, found, err := eng.Get(req.Key)
		if err != nil {
			return errResponse(err)
		}
		return protocol.ValueResponse(value, found)

	case protocol.RequestRemove:
		if err := eng.Remove(req.Key); err != nil {
			return errResponse(err)
		}
		return protocol.OkResponse()

	default:
		return protocol.ErrResponse("unrecognized request type", string(errors.Other))
	}
}

func errResponse(err error) protocol.Response {
	return protocol.ErrResponse(err.Error(), string(errors.KindOf(err)))
}

// kvsCloner is satisfied by the log-structured engine, whose handles carry
// a private reader cache worth giving each connection its own copy of.
// The bolt-backed engine has no such per-handle state: its underlying
// database is already safe to share across goroutines, so connections
// using it share the one handle and never close it early.
type kvsCloner interface {
	Clone() *kvs.Store
}

// acquireHandle returns the engine handle a connection should use, and
// whether that handle is owned by the connection (and must be closed when
// it disconnects) as opposed to shared with the server's lifetime.
func acquireHandle(eng engine.Engine) (engine.Engine, bool) {
	if c, ok := eng.(kvsCloner); ok {
		return c.Clone(), true
	}
	return eng, false
}

// Package mcp serves the tool registry over the Model Context Protocol
// on stdio.
package mcp

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/kortex-labs/memory-enforce/internal/logger"
	"github.com/kortex-labs/memory-enforce/internal/tools"
)

var log = logger.ForComponent("mcp")

const defaultToolTimeout = 4 * time.Minute

type Server struct {
	registry    *tools.Registry
	toolTimeout time.Duration
}

func NewServer(registry *tools.Registry) *Server {
	return &Server{
		registry:    registry,
		toolTimeout: defaultToolTimeout,
	}
}

func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// stdioConn glues stdin and stdout into the ReadWriteCloser the
// jsonrpc2 stream wants.
type stdioConn struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (c stdioConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c stdioConn) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c stdioConn) Close() error {
	if err := c.in.Close(); err != nil {
		return err
	}
	return c.out.Close()
}

// ServeStdio speaks newline-delimited JSON-RPC on stdin/stdout until
// the client disconnects or the context ends.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, stdioConn{in: os.Stdin, out: os.Stdout})
}

func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(newHandler(s)))

	log.Info("mcp server listening", "tools", len(s.registry.Names()))

	select {
	case <-conn.DisconnectNotify():
		log.Info("mcp client disconnected")
		return nil
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
}

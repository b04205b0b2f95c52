// Package rpc is the local control channel: a unix socket that forwards
// newline-delimited trigger messages into the pipeline.
package rpc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/charmbracelet/log"

	"spytrap/internal/metrics"
	"spytrap/internal/pipeline"
)

// BindError is returned when the control socket cannot be set up.
type BindError struct {
	Path string
	Op   string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("control socket %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Server accepts control connections on a unix socket.
type Server struct {
	Path    string
	Logger  *log.Logger
	Metrics *metrics.Metrics

	ln *net.UnixListener
}

// Listen removes a stale socket at path, binds a new one and opens it to all
// local users.
func Listen(path string) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &BindError{Path: path, Op: "remove stale socket", Err: err}
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, &BindError{Path: path, Op: "bind", Err: err}
	}
	ln.SetUnlinkOnClose(true)

	if err := os.Chmod(path, 0o777); err != nil {
		ln.Close()
		return nil, &BindError{Path: path, Op: "chmod", Err: err}
	}

	return &Server{Path: path, Logger: log.Default(), ln: ln}, nil
}

// Close stops accepting connections and removes the socket.
func (s *Server) Close() error {
	return s.ln.Close()
}

// Serve forwards every line received on any connection to out, without its
// newline. Nothing is ever written back. It returns when ctx is cancelled or
// the listener fails; a broken connection is only logged.
func (s *Server) Serve(ctx context.Context, out chan<- string) error {
	if s.Metrics == nil {
		s.Metrics = metrics.New(nil)
	}
	logger := s.Logger.With("stage", "rpc")

	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	logger.Info("Binding rpc socket", "path", s.Path)

	for {
		conn, err := s.ln.AcceptUnix()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept on %s: %w", s.Path, err)
		}

		go func() {
			if err := s.handle(ctx, conn, out, logger); err != nil && ctx.Err() == nil {
				logger.Warn("Control connection failed", "err", err)
			}
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn *net.UnixConn, out chan<- string, logger *log.Logger) error {
	defer conn.Close()

	// unblock the read when the server shuts down
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger.Debug("Got connection on unix domain socket")
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		logger.Info("Control message", "value", line)
		s.Metrics.ControlMessages.Inc()
		if err := pipeline.Send(ctx, out, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Send connects to the control socket at path and delivers value as one line.
func Send(ctx context.Context, path, value string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(value + "\n")); err != nil {
		return fmt.Errorf("failed to send to %s: %w", path, err)
	}
	return nil
}

package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketPath keeps the path well under the sun_path limit.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "spytrap")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func serve(t *testing.T, path string) (chan string, context.CancelFunc, chan error) {
	t.Helper()

	srv, err := Listen(path)
	require.NoError(t, err)
	srv.Logger = log.New(io.Discard)

	out := make(chan string, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, out) }()
	t.Cleanup(cancel)
	return out, cancel, done
}

func receive(t *testing.T, out <-chan string) string {
	t.Helper()
	select {
	case v := <-out:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no message forwarded")
		return ""
	}
}

func TestSendForwardsOneLine(t *testing.T) {
	path := socketPath(t)
	out, _, _ := serve(t, path)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("rotate\n"))
	require.NoError(t, err)
	assert.Equal(t, "rotate", receive(t, out))

	// nothing is written back
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	n, err := conn.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	select {
	case extra := <-out:
		t.Fatalf("unexpected message %q", extra)
	default:
	}
}

func TestSendClient(t *testing.T) {
	path := socketPath(t)
	out, _, _ := serve(t, path)

	require.NoError(t, Send(context.Background(), path, "hello"))
	require.NoError(t, Send(context.Background(), path, "again"))

	got := []string{receive(t, out), receive(t, out)}
	assert.ElementsMatch(t, []string{"hello", "again"}, got)
}

func TestMultipleLinesPerConnection(t *testing.T) {
	path := socketPath(t)
	out, _, _ := serve(t, path)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	_, err = conn.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	conn.Close()

	assert.Equal(t, "one", receive(t, out))
	assert.Equal(t, "two", receive(t, out))
}

func TestBrokenConnectionIsDropped(t *testing.T) {
	path := socketPath(t)
	out, _, done := serve(t, path)

	bad, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer bad.Close()
	// longer than the scanner's 64 KiB token limit
	_, _ = bad.Write([]byte(strings.Repeat("x", 70*1024) + "\n"))

	// the server hangs up on the broken connection only
	require.NoError(t, bad.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = bad.Read(make([]byte, 1))
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection was not closed")
	}

	require.NoError(t, Send(context.Background(), path, "rotate"))
	assert.Equal(t, "rotate", receive(t, out))

	select {
	case err := <-done:
		t.Fatalf("serve returned: %v", err)
	default:
	}
}

func TestListenRemovesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	srv, err := Listen(path)
	require.NoError(t, err)
	defer srv.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, info.Mode().Type())
	assert.Equal(t, os.FileMode(0o777), info.Mode().Perm())
}

func TestListenBindError(t *testing.T) {
	path := filepath.Join(socketPath(t)+".d", "missing", "s.sock")

	_, err := Listen(path)
	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, path, bindErr.Path)
}

func TestServeStopsOnCancel(t *testing.T) {
	path := socketPath(t)
	_, cancel, done := serve(t, path)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestSendWithoutServer(t *testing.T) {
	err := Send(context.Background(), socketPath(t), "rotate")
	assert.Error(t, err)
}

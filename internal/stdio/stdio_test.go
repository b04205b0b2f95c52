package stdio

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed(t *testing.T) {
	out := make(chan string, 8)
	require.NoError(t, Feed(context.Background(), strings.NewReader("a\nb\n\nc"), out))
	close(out)

	var got []string
	for l := range out {
		got = append(got, l)
	}
	assert.Equal(t, []string{"a", "b", "", "c"}, got)
}

func TestFeedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Feed(ctx, strings.NewReader("a\n"), make(chan string))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrint(t *testing.T) {
	in := make(chan string, 2)
	in <- "[!] one"
	in <- "[+] two"
	close(in)

	var buf bytes.Buffer
	require.NoError(t, Print(context.Background(), &buf, in))
	assert.Equal(t, "[!] one\n[+] two\n", buf.String())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPrintWriteError(t *testing.T) {
	in := make(chan string, 1)
	in <- "x"
	assert.Error(t, Print(context.Background(), brokenWriter{}, in))
}

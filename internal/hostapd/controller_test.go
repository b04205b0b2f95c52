package hostapd

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spytrap/internal/metrics"
)

type countingRestarter struct {
	calls int
	err   error
}

func (r *countingRestarter) Restart(context.Context) error {
	r.calls++
	return r.err
}

func newTestController(t *testing.T, restarter Restarter) *Controller {
	t.Helper()
	gen, err := NewGenerator(DefaultSSID, DefaultPassphraseLength, rand.NewPCG(1, 2))
	require.NoError(t, err)

	return &Controller{
		ConfigPath: filepath.Join(t.TempDir(), "hostapd.conf"),
		Radio:      DefaultRadio(),
		Generator:  gen,
		Restarter:  restarter,
		Logger:     log.New(io.Discard),
		Metrics:    metrics.New(nil),
	}
}

func TestRunClosedTriggersAnnouncesOnce(t *testing.T) {
	restarter := &countingRestarter{}
	c := newTestController(t, restarter)

	triggers := make(chan string)
	close(triggers)
	display := make(chan string, 4)

	require.NoError(t, c.Run(context.Background(), triggers, display))
	close(display)

	var lines []string
	for l := range display {
		lines = append(lines, l)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, c.Identity().Announcement(), lines[0])
	assert.True(t, strings.HasPrefix(lines[0], `[+] "Starbucks WiFi" (pw: `))
	assert.Equal(t, Terminated, c.State())
	assert.Equal(t, 1, restarter.calls)
}

func TestRunRotatesPerTrigger(t *testing.T) {
	c := newTestController(t, &countingRestarter{})

	triggers := make(chan string, 2)
	triggers <- "rotate"
	triggers <- "rotate"
	close(triggers)
	display := make(chan string, 4)

	require.NoError(t, c.Run(context.Background(), triggers, display))
	close(display)

	seen := map[string]bool{}
	for l := range display {
		seen[l] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Metrics.Rotations))

	data, err := os.ReadFile(c.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wpa_passphrase="+c.Identity().Passphrase+"\n")
}

func TestRunRestartFailureIsNotFatal(t *testing.T) {
	restarter := &countingRestarter{err: errors.New("unit hostapd.service not found")}
	c := newTestController(t, restarter)

	triggers := make(chan string)
	close(triggers)
	display := make(chan string, 1)

	require.NoError(t, c.Run(context.Background(), triggers, display))
	assert.Len(t, display, 1)
	assert.Equal(t, 1, restarter.calls)
}

func TestRunWriteFailureIsFatal(t *testing.T) {
	restarter := &countingRestarter{}
	c := newTestController(t, restarter)
	c.ConfigPath = filepath.Join(t.TempDir(), "missing", "hostapd.conf")

	err := c.Run(context.Background(), make(chan string), make(chan string, 1))
	require.Error(t, err)
	assert.Equal(t, 0, restarter.calls)
	assert.Equal(t, Terminated, c.State())
}

func TestRunDisplayGoneIsFatal(t *testing.T) {
	c := newTestController(t, &countingRestarter{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Run(ctx, make(chan string), make(chan string))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Terminated, c.State())
}

func TestRunIncompleteController(t *testing.T) {
	var zero Controller
	assert.NotPanics(t, func() {
		assert.Error(t, zero.Run(context.Background(), nil, nil))
	})

	c := newTestController(t, nil)
	assert.NotPanics(t, func() {
		assert.ErrorContains(t, c.Run(context.Background(), nil, nil), "no service restarter")
	})
	_, err := os.Stat(c.ConfigPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerator(t *testing.T) {
	a, err := NewGenerator("cafe", 12, rand.NewPCG(7, 7))
	require.NoError(t, err)
	b, err := NewGenerator("cafe", 12, rand.NewPCG(7, 7))
	require.NoError(t, err)

	id := a.Next()
	assert.Equal(t, id, b.Next())
	assert.Equal(t, "cafe", id.SSID)
	assert.Len(t, id.Passphrase, 12)
	assert.Equal(t, "", strings.Trim(id.Passphrase, passphraseCharset))
	assert.NotEqual(t, id, a.Next())

	_, err = NewGenerator("cafe", 7, nil)
	assert.Error(t, err)
	_, err = NewGenerator("", 10, nil)
	assert.Error(t, err)
}

func TestValidateSSID(t *testing.T) {
	tests := []struct {
		ssid    string
		wantErr bool
	}{
		{"Starbucks WiFi", false},
		{strings.Repeat("a", 32), false},
		{strings.Repeat("a", 33), true},
		{"", true},
		{"evil\nwpa=0", true},
		{"tab\there", true},
	}
	for _, tt := range tests {
		err := ValidateSSID(tt.ssid)
		if tt.wantErr {
			assert.Error(t, err, tt.ssid)
		} else {
			assert.NoError(t, err, tt.ssid)
		}
	}
}

func TestValidatePassphrase(t *testing.T) {
	assert.NoError(t, ValidatePassphrase("abcdefgh"))
	assert.NoError(t, ValidatePassphrase(strings.Repeat("x", 63)))
	assert.Error(t, ValidatePassphrase("short"))
	assert.Error(t, ValidatePassphrase(strings.Repeat("x", 64)))
	assert.Error(t, ValidatePassphrase("abcdefgh\n"))
}

func TestRenderConfig(t *testing.T) {
	radio := Radio{Interface: "wlan2", CountryCode: "US", HWMode: "a", Channel: 36}
	data, err := RenderConfig(radio, Identity{SSID: "Airport", Passphrase: "correcthorse"})
	require.NoError(t, err)

	conf := string(data)
	for _, want := range []string{
		"interface=wlan2\n",
		"ssid=Airport\n",
		"country_code=US\n",
		"hw_mode=a\n",
		"channel=36\n",
		"wpa=2\n",
		"wpa_passphrase=correcthorse\n",
		"wpa_key_mgmt=WPA-PSK\n",
		"rsn_pairwise=CCMP\n",
		"wmm_enabled=1\n",
	} {
		assert.Contains(t, conf, want)
	}

	_, err = RenderConfig(radio, Identity{SSID: "Airport", Passphrase: "short"})
	assert.Error(t, err)
}

func TestWriteConfigMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostapd.conf")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteConfig(path, DefaultRadio(), Identity{SSID: DefaultSSID, Passphrase: "abcdefghij"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "interface=wlan1\n"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "configuring", Configuring.String())
	assert.Equal(t, "waiting", WaitingForTrigger.String())
	assert.Equal(t, "state(9)", State(9).String())
}

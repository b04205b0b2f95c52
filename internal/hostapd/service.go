package hostapd

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Restarter makes the access point service pick up a new configuration.
type Restarter interface {
	Restart(ctx context.Context) error
}

// Systemctl restarts a systemd unit.
type Systemctl struct {
	Unit string
}

// Restart runs systemctl restart on the unit. Linux only.
func (s Systemctl) Restart(ctx context.Context) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("service restart not implemented for %s", runtime.GOOS)
	}

	unit := s.Unit
	if unit == "" {
		unit = "hostapd"
	}
	cmd := exec.CommandContext(ctx, "systemctl", "restart", unit)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to restart %s: %v (%s)", unit, err, output)
	}
	return nil
}

// RestartFunc adapts a function to Restarter.
type RestartFunc func(ctx context.Context) error

func (f RestartFunc) Restart(ctx context.Context) error { return f(ctx) }

// SetIPForwarding toggles the kernel's IPv4 forwarding so hotspot clients
// can reach the uplink. Linux only.
func SetIPForwarding(ctx context.Context, enabled bool) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("ip forwarding not implemented for %s", runtime.GOOS)
	}

	value := "0"
	if enabled {
		value = "1"
	}
	cmd := exec.CommandContext(ctx, "sysctl", "-w", "net.ipv4.ip_forward="+value)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to set ip forwarding: %v (%s)", err, output)
	}
	return nil
}

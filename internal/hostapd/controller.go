// Package hostapd drives the access point: it rotates the WPA2 identity,
// writes the hostapd configuration and announces the credentials.
package hostapd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"spytrap/internal/metrics"
	"spytrap/internal/pipeline"
)

// State is a phase of the controller loop.
type State int32

const (
	Configuring State = iota
	Announcing
	WaitingForTrigger
	Terminated
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Announcing:
		return "announcing"
	case WaitingForTrigger:
		return "waiting"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Controller owns the hotspot identity. It is configured once per trigger.
type Controller struct {
	ConfigPath string
	Radio      Radio
	Generator  *Generator
	Restarter  Restarter
	Logger     *log.Logger
	Metrics    *metrics.Metrics

	state   atomic.Int32
	current Identity
}

// NewController returns a controller with the default radio, SSID and
// systemd restarter.
func NewController(configPath string, logger *log.Logger, m *metrics.Metrics) *Controller {
	gen, _ := NewGenerator(DefaultSSID, DefaultPassphraseLength, nil)
	if logger == nil {
		logger = log.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Controller{
		ConfigPath: configPath,
		Radio:      DefaultRadio(),
		Generator:  gen,
		Restarter:  Systemctl{Unit: "hostapd"},
		Logger:     logger.With("stage", "hotspot"),
		Metrics:    m,
	}
}

// State reports the current phase.
func (c *Controller) State() State { return State(c.state.Load()) }

// Identity returns the identity most recently written.
func (c *Controller) Identity() Identity { return c.current }

func (c *Controller) enter(s State) {
	c.Logger.Debug("Hotspot state", "state", s)
	c.state.Store(int32(s))
}

// Run configures and announces a fresh identity, then repeats for every
// trigger. It returns nil once triggers is closed. A failed configuration
// write or a vanished display is fatal; a failed service restart is not.
func (c *Controller) Run(ctx context.Context, triggers <-chan string, display chan<- string) error {
	if c.Generator == nil {
		return errors.New("hotspot controller has no identity generator")
	}
	if c.Restarter == nil {
		return errors.New("hotspot controller has no service restarter")
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New(nil)
	}

	for {
		c.enter(Configuring)
		id := c.Generator.Next()

		c.Logger.Info("Writing hostapd config", "path", c.ConfigPath, "interface", c.Radio.Interface)
		if err := WriteConfig(c.ConfigPath, c.Radio, id); err != nil {
			c.enter(Terminated)
			return err
		}
		c.current = id
		c.Metrics.Rotations.Inc()

		c.Logger.Info("Restarting hostapd")
		if err := c.Restarter.Restart(ctx); err != nil {
			c.Logger.Warn("Failed to restart hostapd", "err", err)
		}

		c.enter(Announcing)
		if err := pipeline.Send(ctx, display, id.Announcement()); err != nil {
			c.enter(Terminated)
			return err
		}

		c.enter(WaitingForTrigger)
		select {
		case <-ctx.Done():
			c.enter(Terminated)
			return ctx.Err()
		case trigger, ok := <-triggers:
			if !ok {
				c.enter(Terminated)
				return nil
			}
			c.Logger.Info("Rotating hotspot identity", "trigger", trigger)
		}
	}
}

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"spytrap/internal/capture"
	"spytrap/internal/display"
	"spytrap/internal/hostapd"
	"spytrap/internal/ioc"
	"spytrap/internal/match"
	"spytrap/internal/metrics"
	"spytrap/internal/pipeline"
	"spytrap/internal/rpc"
	"spytrap/internal/stdio"
	"spytrap/internal/tui"
)

// builtinScreen selects the terminal UI instead of an external program.
const builtinScreen = "tui"

// Assembler wires components into pipeline stages for one subcommand.
type Assembler struct {
	app     *App
	metrics *metrics.Metrics
}

// NewAssembler creates a new assembler
func NewAssembler(app *App) *Assembler {
	return &Assembler{app: app, metrics: metrics.New(nil)}
}

// Start runs capture, match, control, hotspot and screen together.
func (a *Assembler) Start(c *StartCommand) error {
	format, _ := ioc.ParseFormat(c.Format)
	index, err := ioc.Load(c.Rules, format, a.app.logger)
	if err != nil {
		return err
	}

	server, err := rpc.Listen(c.Socket)
	if err != nil {
		return err
	}
	defer server.Close()
	server.Logger = a.app.logger
	server.Metrics = a.metrics

	controller, err := a.controller(&c.HotspotOptions)
	if err != nil {
		return err
	}

	restore, err := a.forwarding(&c.HotspotOptions)
	if err != nil {
		return err
	}
	defer restore()

	screen := make(chan string, pipeline.DisplayBuffer)
	control := make(chan string, pipeline.ControlBuffer)
	packets := make(chan string, pipeline.CaptureBuffer)

	stages := []pipeline.Stage{
		{Name: "rpc", Run: func(ctx context.Context) error { return server.Serve(ctx, control) }},
		{Name: "hotspot", Run: func(ctx context.Context) error { return controller.Run(ctx, control, screen) }},
		a.captureStage(&c.CaptureOptions, packets),
		{Name: "match", Run: func(ctx context.Context) error {
			return match.New(index, a.app.logger, a.metrics).Run(ctx, packets, screen)
		}},
		a.screenStage(&c.ScreenOptions, screen),
	}
	if c.MetricsAddr != "" {
		stages = append(stages, pipeline.Stage{Name: "metrics", Run: func(ctx context.Context) error {
			return a.metrics.Serve(ctx, c.MetricsAddr, a.app.logger)
		}})
	}
	return a.app.race(stages...)
}

// Sniff prints capture lines to stdout.
func (a *Assembler) Sniff(c *SniffCommand) error {
	packets := make(chan string, pipeline.CaptureBuffer)
	return a.app.race(
		a.captureStage(&c.CaptureOptions, packets),
		a.stdoutStage(packets),
	)
}

// Stream matches capture lines from stdin and prints alerts to stdout.
func (a *Assembler) Stream(c *StreamCommand) error {
	format, _ := ioc.ParseFormat(c.Format)
	index, err := ioc.Load(c.Rules, format, a.app.logger)
	if err != nil {
		return err
	}

	packets := make(chan string, pipeline.CaptureBuffer)
	alerts := make(chan string, pipeline.CaptureBuffer)
	stage := match.New(index, a.app.logger, a.metrics)

	return a.app.race(
		a.stdinStage(packets),
		pipeline.Feed("match", alerts, func(ctx context.Context) error {
			return stage.Run(ctx, packets, alerts)
		}),
		a.stdoutStage(alerts),
	)
}

// Screen forwards stdin to the display.
func (a *Assembler) Screen(c *ScreenCommand) error {
	lines := make(chan string, pipeline.CaptureBuffer)
	return a.app.race(
		a.stdinStage(lines),
		a.screenStage(&c.ScreenOptions, lines),
	)
}

// Hotspot rotates the access point for every stdin line and prints the
// announcements.
func (a *Assembler) Hotspot(c *HotspotCommand) error {
	controller, err := a.controller(&c.HotspotOptions)
	if err != nil {
		return err
	}

	restore, err := a.forwarding(&c.HotspotOptions)
	if err != nil {
		return err
	}
	defer restore()

	triggers := make(chan string, pipeline.ControlBuffer)
	announcements := make(chan string, pipeline.ControlBuffer)
	return a.app.race(
		a.stdinStage(triggers),
		pipeline.Feed("hotspot", announcements, func(ctx context.Context) error {
			return controller.Run(ctx, triggers, announcements)
		}),
		a.stdoutStage(announcements),
	)
}

func (a *Assembler) controller(o *HotspotOptions) (*hostapd.Controller, error) {
	gen, err := hostapd.NewGenerator(o.SSID, o.PassphraseLength, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to set up hotspot: %w", err)
	}

	c := hostapd.NewController(o.File, a.app.logger, a.metrics)
	c.Radio = o.radio()
	c.Generator = gen
	c.Restarter = hostapd.Systemctl{Unit: o.Unit}
	if a.app.Restarter != nil {
		c.Restarter = a.app.Restarter
	}
	return c, nil
}

// forwarding enables IPv4 forwarding when asked to and returns the function
// that turns it off again.
func (a *Assembler) forwarding(o *HotspotOptions) (func(), error) {
	if !o.IPForward {
		return func() {}, nil
	}
	if err := hostapd.SetIPForwarding(a.app.ctx, true); err != nil {
		return nil, err
	}
	return func() {
		if err := hostapd.SetIPForwarding(context.Background(), false); err != nil {
			a.app.logger.Warn("Failed to disable ip forwarding", "err", err)
		}
	}, nil
}

// captureStage is the sole producer of out.
func (a *Assembler) captureStage(o *CaptureOptions, out chan<- string) pipeline.Stage {
	cfg := o.config()
	cfg.Logger = a.app.logger.With("stage", "capture")
	cfg.Metrics = a.metrics
	return pipeline.Feed("capture", out, func(ctx context.Context) error {
		return capture.Run(ctx, cfg, out)
	})
}

func (a *Assembler) screenStage(o *ScreenOptions, in <-chan string) pipeline.Stage {
	if o.Screen == builtinScreen {
		return pipeline.Stage{Name: "screen", Run: func(ctx context.Context) error {
			return tui.Run(ctx, "spytrap", in, tea.WithInputTTY())
		}}
	}

	program := display.New(o.Screen, a.app.logger)
	program.Stdout = a.app.Stdout
	return pipeline.Stage{Name: "screen", Run: func(ctx context.Context) error {
		return program.Run(ctx, in)
	}}
}

func (a *Assembler) stdinStage(out chan<- string) pipeline.Stage {
	return pipeline.Feed("stdin", out, func(ctx context.Context) error {
		return stdio.Feed(ctx, a.app.Stdin, out)
	})
}

func (a *Assembler) stdoutStage(in <-chan string) pipeline.Stage {
	return pipeline.Stage{Name: "stdout", Run: func(ctx context.Context) error {
		return stdio.Print(ctx, a.app.Stdout, in)
	}}
}

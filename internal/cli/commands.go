// Package cli parses the command line and assembles each subcommand's
// pipeline.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"

	"spytrap/internal/hostapd"
	"spytrap/internal/pipeline"
	"spytrap/internal/rpc"
)

// App carries the global options and the process environment shared by
// every subcommand.
type App struct {
	LogLevel string `long:"log-level" env:"SPYTRAP_LOG" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Restarter overrides the systemd restart of the access point service.
	Restarter hostapd.Restarter

	ctx    context.Context
	logger *log.Logger
}

// NewApp returns an App bound to the process's standard streams.
func NewApp() *App {
	return &App{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run parses args and executes the selected subcommand. Parse errors and
// help requests come back as *flags.Error for the caller to print.
func (a *App) Run(ctx context.Context, args []string) error {
	parser := flags.NewParser(a, flags.HelpFlag|flags.PassDoubleDash)
	a.ctx = ctx

	parser.AddCommand("start", "Run the full rogue access point",
		"Capture traffic, match it against indicators, rotate the hotspot on control messages and show everything on a screen.",
		&StartCommand{app: a})
	parser.AddCommand("send", "Send a message to a running instance",
		"Connect to the control socket and deliver one line.",
		&SendCommand{app: a})
	parser.AddCommand("sniff", "Print capture lines",
		"Run the capture adapter and print one decoded packet per line.",
		&SniffCommand{app: a})
	parser.AddCommand("stream", "Match capture lines from stdin",
		"Read capture lines from stdin and print an alert for every known indicator.",
		&StreamCommand{app: a})
	parser.AddCommand("screen", "Show stdin on a display",
		"Forward lines from stdin to the display program.",
		&ScreenCommand{app: a})
	parser.AddCommand("hotspot", "Rotate the hotspot on every stdin line",
		"Write a fresh hostapd configuration at start and for every line read from stdin.",
		&HotspotCommand{app: a})

	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		if err := a.setupLogger(); err != nil {
			return err
		}
		return cmd.Execute(args)
	}

	_, err := parser.ParseArgs(args)
	return err
}

func (a *App) setupLogger() error {
	level, err := log.ParseLevel(a.LogLevel)
	if err != nil {
		return err
	}
	a.logger = log.NewWithOptions(a.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "spytrap",
	})
	return nil
}

// race runs stages under the app's context.
func (a *App) race(stages ...pipeline.Stage) error {
	return pipeline.Race(a.ctx, a.logger, stages...)
}

// StartCommand runs every stage at once.
type StartCommand struct {
	app *App

	CaptureOptions
	IOCOptions
	HotspotOptions
	ScreenOptions
	SocketOptions

	MetricsAddr string `long:"metrics-addr" description:"Serve prometheus metrics on this address"`
}

// Validate validates the start options
func (c *StartCommand) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&c.CaptureOptions, &c.IOCOptions, &c.HotspotOptions, &c.ScreenOptions, &c.SocketOptions,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *StartCommand) Execute([]string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return NewAssembler(c.app).Start(c)
}

// SendCommand delivers one control message.
type SendCommand struct {
	app *App

	SocketOptions

	Args struct {
		Value string `positional-arg-name:"value" description:"Message to send"`
	} `positional-args:"yes" required:"yes"`
}

func (c *SendCommand) Execute([]string) error {
	if err := c.SocketOptions.Validate(); err != nil {
		return err
	}
	return rpc.Send(c.app.ctx, c.Socket, c.Args.Value)
}

// SniffCommand prints capture lines.
type SniffCommand struct {
	app *App

	CaptureOptions
}

func (c *SniffCommand) Execute([]string) error {
	if err := c.CaptureOptions.Validate(); err != nil {
		return err
	}
	return NewAssembler(c.app).Sniff(c)
}

// StreamCommand matches capture lines read from stdin.
type StreamCommand struct {
	app *App

	IOCOptions
}

func (c *StreamCommand) Execute([]string) error {
	if err := c.IOCOptions.Validate(); err != nil {
		return err
	}
	return NewAssembler(c.app).Stream(c)
}

// ScreenCommand forwards stdin to the display.
type ScreenCommand struct {
	app *App

	ScreenOptions
}

func (c *ScreenCommand) Execute([]string) error {
	if err := c.ScreenOptions.Validate(); err != nil {
		return err
	}
	return NewAssembler(c.app).Screen(c)
}

// HotspotCommand rotates the access point for every stdin line.
type HotspotCommand struct {
	app *App

	HotspotOptions
}

func (c *HotspotCommand) Execute([]string) error {
	if err := c.HotspotOptions.Validate(); err != nil {
		return err
	}
	return NewAssembler(c.app).Hotspot(c)
}

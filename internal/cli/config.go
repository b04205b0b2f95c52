package cli

import (
	"errors"
	"fmt"

	"spytrap/internal/capture"
	"spytrap/internal/hostapd"
	"spytrap/internal/ioc"
)

// CaptureOptions select the capture adapter.
type CaptureOptions struct {
	Device   string `short:"i" long:"device" description:"Network interface to capture from" default:"wlan0"`
	Backend  string `long:"backend" description:"Capture backend" choice:"sniffglue" choice:"tshark" choice:"pcap" default:"sniffglue"`
	Filter   string `long:"filter" description:"BPF capture filter (tshark and pcap backends)"`
	PcapFile string `long:"pcap-file" description:"Replay a capture file instead of a live device (pcap backend)"`
	Binary   string `long:"capture-bin" description:"Override the capture program"`
}

// Validate validates the capture options
func (o *CaptureOptions) Validate() error {
	backend, err := capture.ParseBackend(o.Backend)
	if err != nil {
		return err
	}
	if o.PcapFile != "" && backend != capture.BackendPcap {
		return fmt.Errorf("--pcap-file requires --backend pcap, got %s", backend)
	}
	if o.Device == "" && o.PcapFile == "" {
		return errors.New("a capture device is required")
	}
	return nil
}

func (o *CaptureOptions) config() capture.Config {
	cfg := capture.DefaultConfig()
	cfg.Backend, _ = capture.ParseBackend(o.Backend)
	cfg.Device = o.Device
	cfg.Filter = o.Filter
	cfg.PcapFile = o.PcapFile
	cfg.Binary = o.Binary
	return cfg
}

// IOCOptions locate the indicator file.
type IOCOptions struct {
	Rules  string `short:"r" long:"rules" description:"Indicator file" default:"ioc.yaml"`
	Format string `long:"format" description:"Indicator file format" choice:"auto" choice:"yaml" choice:"list" default:"auto"`
}

// Validate validates the indicator options
func (o *IOCOptions) Validate() error {
	if o.Rules == "" {
		return errors.New("an indicator file is required")
	}
	_, err := ioc.ParseFormat(o.Format)
	return err
}

// HotspotOptions configure the access point.
type HotspotOptions struct {
	File             string `short:"f" long:"file" description:"hostapd configuration file to write" default:"hostapd.conf"`
	APInterface      string `long:"ap-interface" description:"Wireless interface hostapd serves on" default:"wlan1"`
	SSID             string `long:"ssid" description:"Network name to announce" default:"Starbucks WiFi"`
	Country          string `long:"country" description:"Regulatory country code" default:"DE"`
	Channel          int    `long:"channel" description:"Wireless channel" default:"11"`
	PassphraseLength int    `long:"passphrase-length" description:"Length of generated passphrases" default:"10"`
	Unit             string `long:"unit" description:"systemd unit restarted after each rotation" default:"hostapd"`
	IPForward        bool   `long:"ip-forward" description:"Enable IPv4 forwarding while running and disable it on exit"`
}

// Validate validates the hotspot options
func (o *HotspotOptions) Validate() error {
	if o.File == "" {
		return errors.New("a hostapd configuration path is required")
	}
	if o.APInterface == "" {
		return errors.New("an access point interface is required")
	}
	if err := hostapd.ValidateSSID(o.SSID); err != nil {
		return err
	}
	if len(o.Country) != 2 {
		return fmt.Errorf("country code must be two letters, got %q", o.Country)
	}
	if o.Channel <= 0 {
		return fmt.Errorf("channel must be > 0, got %d", o.Channel)
	}
	if o.PassphraseLength < 8 || o.PassphraseLength > 63 {
		return fmt.Errorf("passphrase length must be between 8 and 63, got %d", o.PassphraseLength)
	}
	return nil
}

func (o *HotspotOptions) radio() hostapd.Radio {
	r := hostapd.DefaultRadio()
	r.Interface = o.APInterface
	r.CountryCode = o.Country
	r.Channel = o.Channel
	return r
}

// ScreenOptions select the display sink.
type ScreenOptions struct {
	Screen string `short:"x" long:"screen" description:"Display program fed one line per message, or \"tui\" for the built-in view" default:"cat"`
}

// Validate validates the screen options
func (o *ScreenOptions) Validate() error {
	if o.Screen == "" {
		return errors.New("a display program is required")
	}
	return nil
}

// SocketOptions locate the control socket.
type SocketOptions struct {
	Socket string `short:"S" long:"socket" description:"Control socket path" default:"spytrap.sock"`
}

// Validate validates the socket options
func (o *SocketOptions) Validate() error {
	if o.Socket == "" {
		return errors.New("a control socket path is required")
	}
	return nil
}

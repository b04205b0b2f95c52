package capture

import (
	"context"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"

	"spytrap/internal/pipeline"
)

// runPcap captures in-process with gopacket, either live from a device or by
// replaying a pcap file. Packets that carry an observation are re-encoded as
// sniffglue lines. A finished replay returns nil; a live source never ends
// on its own.
func runPcap(ctx context.Context, cfg Config, out chan<- string) error {
	var src *gopacket.PacketSource
	live := cfg.PcapFile == ""

	if live {
		handle, err := pcap.OpenLive(cfg.Device, 65536, true, pcap.BlockForever)
		if err != nil {
			return fmt.Errorf("could not open handle: %w", err)
		}
		defer handle.Close()

		if cfg.Filter != "" {
			if err := handle.SetBPFFilter(cfg.Filter); err != nil {
				return fmt.Errorf("could not set BPF filter: %w", err)
			}
		}
		cfg.Logger.Info("Capturing in-process", "device", cfg.Device, "filter", cfg.Filter)
		src = gopacket.NewPacketSource(handle, handle.LinkType())
	} else {
		f, err := os.Open(cfg.PcapFile)
		if err != nil {
			return fmt.Errorf("could not open capture file: %w", err)
		}
		defer f.Close()

		r, err := pcapgo.NewReader(f)
		if err != nil {
			return fmt.Errorf("could not read capture file: %w", err)
		}
		cfg.Logger.Info("Replaying capture file", "path", cfg.PcapFile)
		src = gopacket.NewPacketSource(r, r.LinkType())
	}

	in := src.Packets()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-in:
			if !ok {
				if live {
					return fmt.Errorf("%w: packet source on %s closed", ErrCaptureExited, cfg.Device)
				}
				cfg.Logger.Info("Capture file exhausted", "path", cfg.PcapFile)
				return nil
			}

			frame, ok := FrameFromPacket(pkt)
			if !ok {
				continue
			}
			line, err := EncodeSniffglue(frame)
			if err != nil {
				cfg.Logger.Debug("Dropped packet", "err", err)
				continue
			}
			cfg.Metrics.CaptureLines.Inc()
			if err := pipeline.Send(ctx, out, string(line)); err != nil {
				return err
			}
		}
	}
}

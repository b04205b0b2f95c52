// Package match turns capture lines into alerts for hostnames found in the
// indicator index.
package match

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/charmbracelet/log"
	"golang.org/x/net/publicsuffix"

	"spytrap/internal/capture"
	"spytrap/internal/metrics"
	"spytrap/internal/models"
	"spytrap/internal/pipeline"
)

// Matcher reports whether a hostname is covered by a known indicator.
type Matcher interface {
	Matches(hostname string) bool
}

// Stage reads capture lines and emits one alert line per matching
// observation.
type Stage struct {
	index   Matcher
	logger  *log.Logger
	metrics *metrics.Metrics
	seen    *bloom.BloomFilter
}

// New builds a match stage. logger and m may be nil.
func New(index Matcher, logger *log.Logger, m *metrics.Metrics) *Stage {
	if logger == nil {
		logger = log.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Stage{
		index:   index,
		logger:  logger.With("stage", "match"),
		metrics: m,
		seen:    bloom.NewWithEstimates(100_000, 0.001),
	}
}

// Run consumes in until it is closed or ctx is done. It only fails when an
// alert cannot be delivered because the sink went away.
func (s *Stage) Run(ctx context.Context, in <-chan string, out chan<- string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-in:
			if !ok {
				return nil
			}
			for _, alert := range s.Check([]byte(line)) {
				if err := pipeline.Send(ctx, out, alert.Line()); err != nil {
					return err
				}
			}
		}
	}
}

// Check returns the alerts raised by one capture line.
func (s *Stage) Check(line []byte) []models.Alert {
	s.metrics.MatchedLines.Inc()

	frame, err := capture.Parse(line)
	if err != nil {
		s.metrics.ParseFailures.Inc()
		s.logger.Debug("Skipping capture line", "err", err)
		return nil
	}

	var alerts []models.Alert
	for _, obs := range frame.Observations() {
		s.metrics.Observations.WithLabelValues(obs.Source.String()).Inc()

		if !s.index.Matches(obs.Hostname) {
			firstSeen := !s.seen.TestAndAddString(obs.Hostname)
			if firstSeen {
				s.metrics.UniqueHostnames.Inc()
			}
			s.logger.Debug("Observed", "source", obs.Source, "hostname", obs.Hostname, "first_seen", firstSeen)
			continue
		}

		s.metrics.Alerts.WithLabelValues(obs.Source.String()).Inc()
		s.logger.Warn("Detected suspicious network activity",
			"source", obs.Source,
			"hostname", obs.Hostname,
			"domain", registrable(obs.Hostname),
		)
		alerts = append(alerts, models.NewAlert(obs))
	}
	return alerts
}

func registrable(hostname string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return hostname
	}
	return domain
}

// Package ioc loads indicator-of-compromise sources into a domain-suffix
// index. The on-disk schema is pluggable through Decoder; only strings that
// name a domain make it into the index.
package ioc

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/miekg/dns"

	"spytrap/internal/suffix"
)

// Format selects the decoder used for an IOC source.
type Format string

const (
	FormatAuto Format = "auto"
	FormatYAML Format = "yaml"
	FormatList Format = "list"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatYAML, FormatList:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unknown ioc format: %q", s)
	}
}

// resolve turns FormatAuto into a concrete format based on the file name.
func (f Format) resolve(path string) Format {
	if f != FormatAuto {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatList
	}
}

// Roles an indicator can play. They are logged during ingestion and then
// dropped: the index only answers whether a hostname is covered.
const (
	RoleWebsite      = "website"
	RoleDistribution = "distribution"
	RoleC2           = "c2"
	RoleListed       = "listed"
)

// Indicator is one domain-bearing value emitted by a Decoder.
type Indicator struct {
	Family string
	Role   string
	Value  string
}

// Decoder reads one IOC schema and emits every domain-bearing value in it.
type Decoder interface {
	Decode(r io.Reader, emit func(Indicator)) (records int, err error)
}

// DecoderFor returns the decoder for a concrete format.
func DecoderFor(f Format) (Decoder, error) {
	switch f {
	case FormatYAML:
		return yamlDecoder{}, nil
	case FormatList:
		return listDecoder{}, nil
	default:
		return nil, fmt.Errorf("no decoder for ioc format %q", f)
	}
}

// LoadError is returned when an IOC source is unreadable or malformed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load iocs from %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Stats summarises one ingestion run.
type Stats struct {
	Records  int
	Inserted int
	Skipped  int
}

// Load reads the IOC source at path and builds a fresh index from it.
func Load(path string, format Format, logger *log.Logger) (*suffix.Index, error) {
	if logger == nil {
		logger = log.Default()
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	idx := suffix.New()
	stats, err := Parse(f, format.resolve(path), idx, logger)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	logger.Info("Loaded known IOCs",
		"path", path,
		"records", stats.Records,
		"inserted", stats.Inserted,
		"skipped", stats.Skipped,
		"domains", idx.Count(),
	)
	return idx, nil
}

// Parse decodes r with the decoder for format and inserts every valid
// domain into idx.
func Parse(r io.Reader, format Format, idx *suffix.Index, logger *log.Logger) (Stats, error) {
	var stats Stats

	dec, err := DecoderFor(format)
	if err != nil {
		return stats, err
	}

	stats.Records, err = dec.Decode(r, func(ind Indicator) {
		value := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(ind.Value)), ".")
		if !IsDomain(value) {
			stats.Skipped++
			logger.Debug("Skipped ioc", "family", ind.Family, "role", ind.Role, "value", ind.Value)
			return
		}
		stats.Inserted++
		logger.Debug("Loaded ioc", "family", ind.Family, "role", ind.Role, "domain", value)
		idx.Insert(value)
	})
	return stats, err
}

// IsDomain reports whether s is a domain name with at least two labels.
// IP literals are rejected.
func IsDomain(s string) bool {
	if s == "" || net.ParseIP(s) != nil {
		return false
	}
	n, ok := dns.IsDomainName(s)
	return ok && n >= 2
}

package models

import (
	"fmt"
	"time"
)

// Source identifies which protocol field a hostname was observed in.
type Source int

const (
	SourceDNS Source = iota
	SourceTLS
	SourceHTTP
)

func (s Source) String() string {
	switch s {
	case SourceDNS:
		return "dns"
	case SourceTLS:
		return "tls"
	case SourceHTTP:
		return "http"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Observation is a hostname seen in a single decoded packet.
type Observation struct {
	Source   Source
	Hostname string
}

// Alert is an observation whose hostname is covered by the IOC index.
type Alert struct {
	Observation
	Timestamp time.Time
}

// NewAlert stamps an observation as an alert.
func NewAlert(obs Observation) Alert {
	return Alert{Observation: obs, Timestamp: time.Now()}
}

// Line renders the alert for the display sink.
func (a Alert) Line() string {
	return fmt.Sprintf("[!] detected(%s): %q", a.Source, a.Hostname)
}

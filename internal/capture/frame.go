package capture

import "spytrap/internal/models"

// Frame is one decoded packet: link, network and transport layer names plus
// at most one recognised application record.
type Frame struct {
	Link      string
	Network   string
	Transport string
	Record    Record
}

// Record is an application-layer record that may carry hostnames.
type Record interface {
	Observations() []models.Observation
}

// Observations returns the hostnames carried by the frame's application
// record, in the order they appear.
func (f Frame) Observations() []models.Observation {
	if f.Record == nil {
		return nil
	}
	return f.Record.Observations()
}

// Question is one entry of a DNS question section.
type Question struct {
	Type string
	Name string
}

// DNSRequest is a DNS query.
type DNSRequest struct {
	Questions []Question
}

func (r DNSRequest) Observations() []models.Observation {
	obs := make([]models.Observation, 0, len(r.Questions))
	for _, q := range r.Questions {
		obs = append(obs, models.Observation{Source: models.SourceDNS, Hostname: q.Name})
	}
	return obs
}

// ClientHello is the first message of a TLS handshake. Hostname holds the
// SNI extension and is empty when the client did not send one.
type ClientHello struct {
	Version  string
	Hostname string
}

func (c ClientHello) Observations() []models.Observation {
	if c.Hostname == "" {
		return nil
	}
	return []models.Observation{{Source: models.SourceTLS, Hostname: c.Hostname}}
}

// HTTPRequest is a plaintext HTTP request line plus its Host header.
type HTTPRequest struct {
	Method string
	URI    string
	Host   string
}

func (h HTTPRequest) Observations() []models.Observation {
	if h.Host == "" {
		return nil
	}
	return []models.Observation{{Source: models.SourceHTTP, Hostname: h.Host}}
}

package capture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// sniffglue --json prints every packet as nested externally tagged enums:
//
//	{"Ether":[{eth header},{"IPv4":[{ip header},{"UDP":[{udp header},{"DNS":{"Request":{...}}}]}]}]}
//
// Headers are ignored; only the tags and the application record matter.

var errNotVariant = errors.New("expected a single-key tagged object")

// questions are [type, name] pairs
type sniffglueQuestions struct {
	Questions [][]string `json:"questions"`
}

type sniffglueClientHello struct {
	Version  string  `json:"version,omitempty"`
	Hostname *string `json:"hostname"`
}

type sniffglueHTTP struct {
	Method  string  `json:"method,omitempty"`
	URI     string  `json:"uri,omitempty"`
	Version string  `json:"version,omitempty"`
	Host    *string `json:"host"`
}

// variant splits a tagged value into its tag and body. Unit variants are
// encoded as bare strings and come back with a nil body.
func variant(raw json.RawMessage) (string, json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return "", nil, err
		}
		return tag, nil, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", nil, err
	}
	return single(m)
}

func single(m map[string]json.RawMessage) (string, json.RawMessage, error) {
	if len(m) != 1 {
		return "", nil, errNotVariant
	}
	for tag, body := range m {
		return tag, body, nil
	}
	return "", nil, errNotVariant
}

// inner returns the payload half of a [header, payload] layer tuple.
func inner(body json.RawMessage) (json.RawMessage, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, err
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("expected [header, payload], got %d elements", len(pair))
	}
	return pair[1], nil
}

func parseSniffglue(top map[string]json.RawMessage) (Frame, error) {
	var f Frame

	tag, body, err := single(top)
	if err != nil {
		return f, err
	}
	f.Link = tag
	if tag != "Ether" {
		return f, nil
	}

	// network
	payload, err := inner(body)
	if err != nil {
		return f, fmt.Errorf("ether: %w", err)
	}
	if f.Network, body, err = variant(payload); err != nil {
		return f, fmt.Errorf("ether: %w", err)
	}
	if f.Network != "IPv4" && f.Network != "IPv6" {
		return f, nil
	}

	// transport
	if payload, err = inner(body); err != nil {
		return f, fmt.Errorf("%s: %w", f.Network, err)
	}
	if f.Transport, body, err = variant(payload); err != nil {
		return f, fmt.Errorf("%s: %w", f.Network, err)
	}
	if f.Transport != "TCP" && f.Transport != "UDP" {
		return f, nil
	}

	// application
	if payload, err = inner(body); err != nil {
		return f, fmt.Errorf("%s: %w", f.Transport, err)
	}
	app, body, err := variant(payload)
	if err != nil {
		// raw payloads such as {"Binary":[...]} still parse as variants,
		// anything else is malformed
		return f, fmt.Errorf("%s: %w", f.Transport, err)
	}

	f.Record, err = sniffglueRecord(f.Transport, app, body)
	return f, err
}

func sniffglueRecord(transport, app string, body json.RawMessage) (Record, error) {
	switch {
	case transport == "UDP" && app == "DNS":
		kind, body, err := variant(body)
		if err != nil {
			return nil, fmt.Errorf("dns: %w", err)
		}
		if kind != "Request" {
			return nil, nil
		}
		var q sniffglueQuestions
		if err := json.Unmarshal(body, &q); err != nil {
			return nil, fmt.Errorf("dns request: %w", err)
		}
		req := DNSRequest{Questions: make([]Question, 0, len(q.Questions))}
		for i, pair := range q.Questions {
			if len(pair) != 2 {
				return nil, fmt.Errorf("dns request: question %d has %d elements, want 2", i, len(pair))
			}
			req.Questions = append(req.Questions, Question{Type: pair[0], Name: pair[1]})
		}
		return req, nil

	case transport == "TCP" && app == "TLS":
		kind, body, err := variant(body)
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
		if kind != "ClientHello" {
			return nil, nil
		}
		var ch sniffglueClientHello
		if err := json.Unmarshal(body, &ch); err != nil {
			return nil, fmt.Errorf("tls client hello: %w", err)
		}
		hello := ClientHello{Version: ch.Version}
		if ch.Hostname != nil {
			hello.Hostname = *ch.Hostname
		}
		return hello, nil

	case transport == "TCP" && app == "HTTP":
		var h sniffglueHTTP
		if err := json.Unmarshal(body, &h); err != nil {
			return nil, fmt.Errorf("http: %w", err)
		}
		req := HTTPRequest{Method: h.Method, URI: h.URI}
		if h.Host != nil {
			req.Host = *h.Host
		}
		return req, nil
	}
	return nil, nil
}

// EncodeSniffglue renders a frame in sniffglue's --json shape with empty
// headers. The in-process capture backend uses it so every backend feeds the
// match stage the same wire format.
func EncodeSniffglue(f Frame) ([]byte, error) {
	if f.Link != "Ether" || (f.Network != "IPv4" && f.Network != "IPv6") ||
		(f.Transport != "TCP" && f.Transport != "UDP") {
		return nil, fmt.Errorf("cannot encode %s/%s/%s frame", f.Link, f.Network, f.Transport)
	}

	var app any
	switch r := f.Record.(type) {
	case DNSRequest:
		questions := make([][]string, 0, len(r.Questions))
		for _, q := range r.Questions {
			questions = append(questions, []string{q.Type, q.Name})
		}
		app = map[string]any{"DNS": map[string]any{"Request": sniffglueQuestions{Questions: questions}}}
	case ClientHello:
		ch := sniffglueClientHello{Version: r.Version}
		if r.Hostname != "" {
			ch.Hostname = &r.Hostname
		}
		app = map[string]any{"TLS": map[string]any{"ClientHello": ch}}
	case HTTPRequest:
		h := sniffglueHTTP{Method: r.Method, URI: r.URI, Version: "1.1"}
		if r.Host != "" {
			h.Host = &r.Host
		}
		app = map[string]any{"HTTP": h}
	default:
		return nil, fmt.Errorf("cannot encode record %T", f.Record)
	}

	header := struct{}{}
	transport := map[string]any{f.Transport: []any{header, app}}
	network := map[string]any{f.Network: []any{header, transport}}
	return json.Marshal(map[string]any{f.Link: []any{header, network}})
}

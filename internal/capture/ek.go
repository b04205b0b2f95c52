package capture

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

func parseEK(raw json.RawMessage) (Frame, error) {
	var l EkLayers
	if err := json.Unmarshal(raw, &l); err != nil {
		return Frame{}, fmt.Errorf("malformed ek layers: %w", err)
	}

	f := Frame{Link: "Ether"}

	switch {
	case len(l.IPSrc) > 0 || len(l.IPDst) > 0:
		f.Network = "IPv4"
	case len(l.IPv6Src) > 0 || len(l.IPv6Dst) > 0:
		f.Network = "IPv6"
	default:
		return f, nil
	}

	switch {
	case len(l.TCPSrcPort) > 0 || len(l.TCPDstPort) > 0:
		f.Transport = "TCP"
	case len(l.UDPSrcPort) > 0 || len(l.UDPDstPort) > 0:
		f.Transport = "UDP"
	default:
		return f, nil
	}

	switch {
	case len(l.DNSQueryName) > 0:
		if truthy(first(l.DNSResponse)) {
			return f, nil
		}
		req := DNSRequest{Questions: make([]Question, 0, len(l.DNSQueryName))}
		for i, name := range l.DNSQueryName {
			q := Question{Name: name}
			if i < len(l.DNSQueryType) {
				q.Type = qtype(l.DNSQueryType[i])
			}
			req.Questions = append(req.Questions, q)
		}
		f.Record = req

	case len(l.TLSSni) > 0 || first(l.TLSHandshakeType) == "1":
		f.Record = ClientHello{Version: first(l.TLSVersion), Hostname: first(l.TLSSni)}

	case len(l.HTTPHost) > 0 || truthy(first(l.HTTPRequest)):
		f.Record = HTTPRequest{
			Method: first(l.HTTPMethod),
			URI:    first(l.HTTPURI),
			Host:   first(l.HTTPHost),
		}
	}
	return f, nil
}

// qtype turns tshark's numeric query type into its mnemonic, as sniffglue
// prints it.
func qtype(v string) string {
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return v
	}
	if name, ok := dns.TypeToString[uint16(n)]; ok {
		return name
	}
	return v
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// truthy accepts the boolean spellings different tshark versions use.
func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true":
		return true
	}
	return false
}

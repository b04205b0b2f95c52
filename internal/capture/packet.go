package capture

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"net/http"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// FrameFromPacket maps a packet decoded by gopacket onto a Frame. It reports
// false when the packet carries no recognised application record.
func FrameFromPacket(pkt gopacket.Packet) (Frame, bool) {
	f := Frame{Link: "Ether"}

	switch {
	case pkt.Layer(layers.LayerTypeIPv4) != nil:
		f.Network = "IPv4"
	case pkt.Layer(layers.LayerTypeIPv6) != nil:
		f.Network = "IPv6"
	default:
		return f, false
	}

	if udpLayer := pkt.Layer(layers.LayerTypeUDP); udpLayer != nil {
		f.Transport = "UDP"
		dnsLayer := pkt.Layer(layers.LayerTypeDNS)
		if dnsLayer == nil {
			return f, false
		}
		msg := dnsLayer.(*layers.DNS)
		if msg.QR {
			return f, false
		}
		req := DNSRequest{Questions: make([]Question, 0, len(msg.Questions))}
		for _, q := range msg.Questions {
			req.Questions = append(req.Questions, Question{Type: q.Type.String(), Name: string(q.Name)})
		}
		f.Record = req
		return f, true
	}

	if tcpLayer := pkt.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		f.Transport = "TCP"
		payload := tcpLayer.(*layers.TCP).LayerPayload()
		if len(payload) == 0 {
			return f, false
		}
		if hello, ok := ParseClientHello(payload); ok {
			f.Record = hello
			return f, true
		}
		if req, ok := ParseHTTPRequest(payload); ok {
			f.Record = req
			return f, true
		}
	}
	return f, false
}

var tlsVersions = map[uint16]string{
	0x0300: "ssl3.0",
	0x0301: "tls1.0",
	0x0302: "tls1.1",
	0x0303: "tls1.2",
	0x0304: "tls1.3",
}

// ParseClientHello extracts the protocol version and SNI hostname from the
// first TLS record of a TCP segment.
func ParseClientHello(data []byte) (ClientHello, bool) {
	var hello ClientHello

	// record header: type(1) version(2) length(2)
	if len(data) < 5 || data[0] != 0x16 {
		return hello, false
	}
	data = data[5:]

	// handshake header: type(1) length(3)
	if len(data) < 4 || data[0] != 0x01 {
		return hello, false
	}
	body := data[4:]

	// client_version(2) random(32)
	if len(body) < 34 {
		return hello, false
	}
	hello.Version = tlsVersions[binary.BigEndian.Uint16(body)]
	p := 34

	// session_id
	if p+1 > len(body) {
		return hello, false
	}
	p += 1 + int(body[p])

	// cipher_suites
	if p+2 > len(body) {
		return hello, false
	}
	p += 2 + int(binary.BigEndian.Uint16(body[p:]))

	// compression_methods
	if p+1 > len(body) {
		return hello, false
	}
	p += 1 + int(body[p])

	// extensions are optional
	if p+2 > len(body) {
		return hello, p <= len(body)
	}
	end := p + 2 + int(binary.BigEndian.Uint16(body[p:]))
	if end > len(body) {
		end = len(body)
	}
	p += 2

	for p+4 <= end {
		extType := binary.BigEndian.Uint16(body[p:])
		extLen := int(binary.BigEndian.Uint16(body[p+2:]))
		p += 4
		if p+extLen > end {
			break
		}
		if extType == 0x0000 {
			hello.Hostname = serverName(body[p : p+extLen])
			break
		}
		p += extLen
	}
	return hello, true
}

// serverName returns the first host_name entry of a server_name extension.
func serverName(ext []byte) string {
	if len(ext) < 2 {
		return ""
	}
	list := ext[2:]
	for len(list) >= 3 {
		nameType := list[0]
		nameLen := int(binary.BigEndian.Uint16(list[1:]))
		list = list[3:]
		if nameLen > len(list) {
			return ""
		}
		if nameType == 0 {
			return string(list[:nameLen])
		}
		list = list[nameLen:]
	}
	return ""
}

var httpMethods = [][]byte{
	[]byte("GET "), []byte("POST "), []byte("HEAD "), []byte("PUT "),
	[]byte("DELETE "), []byte("OPTIONS "), []byte("PATCH "), []byte("CONNECT "),
}

// ParseHTTPRequest reads a request line and headers from the start of a TCP
// segment.
func ParseHTTPRequest(data []byte) (HTTPRequest, bool) {
	isRequest := false
	for _, m := range httpMethods {
		if bytes.HasPrefix(data, m) {
			isRequest = true
			break
		}
	}
	if !isRequest {
		return HTTPRequest{}, false
	}

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return HTTPRequest{}, false
	}
	return HTTPRequest{Method: req.Method, URI: req.RequestURI, Host: req.Host}, true
}

package capture

// EkPacket represents the top-level structure of a tshark -T ek output line.
type EkPacket struct {
	Timestamp string   `json:"timestamp"`
	Layers    EkLayers `json:"layers"`
}

// EkLayers holds the fields requested with -e. With -T ek, tshark flattens
// the structure and replaces dots with underscores; every field is a list.
type EkLayers struct {
	EthDst     []string `json:"eth_dst,omitempty"`
	IPSrc      []string `json:"ip_src,omitempty"`
	IPDst      []string `json:"ip_dst,omitempty"`
	IPv6Src    []string `json:"ipv6_src,omitempty"`
	IPv6Dst    []string `json:"ipv6_dst,omitempty"`
	TCPSrcPort []string `json:"tcp_srcport,omitempty"`
	TCPDstPort []string `json:"tcp_dstport,omitempty"`
	UDPSrcPort []string `json:"udp_srcport,omitempty"`
	UDPDstPort []string `json:"udp_dstport,omitempty"`

	DNSResponse  []string `json:"dns_flags_response,omitempty"`
	DNSQueryName []string `json:"dns_qry_name,omitempty"`
	DNSQueryType []string `json:"dns_qry_type,omitempty"`

	TLSHandshakeType []string `json:"tls_handshake_type,omitempty"`
	TLSVersion       []string `json:"tls_handshake_version,omitempty"`
	TLSSni           []string `json:"tls_handshake_extensions_server_name,omitempty"`

	HTTPRequest []string `json:"http_request,omitempty"`
	HTTPMethod  []string `json:"http_request_method,omitempty"`
	HTTPURI     []string `json:"http_request_uri,omitempty"`
	HTTPHost    []string `json:"http_host,omitempty"`
}

// ekFields are the -e arguments matching EkLayers.
var ekFields = []string{
	"eth.dst",
	"ip.src", "ip.dst",
	"ipv6.src", "ipv6.dst",
	"tcp.srcport", "tcp.dstport",
	"udp.srcport", "udp.dstport",
	"dns.flags.response", "dns.qry.name", "dns.qry.type",
	"tls.handshake.type", "tls.handshake.version", "tls.handshake.extensions_server_name",
	"http.request", "http.request.method", "http.request.uri", "http.host",
}

// ekDisplayFilter keeps tshark from emitting packets that can never carry
// an observation.
const ekDisplayFilter = "(dns && dns.flags.response == 0) || tls.handshake.type == 1 || http.request"

package network

import (
	"errors"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	srvs []*net.SRV
	err  error
}

func (r staticResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return "", r.srvs, r.err
}

func TestDiscover_Order(t *testing.T) {
	r := staticResolver{srvs: []*net.SRV{
		{Target: "backup.example.", Port: 8090, Priority: 20, Weight: 100},
		{Target: "light.example.", Port: 8090, Priority: 10, Weight: 10},
		{Target: "heavy.example.", Port: 443, Priority: 10, Weight: 90},
	}}
	urls, err := Discover("example", "", r)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://heavy.example:443",
		"https://light.example:8090",
		"https://backup.example:8090",
	}, urls)
}

func TestDiscover_Errors(t *testing.T) {
	_, err := Discover("", "http", staticResolver{})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)

	_, err = Discover("example", "http", staticResolver{})
	assert.ErrorIs(t, err, ErrNoEndpoint)

	_, err = Discover("example", "http", staticResolver{err: errors.New("servfail")})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

// dnsServer answers SRV queries for _linkedlist._tcp.example. on a local
// UDP port, setting the AD flag when authenticated is true.
func dnsServer(t *testing.T, authenticated bool) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := dns.NewServeMux()
	mux.HandleFunc("example.", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.AuthenticatedData = authenticated
		if req.Question[0].Name == "_linkedlist._tcp.example." && req.Question[0].Qtype == dns.TypeSRV {
			m.Answer = append(m.Answer, &dns.SRV{
				Hdr:      dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 60},
				Priority: 10, Weight: 5, Port: 8090, Target: "gw.example.",
			})
		} else {
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })
	return pc.LocalAddr().String()
}

func TestDNSSECResolver(t *testing.T) {
	assert.Equal(t, "8.8.8.8:53", NewDNSSECResolver("").Upstream)

	r := NewDNSSECResolver(dnsServer(t, true))
	urls, err := Discover("example", "http", r)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://gw.example:8090"}, urls)

	_, err = Discover("missing.example", "http", r)
	assert.ErrorIs(t, err, ErrDNSLookupFailed)

	unsigned := NewDNSSECResolver(dnsServer(t, false))
	_, err = Discover("example", "http", unsigned)
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)
}

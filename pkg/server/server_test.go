package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fromafrica/nscache/pkg/orchestrator"
	H "github.com/fromafrica/nscache/pkg/server/http_handler"
)

type echoDNSHandler struct{}

func (echoDNSHandler) ServeDNS(_ context.Context, req *dns.Msg) (*dns.Msg, error) {
	resp := new(dns.Msg)
	resp.SetReply(req)
	rr, err := dns.NewRR(req.Question[0].Name + " 60 IN A 192.0.2.1")
	if err != nil {
		return nil, err
	}
	resp.Answer = append(resp.Answer, rr)
	return resp, nil
}

type fixedOrchestrator struct{}

func (fixedOrchestrator) Query(_ context.Context, domain, _ string) orchestrator.Result {
	return orchestrator.Result{Kind: orchestrator.KindFound, Domain: domain, Record: `{"type":"A","value":"192.0.2.1"}`}
}

func (fixedOrchestrator) UpdateCache(_ context.Context, domain, rec string) orchestrator.Result {
	return orchestrator.Result{Kind: orchestrator.KindUpdated, Domain: domain, Record: rec}
}

func (fixedOrchestrator) Create(_ context.Context, domain, rec string) orchestrator.Result {
	return orchestrator.Result{Kind: orchestrator.KindUpdated, Domain: domain, Record: rec}
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

func newHTTPHandler(t *testing.T) *H.Handler {
	t.Helper()
	h, err := H.NewHandler(H.HandlerOpts{Orchestrator: fixedOrchestrator{}, Gate: allowAll{}})
	require.NoError(t, err)
	return h
}

func TestServer_UDPAndTCP(t *testing.T) {
	s := NewServer(ServerOpts{DNSHandler: echoDNSHandler{}})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	udpErr := make(chan error, 1)
	tcpErr := make(chan error, 1)
	go func() { udpErr <- s.ServeUDP(pc) }()
	go func() { tcpErr <- s.ServeTCP(WrapListener(l, ListenerOpts{MaxConns: 4})) }()

	for network, addr := range map[string]string{"udp": pc.LocalAddr().String(), "tcp": l.Addr().String()} {
		c := &dns.Client{Net: network, Timeout: time.Second}
		m := new(dns.Msg)
		m.SetQuestion("example.com.", dns.TypeA)
		r, _, err := c.Exchange(m, addr)
		require.NoError(t, err, network)
		assert.Equal(t, m.Id, r.Id)
		require.Len(t, r.Answer, 1, network)
		assert.Equal(t, "192.0.2.1", r.Answer[0].(*dns.A).A.String())
	}

	s.Close()
	assert.True(t, errors.Is(<-udpErr, ErrServerClosed))
	assert.True(t, errors.Is(<-tcpErr, ErrServerClosed))
}

func TestServer_MissingHandler(t *testing.T) {
	s := NewServer(ServerOpts{})
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, s.ServeTCP(l), errMissingDNSHandler)

	l, err = net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, s.ServeHTTP(l), errMissingHTTPHandler)
}

func TestServer_ClosedRejectsServe(t *testing.T) {
	s := NewServer(ServerOpts{DNSHandler: echoDNSHandler{}})
	s.Close()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, s.ServeTCP(l), ErrServerClosed)
}

func TestServer_HTTP(t *testing.T) {
	s := NewServer(ServerOpts{HttpHandler: newHTTPHandler(t)})
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errC := make(chan error, 1)
	go func() { errC <- s.ServeHTTP(l) }()

	resp, err := http.Post("http://"+l.Addr().String()+H.RouteQuery, "application/json",
		strings.NewReader(`{"domain":"example.com","type":"A"}`))
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, `{"status":"200","message":"valid","query":"example.com","record":{"type":"A","value":"192.0.2.1"}}`, string(b))

	resp, err = http.Post("http://"+l.Addr().String()+H.RouteCreate, "application/json",
		strings.NewReader(`{"domain":"example.com","record":"{}"}`))
	require.NoError(t, err)
	b, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, `{"status":200,"message":"record updated","domain":"example.com","record":"{}"}`, string(b))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	s.Close()
	assert.ErrorIs(t, <-errC, ErrServerClosed)
}

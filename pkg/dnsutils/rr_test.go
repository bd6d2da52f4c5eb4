package dnsutils

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fromafrica/nscache/pkg/record"
)

func TestQuestionKey(t *testing.T) {
	d, qt := QuestionKey(dns.Question{Name: "ExAmple.COM.", Qtype: dns.TypeAAAA, Qclass: dns.ClassINET})
	assert.Equal(t, "example.com", d)
	assert.Equal(t, "AAAA", qt)

	_, qt = QuestionKey(dns.Question{Name: "a.", Qtype: 65000})
	assert.Equal(t, "TYPE65000", qt)
}

func TestBuildAnswer(t *testing.T) {
	q := dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}
	rrs, err := BuildAnswer(q, &record.Record{Type: "A", Value: record.Values{"1.2.3.4", "5.6.7.8"}}, 300)
	require.NoError(t, err)
	require.Len(t, rrs, 2)
	a := rrs[0].(*dns.A)
	assert.Equal(t, "1.2.3.4", a.A.String())
	assert.EqualValues(t, 300, a.Hdr.Ttl)
	assert.Equal(t, "example.com.", a.Hdr.Name)

	rrs, err = BuildAnswer(q, &record.Record{Type: "CNAME", Value: record.Values{"target.example."}, TTL: 60}, 300)
	require.NoError(t, err)
	c := rrs[0].(*dns.CNAME)
	assert.Equal(t, "target.example.", c.Target)
	assert.EqualValues(t, 60, c.Hdr.Ttl)

	rrs, err = BuildAnswer(q, &record.Record{Type: "TXT", Value: record.Values{`"hello world"`}}, 300)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, rrs[0].(*dns.TXT).Txt)
}

func TestBuildAnswer_Errors(t *testing.T) {
	q := dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}
	_, err := BuildAnswer(q, &record.Record{Type: "A"}, 300)
	assert.Error(t, err)

	_, err = BuildAnswer(q, &record.Record{Type: "A", Value: record.Values{"not-an-ip"}}, 300)
	assert.Error(t, err)
}

package certrequest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
)

func dnsPending(id, domain string) certrequest.Pending {
	return certrequest.Pending{RequestID: id, Domain: domain, Email: "a@example.com", Method: certrequest.MethodDNS}
}

func TestConsumeIsAtMostOnce(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	s.Submit(dnsPending("r1", "example.com"))
	require.True(t, s.Complete("r1", certrequest.Completed{Domain: "example.com", CertificateID: "c1"}))

	first := s.Consume()
	assert.Equal(t, certrequest.StatusCompleted, first.Status)
	assert.Equal(t, "c1", first.Completed.CertificateID)

	second := s.Consume()
	assert.Equal(t, certrequest.StatusNone, second.Status)
}

func TestFailureConsumedOnce(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	s.Submit(dnsPending("r1", "example.com"))
	require.True(t, s.Fail("r1", certrequest.Failure{Message: "boom", Details: []string{"x"}}))

	snap := s.Consume()
	assert.Equal(t, certrequest.StatusError, snap.Status)
	assert.Equal(t, "boom", snap.Failure.Message)
	assert.Equal(t, "r1", snap.Failure.RequestID)
	assert.Equal(t, certrequest.StatusNone, s.Consume().Status)
}

func TestPendingIsNotConsumed(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	s.Submit(dnsPending("r1", "example.com"))

	assert.Equal(t, certrequest.StatusPending, s.Consume().Status)
	snap := s.Consume()
	assert.Equal(t, certrequest.StatusPending, snap.Status)
	assert.Equal(t, "example.com", snap.Pending.Domain)
}

func TestSubmitOverwrites(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	s.Submit(dnsPending("r1", "old.example.com"))
	require.True(t, s.Fail("r1", certrequest.Failure{Message: "stale"}))

	s.Submit(dnsPending("r2", "new.example.com"))
	snap := s.Consume()
	assert.Equal(t, certrequest.StatusPending, snap.Status, "unread outcome of the old request is discarded")
	assert.Equal(t, "new.example.com", snap.Pending.Domain)
}

func TestStaleResultsIgnored(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	s.Submit(dnsPending("r1", "example.com"))
	s.Submit(dnsPending("r2", "example.com"))

	assert.False(t, s.Complete("r1", certrequest.Completed{CertificateID: "old"}))
	assert.False(t, s.Fail("r1", certrequest.Failure{Message: "old"}))
	assert.False(t, s.MarkPrepared("r1", "n", "v", false))
	assert.False(t, s.MarkPrepareFailed("r1", "old"))

	assert.Equal(t, certrequest.StatusPending, s.Consume().Status)
	assert.Equal(t, "r2", s.Pending.RequestID)
	assert.False(t, s.Pending.Prepared)
}

func TestDNSStatus(t *testing.T) {
	t.Parallel()
	var s certrequest.State

	status, p := s.DNSStatus()
	assert.Equal(t, certrequest.PrepNone, status)
	assert.Nil(t, p)

	s.Submit(dnsPending("r1", "example.com"))
	status, _ = s.DNSStatus()
	assert.Equal(t, certrequest.PrepPreparing, status)

	require.True(t, s.MarkPrepared("r1", "_acme-challenge.example.com", "digest", false))
	status, p = s.DNSStatus()
	assert.Equal(t, certrequest.PrepReady, status)
	assert.Equal(t, "digest", p.RecordValue)

	require.True(t, s.MarkPrepareFailed("r1", "ca down"))
	status, p = s.DNSStatus()
	assert.Equal(t, certrequest.PrepError, status)
	assert.Equal(t, "ca down", p.PrepareError)
}

func TestDNSStatusIgnoresHTTPRequests(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	s.Submit(certrequest.Pending{RequestID: "r1", Domain: "example.com", Method: certrequest.MethodHTTP})
	status, _ := s.DNSStatus()
	assert.Equal(t, certrequest.PrepNone, status)
}

func TestMarkDNSVerified(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	assert.False(t, s.MarkDNSVerified("example.com"))

	s.Submit(dnsPending("r1", "example.com"))
	assert.False(t, s.MarkDNSVerified("other.com"))
	assert.True(t, s.MarkDNSVerified("Example.com"))
	assert.True(t, s.Pending.DNSVerified)
}

func TestStatusFrom(t *testing.T) {
	t.Parallel()
	var s certrequest.State
	assert.Equal(t, certrequest.StatusNone, certrequest.StatusFrom(s.Consume()).Status)

	s.Submit(dnsPending("r1", "example.com"))
	require.True(t, s.MarkPrepared("r1", "_acme-challenge.example.com", "digest", false))
	pending := certrequest.StatusFrom(s.Consume())
	assert.Equal(t, certrequest.StatusPending, pending.Status)
	require.NotNil(t, pending.DNSRecord)
	assert.Equal(t, "digest", pending.DNSRecord.Value)
	assert.NotZero(t, pending.RequestTime)

	require.True(t, s.Complete("r1", certrequest.Completed{Domain: "example.com", CertificateID: "c1"}))
	done := certrequest.StatusFrom(s.Consume())
	assert.Equal(t, certrequest.StatusCompleted, done.Status)
	assert.Equal(t, "c1", done.CertificateID)
}

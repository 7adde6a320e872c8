package certrequest_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
	"github.com/gridlinecompany/LetsEcrypt/pkg/dnscheck"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
)

func TestDetailsFor(t *testing.T) {
	t.Parallel()
	pending := &certrequest.Pending{
		Domain:      "example.com",
		Method:      certrequest.MethodDNS,
		RecordName:  "_acme-challenge.example.com",
		RecordValue: "digest",
	}

	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantDetail  string
	}{
		{
			name:        "not found",
			err:         &dnscheck.NotFoundError{Name: "_acme-challenge.example.com"},
			wantMessage: "DNS record not found",
			wantDetail:  "Check that you created a TXT record with name: _acme-challenge.example.com",
		},
		{
			name:        "not found by message",
			err:         errors.New("DNS record not found somewhere upstream"),
			wantMessage: "DNS record not found",
			wantDetail:  "And value: digest",
		},
		{
			name:        "mismatch",
			err:         &dnscheck.MismatchError{Name: "n", Expected: "digest"},
			wantMessage: "DNS record value mismatch",
			wantDetail:  "The value should be exactly: digest",
		},
		{
			name:        "rate limited",
			err:         fmt.Errorf("%w: too many", letsencrypt.ErrRateLimited),
			wantMessage: "Rate limited by the certificate authority",
			wantDetail:  "Please wait before requesting another certificate for this domain.",
		},
		{
			name:        "timeout",
			err:         letsencrypt.ErrChallengeTimeout,
			wantMessage: "Challenge validation timed out",
		},
		{
			name:        "validation",
			err:         fmt.Errorf("%w: boom", letsencrypt.ErrChallengeValidation),
			wantMessage: "Challenge validation failed",
			wantDetail:  "And value: digest",
		},
		{
			name:        "download",
			err:         letsencrypt.ErrCertificateDownload,
			wantMessage: "Certificate download failed",
		},
		{
			name:        "no pending",
			err:         letsencrypt.ErrNoPendingChallenge,
			wantMessage: "No pending challenge",
			wantDetail:  "No DNS challenge information found. Please start a new certificate request.",
		},
		{
			name:        "generic",
			err:         errors.New("something odd"),
			wantMessage: "Certificate request failed",
			wantDetail:  "Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, details := certrequest.DetailsFor(tt.err, pending)
			assert.Equal(t, tt.wantMessage, msg)
			assert.NotEmpty(t, details)
			if tt.wantDetail != "" {
				assert.Contains(t, details, tt.wantDetail)
			}
		})
	}
}

func TestDetailsForWithoutPending(t *testing.T) {
	t.Parallel()
	msg, details := certrequest.DetailsFor(&dnscheck.NotFoundError{Name: "x"}, nil)
	assert.Equal(t, "DNS record not found", msg)
	assert.Len(t, details, 4)

	msg, details = certrequest.DetailsFor(nil, nil)
	assert.Empty(t, msg)
	assert.Nil(t, details)
}

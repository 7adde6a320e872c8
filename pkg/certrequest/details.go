package certrequest

import (
	"context"
	"errors"
	"strings"

	"github.com/gridlinecompany/LetsEcrypt/pkg/dnscheck"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
)

const genericDetail = "Please try again later."

// DetailsFor turns err into a short message and steps the user can take.
// pending supplies the record name and value where they help; it may be nil.
func DetailsFor(err error, pending *Pending) (string, []string) {
	if err == nil {
		return "", nil
	}

	name, value := "_acme-challenge.<your-domain>", "<the value shown when you requested the certificate>"
	if pending != nil {
		if pending.RecordName != "" {
			name = pending.RecordName
		} else if pending.Domain != "" {
			name = dnscheck.RecordName(pending.Domain)
		}
		if pending.RecordValue != "" {
			value = pending.RecordValue
		}
	}
	msg := err.Error()

	switch {
	case errors.Is(err, dnscheck.ErrRecordNotFound) || strings.Contains(msg, "DNS record not found"):
		return "DNS record not found", []string{
			"The DNS record could not be found. It may not have propagated yet.",
			"Check that you created a TXT record with name: " + name,
			"And value: " + value,
			"DNS changes can take 5 minutes to 48 hours to propagate fully.",
		}

	case errors.Is(err, dnscheck.ErrRecordMismatch) || strings.Contains(msg, "doesn't match expected value"):
		return "DNS record value mismatch", []string{
			"The DNS record was found but has an incorrect value.",
			"The value should be exactly: " + value,
			"Make sure there are no extra spaces or quotes in the value.",
		}

	case errors.Is(err, letsencrypt.ErrRateLimited) || strings.Contains(msg, "rateLimited"):
		return "Rate limited by the certificate authority", []string{
			"Let's Encrypt limits how many certificates can be issued for a domain.",
			"Please wait before requesting another certificate for this domain.",
		}

	case errors.Is(err, letsencrypt.ErrChallengeTimeout) || errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return "Challenge validation timed out", []string{
			"The certificate authority did not finish validating the challenge in time.",
			genericDetail,
		}

	case errors.Is(err, letsencrypt.ErrChallengeValidation) || errors.Is(err, letsencrypt.ErrChallengeInvalid):
		details := []string{"The certificate authority could not validate the challenge."}
		if pending.IsDNS() {
			details = append(details,
				"Check that you created a TXT record with name: "+name,
				"And value: "+value,
			)
		} else {
			details = append(details, "Make sure the domain points to this server and port 80 is reachable.")
		}
		return "Challenge validation failed", details

	case errors.Is(err, letsencrypt.ErrCertificateDownload):
		return "Certificate download failed", []string{
			"The certificate was issued but could not be downloaded.",
			genericDetail,
		}

	case errors.Is(err, letsencrypt.ErrNoPendingChallenge):
		return "No pending challenge", []string{
			"No DNS challenge information found. Please start a new certificate request.",
		}

	case errors.Is(err, letsencrypt.ErrValidationInput):
		return msg, []string{"Check the domain and email address and try again."}

	default:
		return "Certificate request failed", []string{genericDetail}
	}
}

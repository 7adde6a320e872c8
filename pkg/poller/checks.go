package poller

import (
	"context"
	"fmt"

	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
)

// StatusCheck polls the status endpoint until the request concludes.
// An empty status after a request was started means the outcome was
// already read, which counts as done.
func StatusCheck(c *Client) CheckFunc {
	return func(ctx context.Context) (Update, error) {
		st, err := c.Status(ctx)
		if err != nil {
			return Update{}, err
		}
		switch st.Status {
		case certrequest.StatusCompleted:
			return Update{Done: true, Value: st.CertificateID,
				Message: fmt.Sprintf("Certificate for %s has been successfully generated!", st.Domain)}, nil
		case certrequest.StatusError:
			return Update{Failed: true, Message: "Error: " + st.Message, Details: st.Details}, nil
		case certrequest.StatusNone:
			return Update{Done: true, Message: "Certificate generation complete!"}, nil
		default:
			return Update{Message: fmt.Sprintf("Certificate generation in progress for %s. Please wait...", st.Domain)}, nil
		}
	}
}

// DNSReadyCheck polls until the DNS-01 record is prepared. Value carries
// the record value on success.
func DNSReadyCheck(c *Client) CheckFunc {
	return func(ctx context.Context) (Update, error) {
		st, err := c.DNSChallengeStatus(ctx)
		if err != nil {
			return Update{}, err
		}
		switch st.Status {
		case certrequest.PrepReady:
			if st.DNSData == nil {
				return Update{Failed: true, Message: "DNS challenge ready without record data"}, nil
			}
			return Update{Done: true, Value: st.DNSData.RecordValue,
				Message: fmt.Sprintf("Create a TXT record %s with value %s", st.DNSData.RecordName, st.DNSData.RecordValue)}, nil
		case certrequest.PrepError:
			return Update{Failed: true, Message: "DNS challenge preparation failed: " + st.Message}, nil
		case certrequest.PrepNone:
			return Update{Failed: true, Message: "No pending DNS challenge"}, nil
		default:
			return Update{Message: "Preparing DNS challenge..."}, nil
		}
	}
}

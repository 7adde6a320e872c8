// Package letsencrypt orchestrates ACME certificate issuance with HTTP-01
// and DNS-01 challenges.
//
// The Orchestrator talks to the CA through golang.org/x/crypto/acme and
// keeps per-domain challenge state in a challengestore.Store. Keys and CSRs
// come from lego's certcrypto helpers. The ACME account key is persisted as
// account.key.pem in the data directory and reused.
//
// HTTP-01 runs in one call: the key authorization is published through
// KeyAuthorization, the CA validates, and the certificate is written out.
//
// DNS-01 is split in two so a person can publish the record in between:
//
//	rec, err := o.BeginDNSChallenge(ctx, "example.com", "admin@example.com")
//	// publish TXT rec.Name = rec.Value
//	cert, err := o.CompleteDNSChallenge(ctx, "example.com", rec.Value)
//
// Validation is attempted up to three times, 30s then 120s apart, and
// download up to five times with linear backoff. Both schedules, the settle
// delay and the challenge timeout are adjustable through options.
//
// Issued artifacts are named "<domain>_<unix-millis>.cert.pem" and
// ".key.pem", with "*" spelled "wildcard". A Mirror copies them elsewhere,
// and an Observer receives progress events.
package letsencrypt

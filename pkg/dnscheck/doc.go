// Package dnscheck verifies that an ACME DNS-01 TXT record is visible.
//
// Checker.Verify looks up _acme-challenge.<domain> and compares the values
// with the expected digest, tolerating surrounding whitespace and one layer
// of quotes. Lookups are retried with a fixed delay to ride out propagation.
//
// The default resolver queries the servers in /etc/resolv.conf with
// github.com/miekg/dns, re-reading the file on every lookup.
package dnscheck

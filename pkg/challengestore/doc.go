// Package challengestore keeps in-flight ACME challenges for this process.
//
// There is at most one Challenge per domain. Put replaces any existing entry
// for the domain, including its token index; entries are never merged.
// KeyAuthorization answers HTTP-01 lookups by token.
//
// Lock serializes work on a single domain without blocking other domains:
//
//	unlock := store.Lock(domain)
//	defer unlock()
package challengestore

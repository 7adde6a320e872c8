// Package clientip extracts the client IP address from an HTTP request.
//
// Proxy headers are checked in order: CF-Connecting-IP, DO-Connecting-IP,
// X-Forwarded-For (leftmost entry), X-Real-IP. RemoteAddr is the fallback.
// Header values that do not parse as an IP, and 0.0.0.0, are skipped.
//
//	key := clientip.GetIP(r) // rate limiter key
package clientip

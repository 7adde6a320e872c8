package letsencrypt

import "time"

// Observer receives orchestration events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ChallengeStarted(domain, method string)
	ValidationAttempt(domain string, attempt int)
	DownloadAttempt(domain string, attempt int)
	IssuanceFinished(domain, method string, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ChallengeStarted(string, string) {}
func (nopObserver) ValidationAttempt(string, int) {}
func (nopObserver) DownloadAttempt(string, int) {}
func (nopObserver) IssuanceFinished(string, string, error, time.Duration) {}

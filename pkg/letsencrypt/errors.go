package letsencrypt

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/acme"
)

var (
	// ErrValidationInput is returned for a missing or malformed domain or email.
	ErrValidationInput = errors.New("letsencrypt: invalid input")

	// ErrNoPendingChallenge is returned when a domain has no live challenge to complete.
	ErrNoPendingChallenge = errors.New("letsencrypt: no pending challenge")

	// ErrChallengeUnavailable is returned when the CA offers no challenge of the requested type.
	ErrChallengeUnavailable = errors.New("letsencrypt: challenge type not offered")

	// ErrChallengeValidation is returned when validation attempts are exhausted.
	ErrChallengeValidation = errors.New("letsencrypt: challenge validation failed")

	// ErrChallengeTimeout is returned when the CA does not decide within the challenge timeout.
	ErrChallengeTimeout = errors.New("letsencrypt: challenge timed out")

	// ErrChallengeInvalid is returned when the CA marked the authorization or order invalid.
	ErrChallengeInvalid = errors.New("letsencrypt: challenge invalid")

	// ErrCertificateDownload is returned when download attempts are exhausted.
	ErrCertificateDownload = errors.New("letsencrypt: certificate download failed")

	// ErrRateLimited is returned when the CA rejects a request with a rateLimited problem.
	ErrRateLimited = errors.New("letsencrypt: rate limited by CA")
)

const rateLimitedProblem = "urn:ietf:params:acme:error:rateLimited"

// classify tags CA rate-limit problems with ErrRateLimited.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *acme.Error
	if errors.As(err, &ae) && strings.EqualFold(ae.ProblemType, rateLimitedProblem) {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}

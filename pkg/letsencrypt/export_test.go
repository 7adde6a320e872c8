package letsencrypt

import "crypto"

type ACMEClient = acmeClient

func WithClientFactory(f func(key crypto.Signer, directoryURL string) ACMEClient) Option {
	return withClientFactory(f)
}

var (
	SafeFileSegment = safeFileSegment
	ArtifactBase    = artifactBase
)

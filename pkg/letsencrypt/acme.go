package letsencrypt

import (
	"context"
	"crypto"

	"golang.org/x/crypto/acme"
)

// acmeClient is the subset of *acme.Client the orchestrator drives.
type acmeClient interface {
	Register(ctx context.Context, acct *acme.Account, prompt func(tosURL string) bool) (*acme.Account, error)
	AuthorizeOrder(ctx context.Context, id []acme.AuthzID, opt ...acme.OrderOption) (*acme.Order, error)
	GetOrder(ctx context.Context, url string) (*acme.Order, error)
	GetAuthorization(ctx context.Context, url string) (*acme.Authorization, error)
	Accept(ctx context.Context, chal *acme.Challenge) (*acme.Challenge, error)
	WaitAuthorization(ctx context.Context, url string) (*acme.Authorization, error)
	WaitOrder(ctx context.Context, url string) (*acme.Order, error)
	CreateOrderCert(ctx context.Context, url string, csr []byte, bundle bool) (der [][]byte, certURL string, err error)
	FetchCert(ctx context.Context, url string, bundle bool) ([][]byte, error)
	HTTP01ChallengeResponse(token string) (string, error)
	DNS01ChallengeRecord(token string) (string, error)
}

type clientFactory func(key crypto.Signer, directoryURL string) acmeClient

func defaultClientFactory(key crypto.Signer, directoryURL string) acmeClient {
	return &acme.Client{
		Key:          key,
		DirectoryURL: directoryURL,
		UserAgent:    "letsecrypt",
	}
}

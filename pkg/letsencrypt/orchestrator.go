package letsencrypt

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"golang.org/x/crypto/acme"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/pkg/async"
	"github.com/gridlinecompany/LetsEcrypt/pkg/challengestore"
	"github.com/gridlinecompany/LetsEcrypt/pkg/dnscheck"
)

// defaultValidity backs ExpiresAt when the issued certificate cannot be parsed.
const defaultValidity = 90 * 24 * time.Hour

// Verifier checks DNS-01 record propagation.
type Verifier interface {
	Verify(ctx context.Context, domain, expected string) error
}

// Certificate is an issued certificate and where it was stored.
type Certificate struct {
	Domain          string
	Method          string
	CertificatePEM  []byte
	PrivateKeyPEM   []byte
	CertificatePath string
	PrivateKeyPath  string
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// DNSRecord is the TXT record a user must publish for a DNS-01 challenge.
type DNSRecord struct {
	Domain string
	Name   string
	Value  string
	// Fallback marks a placeholder value issued after a failure outside production.
	Fallback bool
}

// Orchestrator drives ACME orders from challenge through download.
// Work on one domain is serialized; different domains proceed independently.
type Orchestrator struct {
	cfg     config
	store   *challengestore.Store
	checker Verifier
	log     *slog.Logger

	keyMu sync.Mutex
	key   crypto.Signer
}

// New creates an Orchestrator. checker may be nil, which skips local DNS checks.
func New(store *challengestore.Store, checker Verifier, opts ...Option) (*Orchestrator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if store == nil {
		store = challengestore.New()
	}
	log := cfg.log
	if log == nil {
		log = logger.Nop()
	}

	return &Orchestrator{
		cfg:     cfg,
		store:   store,
		checker: checker,
		log:     log.With(logger.Component("letsencrypt")),
	}, nil
}

// KeyAuthorization returns the HTTP-01 response for token.
func (o *Orchestrator) KeyAuthorization(token string) (string, bool) {
	return o.store.KeyAuthorization(token)
}

// Pending returns the stored challenge for domain.
func (o *Orchestrator) Pending(domain string) (challengestore.Challenge, bool) {
	return o.store.Get(domain)
}

// BeginHTTPChallenge issues a certificate for domain using HTTP-01. The key
// authorization is published through KeyAuthorization while the CA validates.
func (o *Orchestrator) BeginHTTPChallenge(ctx context.Context, domain, email string) (_ *Certificate, err error) {
	domain, email, err = validateInput(domain, email)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(domain, "*.") {
		return nil, fmt.Errorf("%w: wildcard domains require dns-01", ErrValidationInput)
	}

	unlock := o.store.Lock(domain)
	defer unlock()

	start := time.Now()
	log := o.log.With(logger.Domain(domain), logger.Challenge(challengestore.MethodHTTP01))
	defer func() {
		o.cfg.observer.IssuanceFinished(domain, challengestore.MethodHTTP01, err, time.Since(start))
	}()

	client, err := o.registeredClient(ctx, email)
	if err != nil {
		return nil, err
	}
	pending, err := o.newOrder(ctx, client, domain, acme.DomainIDs(domain), challengestore.MethodHTTP01)
	if err != nil {
		return nil, err
	}

	keyAuth, err := client.HTTP01ChallengeResponse(pending.Token)
	if err != nil {
		return nil, fmt.Errorf("compute key authorization: %w", err)
	}
	pending.KeyAuthorization = keyAuth
	o.store.Put(pending)
	defer o.store.DeleteIfToken(domain, pending.Token)

	o.cfg.observer.ChallengeStarted(domain, challengestore.MethodHTTP01)
	log.InfoContext(ctx, "http-01 challenge published", slog.String("token", pending.Token))

	if err := o.acceptOnce(ctx, client, pending); err != nil {
		return nil, err
	}
	return o.finish(ctx, client, pending, log)
}

// BeginDNSChallenge starts a DNS-01 order and returns the record to publish.
// Outside production a failure yields a placeholder record instead of an error.
func (o *Orchestrator) BeginDNSChallenge(ctx context.Context, domain, email string) (*DNSRecord, error) {
	domain, email, err := validateInput(domain, email)
	if err != nil {
		return nil, err
	}

	unlock := o.store.Lock(domain)
	defer unlock()

	log := o.log.With(logger.Domain(domain), logger.Challenge(challengestore.MethodDNS01))

	rec, err := o.beginDNS(ctx, domain, email)
	if err == nil {
		o.cfg.observer.ChallengeStarted(domain, challengestore.MethodDNS01)
		log.InfoContext(ctx, "dns-01 challenge prepared", slog.String("record", rec.Name))
		return rec, nil
	}

	if o.cfg.production || ctx.Err() != nil {
		o.cfg.observer.IssuanceFinished(domain, challengestore.MethodDNS01, err, 0)
		return nil, err
	}

	value := fmt.Sprintf("fallback-challenge-value-%d", time.Now().UnixMilli())
	name := dnscheck.RecordName(domain)
	o.store.Put(challengestore.Challenge{
		Domain:      domain,
		Method:      challengestore.MethodDNS01,
		RecordName:  name,
		RecordValue: value,
		Fallback:    true,
	})
	log.WarnContext(ctx, "dns-01 preparation failed, issuing placeholder record", logger.Error(err))
	return &DNSRecord{Domain: domain, Name: name, Value: value, Fallback: true}, nil
}

func (o *Orchestrator) beginDNS(ctx context.Context, domain, email string) (*DNSRecord, error) {
	client, err := o.registeredClient(ctx, email)
	if err != nil {
		return nil, err
	}
	pending, err := o.newOrder(ctx, client, domain, acme.DomainIDs(domain), challengestore.MethodDNS01)
	if err != nil {
		return nil, err
	}

	value, err := client.DNS01ChallengeRecord(pending.Token)
	if err != nil {
		return nil, fmt.Errorf("compute dns record: %w", err)
	}
	keyAuth, err := client.HTTP01ChallengeResponse(pending.Token)
	if err != nil {
		return nil, fmt.Errorf("compute key authorization: %w", err)
	}

	pending.KeyAuthorization = keyAuth
	pending.RecordName = dnscheck.RecordName(domain)
	pending.RecordValue = value
	o.store.Put(pending)

	return &DNSRecord{Domain: domain, Name: pending.RecordName, Value: value}, nil
}

// CompleteDNSChallenge asks the CA to validate the published record, then
// finalizes the order and downloads the certificate. recordValue is the
// TXT value the user was shown; when a newer order for the domain replaced
// it, ErrNoPendingChallenge is returned without contacting the CA. An
// empty recordValue accepts the stored order.
func (o *Orchestrator) CompleteDNSChallenge(ctx context.Context, domain, recordValue string) (_ *Certificate, err error) {
	unlock := o.store.Lock(domain)
	defer unlock()

	pending, err := o.pending(domain, recordValue)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := o.log.With(logger.Domain(pending.Domain), logger.Challenge(challengestore.MethodDNS01))
	defer func() {
		o.cfg.observer.IssuanceFinished(pending.Domain, challengestore.MethodDNS01, err, time.Since(start))
	}()

	if o.checker != nil {
		if err := o.checker.Verify(ctx, pending.Domain, pending.RecordValue); err != nil {
			log.WarnContext(ctx, "local dns check failed, continuing with CA validation", logger.Error(err))
		}
	}

	client, err := o.client()
	if err != nil {
		return nil, err
	}
	if err := o.validate(ctx, client, pending, log); err != nil {
		return nil, err
	}
	if err := o.settle(ctx); err != nil {
		return nil, err
	}

	cert, err := o.finish(ctx, client, pending, log)
	if err != nil {
		return nil, err
	}
	o.store.DeleteIfToken(pending.Domain, pending.Token)
	return cert, nil
}

// CompleteVerifiedDNSChallenge resumes an order the user already verified,
// acting on the order's current status at the CA. recordValue is matched
// as in CompleteDNSChallenge.
func (o *Orchestrator) CompleteVerifiedDNSChallenge(ctx context.Context, domain, email, recordValue string) (_ *Certificate, err error) {
	unlock := o.store.Lock(domain)
	defer unlock()

	pending, err := o.pending(domain, recordValue)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := o.log.With(logger.Domain(pending.Domain), logger.Challenge(challengestore.MethodDNS01))
	defer func() {
		o.cfg.observer.IssuanceFinished(pending.Domain, challengestore.MethodDNS01, err, time.Since(start))
	}()

	var client acmeClient
	if strings.TrimSpace(email) != "" {
		client, err = o.registeredClient(ctx, email)
	} else {
		client, err = o.client()
	}
	if err != nil {
		return nil, err
	}

	order, err := client.GetOrder(ctx, pending.OrderURL)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", classify(err))
	}
	log.InfoContext(ctx, "resuming verified order", logger.Status(order.Status))

	switch order.Status {
	case acme.StatusPending:
		if err := o.validate(ctx, client, pending, log); err != nil {
			return nil, err
		}
		if err := o.settle(ctx); err != nil {
			return nil, err
		}
	case acme.StatusReady, acme.StatusProcessing, acme.StatusValid:
	case acme.StatusInvalid:
		return nil, fmt.Errorf("%w: order %s is invalid", ErrChallengeInvalid, pending.OrderURL)
	default:
		return nil, fmt.Errorf("%w: unexpected order status %q", ErrChallengeValidation, order.Status)
	}

	cert, err := o.finish(ctx, client, pending, log)
	if err != nil {
		return nil, err
	}
	o.store.DeleteIfToken(pending.Domain, pending.Token)
	return cert, nil
}

func (o *Orchestrator) pending(domain, recordValue string) (challengestore.Challenge, error) {
	pending, ok := o.store.Get(domain)
	if !ok || pending.Fallback || pending.OrderURL == "" {
		return challengestore.Challenge{}, fmt.Errorf("%w for %s", ErrNoPendingChallenge, domain)
	}
	if recordValue != "" && pending.RecordValue != recordValue {
		return challengestore.Challenge{}, fmt.Errorf("%w for %s: record value belongs to a replaced order", ErrNoPendingChallenge, domain)
	}
	return pending, nil
}

func (o *Orchestrator) client() (acmeClient, error) {
	key, err := o.accountKey()
	if err != nil {
		return nil, err
	}
	return o.cfg.clientFactory(key, o.cfg.directoryURL), nil
}

// registeredClient returns a client whose account is registered for email.
// An existing account for the key is reused.
func (o *Orchestrator) registeredClient(ctx context.Context, email string) (acmeClient, error) {
	client, err := o.client()
	if err != nil {
		return nil, err
	}
	acct := &acme.Account{Contact: []string{"mailto:" + email}}
	if _, err := client.Register(ctx, acct, acme.AcceptTOS); err != nil && !errors.Is(err, acme.ErrAccountAlreadyExists) {
		return nil, fmt.Errorf("register account: %w", classify(err))
	}
	return client, nil
}

// newOrder creates the order, key and CSR, and selects the challenge of
// the requested method from the first authorization.
func (o *Orchestrator) newOrder(ctx context.Context, client acmeClient, domain string, ids []acme.AuthzID, method string) (challengestore.Challenge, error) {
	key, err := certcrypto.GeneratePrivateKey(certcrypto.RSA2048)
	if err != nil {
		return challengestore.Challenge{}, fmt.Errorf("generate certificate key: %w", err)
	}
	csr, err := certcrypto.GenerateCSR(key, domain, nil, false)
	if err != nil {
		return challengestore.Challenge{}, fmt.Errorf("create csr: %w", err)
	}

	order, err := client.AuthorizeOrder(ctx, ids)
	if err != nil {
		return challengestore.Challenge{}, fmt.Errorf("create order: %w", classify(err))
	}
	if len(order.AuthzURLs) == 0 {
		return challengestore.Challenge{}, fmt.Errorf("%w: order has no authorizations", ErrChallengeUnavailable)
	}

	authzURL := order.AuthzURLs[0]
	authz, err := client.GetAuthorization(ctx, authzURL)
	if err != nil {
		return challengestore.Challenge{}, fmt.Errorf("get authorization: %w", classify(err))
	}

	var chal *acme.Challenge
	for _, c := range authz.Challenges {
		if c.Type == method {
			chal = c
			break
		}
	}
	if chal == nil {
		return challengestore.Challenge{}, fmt.Errorf("%w: %s for %s", ErrChallengeUnavailable, method, domain)
	}

	return challengestore.Challenge{
		Domain:        domain,
		Method:        method,
		Token:         chal.Token,
		OrderURL:      order.URI,
		AuthzURL:      authzURL,
		ChallengeURL:  chal.URI,
		CSR:           csr,
		PrivateKeyPEM: certcrypto.PEMEncode(key),
	}, nil
}

// acceptOnce tells the CA the challenge is ready and waits for its decision.
func (o *Orchestrator) acceptOnce(ctx context.Context, client acmeClient, pending challengestore.Challenge) error {
	if _, err := client.Accept(ctx, &acme.Challenge{URI: pending.ChallengeURL, Type: pending.Method, Token: pending.Token}); err != nil {
		return fmt.Errorf("accept challenge: %w", classify(err))
	}

	wctx, cancel := context.WithTimeout(ctx, o.cfg.challengeTimeout)
	defer cancel()

	if _, err := client.WaitAuthorization(wctx, pending.AuthzURL); err != nil {
		var authzErr *acme.AuthorizationError
		switch {
		case errors.As(err, &authzErr):
			return fmt.Errorf("%w: %w", ErrChallengeInvalid, err)
		case ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded):
			return fmt.Errorf("%w after %s", ErrChallengeTimeout, o.cfg.challengeTimeout)
		default:
			return fmt.Errorf("wait authorization: %w", classify(err))
		}
	}
	return nil
}

// validate drives the authorization to valid under the validation schedule.
func (o *Orchestrator) validate(ctx context.Context, client acmeClient, pending challengestore.Challenge, log *slog.Logger) error {
	err := async.Retry(ctx, async.Schedule(o.cfg.validationDelays...), func(ctx context.Context, attempt int) error {
		o.cfg.observer.ValidationAttempt(pending.Domain, attempt)

		authz, err := client.GetAuthorization(ctx, pending.AuthzURL)
		if err != nil {
			return o.retryable(classify(err))
		}
		switch authz.Status {
		case acme.StatusValid:
			log.InfoContext(ctx, "challenge valid", logger.Attempt(attempt))
			return nil
		case acme.StatusInvalid, acme.StatusDeactivated, acme.StatusExpired, acme.StatusRevoked:
			return async.Permanent(fmt.Errorf("%w: authorization is %s", ErrChallengeInvalid, authz.Status))
		}

		err = o.acceptOnce(ctx, client, pending)
		if err != nil {
			log.WarnContext(ctx, "challenge validation attempt failed", logger.Attempt(attempt), logger.Error(err))
		}
		if errors.Is(err, ErrChallengeInvalid) {
			return async.Permanent(err)
		}
		return o.retryable(err)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ErrRateLimited) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrChallengeValidation, err)
}

func (o *Orchestrator) retryable(err error) error {
	if errors.Is(err, ErrRateLimited) {
		return async.Permanent(err)
	}
	return err
}

func (o *Orchestrator) settle(ctx context.Context) error {
	if o.cfg.settleDelay <= 0 {
		return nil
	}
	t := time.NewTimer(o.cfg.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// finish finalizes the order, downloads the chain and persists artifacts.
func (o *Orchestrator) finish(ctx context.Context, client acmeClient, pending challengestore.Challenge, log *slog.Logger) (*Certificate, error) {
	chain, err := o.download(ctx, client, pending, log)
	if err != nil {
		return nil, err
	}

	var certPEM []byte
	for _, der := range chain {
		certPEM = append(certPEM, certcrypto.PEMEncode(certcrypto.DERCertificateBytes(der))...)
	}

	issued := time.Now()
	expires := issued.Add(defaultValidity)
	if leaf, err := certcrypto.ParsePEMCertificate(certPEM); err == nil {
		expires = leaf.NotAfter
	} else {
		log.WarnContext(ctx, "cannot parse issued certificate, assuming 90 day validity", logger.Error(err))
	}

	certPath, keyPath, err := writeArtifacts(o.cfg.certDir, pending.Domain, issued, certPEM, pending.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	o.mirror(ctx, certPath, certPEM, keyPath, pending.PrivateKeyPEM, log)

	log.InfoContext(ctx, "certificate issued", slog.String("path", certPath), slog.Time("expires_at", expires))
	return &Certificate{
		Domain:          pending.Domain,
		Method:          pending.Method,
		CertificatePEM:  certPEM,
		PrivateKeyPEM:   pending.PrivateKeyPEM,
		CertificatePath: certPath,
		PrivateKeyPath:  keyPath,
		IssuedAt:        issued,
		ExpiresAt:       expires,
	}, nil
}

// download finalizes once, then falls back to fetching from the order's
// certificate URL under the download policy.
func (o *Orchestrator) download(ctx context.Context, client acmeClient, pending challengestore.Challenge, log *slog.Logger) ([][]byte, error) {
	order, err := client.GetOrder(ctx, pending.OrderURL)
	if err != nil {
		return nil, fmt.Errorf("%w: get order: %w", ErrCertificateDownload, classify(err))
	}

	if order.Status == acme.StatusReady {
		der, _, err := client.CreateOrderCert(ctx, order.FinalizeURL, pending.CSR, true)
		if err == nil && len(der) > 0 {
			return der, nil
		}
		log.WarnContext(ctx, "finalize did not return a certificate", logger.Error(err))
		if errors.Is(classify(err), ErrRateLimited) {
			return nil, classify(err)
		}
		if order, err = client.GetOrder(ctx, pending.OrderURL); err != nil {
			return nil, fmt.Errorf("%w: get order: %w", ErrCertificateDownload, classify(err))
		}
	}

	if order.Status == acme.StatusProcessing {
		wctx, cancel := context.WithTimeout(ctx, o.cfg.challengeTimeout)
		order, err = client.WaitOrder(wctx, pending.OrderURL)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: wait order: %w", ErrCertificateDownload, classify(err))
		}
	}

	if order.Status != acme.StatusValid || order.CertURL == "" {
		return nil, fmt.Errorf("%w: order status %q", ErrCertificateDownload, order.Status)
	}

	var chain [][]byte
	err = async.Retry(ctx, async.Linear(o.cfg.downloadBase, o.cfg.downloadAttempts-1), func(ctx context.Context, attempt int) error {
		o.cfg.observer.DownloadAttempt(pending.Domain, attempt)
		der, err := client.FetchCert(ctx, order.CertURL, true)
		if err != nil {
			log.WarnContext(ctx, "certificate download failed", logger.Attempt(attempt), logger.Error(err))
			return o.retryable(classify(err))
		}
		chain = der
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCertificateDownload, err)
	}
	return chain, nil
}

func (o *Orchestrator) mirror(ctx context.Context, certPath string, certPEM []byte, keyPath string, keyPEM []byte, log *slog.Logger) {
	if o.cfg.mirror == nil {
		return
	}
	for path, data := range map[string][]byte{certPath: certPEM, keyPath: keyPEM} {
		if err := o.cfg.mirror.Put(ctx, filepath.Base(path), data, pemContentType); err != nil {
			log.WarnContext(ctx, "artifact mirror failed", slog.String("file", filepath.Base(path)), logger.Error(err))
		}
	}
}

func validateInput(domain, email string) (string, string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	email = strings.TrimSpace(email)

	if domain == "" {
		return "", "", fmt.Errorf("%w: domain is required", ErrValidationInput)
	}
	if strings.ContainsAny(domain, " /:@") || strings.Count(domain, "*") > 1 ||
		(strings.Contains(domain, "*") && !strings.HasPrefix(domain, "*.")) {
		return "", "", fmt.Errorf("%w: invalid domain %q", ErrValidationInput, domain)
	}
	if email == "" {
		return "", "", fmt.Errorf("%w: email is required", ErrValidationInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", fmt.Errorf("%w: invalid email %q", ErrValidationInput, email)
	}
	return domain, email, nil
}

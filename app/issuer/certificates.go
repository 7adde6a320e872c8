package issuer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/pkg/async"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
)

const (
	msgNoDNSChallenge = "No DNS challenge information found. Please start a new certificate request."
	msgNoPendingDNS   = "No pending DNS certificate request found for this domain. Please start a new certificate request."
)

func parseMethod(challengeType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(challengeType)) {
	case "", certrequest.MethodHTTP, "http-01":
		return certrequest.MethodHTTP, true
	case certrequest.MethodDNS, "dns-01":
		return certrequest.MethodDNS, true
	default:
		return "", false
	}
}

func dnsDataOf(p *certrequest.Pending) *certrequest.DNSData {
	return &certrequest.DNSData{
		Domain:      p.Domain,
		RecordName:  p.RecordName,
		RecordValue: p.RecordValue,
		Fallback:    p.Fallback,
	}
}

// generate starts a certificate request. HTTP-01 runs to completion in the
// background. DNS-01 prepares the record in the background and waits a
// bounded time so the record can usually be returned right away.
func (a *App) generate(ctx *Context) handler.Response {
	var req certrequest.GenerateRequest
	if err := bind(ctx, &req, "Domain and email are required"); err != nil {
		return response.Error(err)
	}
	domain, email := req.Domain, req.Email
	method, ok := parseMethod(req.ChallengeType)
	if !ok {
		return response.Error(response.ErrBadRequest.WithMessage("Challenge type must be http or dns"))
	}

	sid, userID := ctx.SessionID(), ctx.UserID()
	pending, err := a.tracker.Submit(ctx, sid, certrequest.Pending{Domain: domain, Email: email, Method: method})
	if err != nil {
		return response.Error(err)
	}
	a.log.InfoContext(ctx, "certificate requested",
		logger.Domain(domain), logger.Challenge(method), logger.UserID(userID), logger.RequestID(pending.RequestID))

	if method == certrequest.MethodHTTP {
		a.runner.Go("http-issuance", func(tctx context.Context) error {
			return a.issueHTTP(tctx, sid, userID, pending)
		})
		return response.JSONWithStatus(certrequest.ProcessingResponse{
			Success: true,
			Status:  "processing",
			Message: "Certificate generation started. This may take a few minutes...",
		}, http.StatusAccepted)
	}

	fut := a.runner.Go("dns-prepare", func(tctx context.Context) error {
		return a.prepareDNS(tctx, sid, pending)
	})
	resp := certrequest.ProcessingResponse{
		Success: true,
		Status:  "processing",
		Message: "DNS challenge is being prepared. Check the challenge status for the TXT record.",
	}
	if err := fut.AwaitWithTimeout(a.cfg.DNSPrepareWait); err != nil {
		if !errors.Is(err, async.ErrTimeout) {
			// The failure is in the session; the status endpoint reports it.
			a.log.DebugContext(ctx, "dns challenge preparation failed", logger.Domain(domain), logger.Error(err))
		}
		return response.JSONWithStatus(resp, http.StatusAccepted)
	}

	st, err := a.tracker.Current(ctx, sid)
	if err != nil {
		return response.Error(err)
	}
	if status, p := st.DNSStatus(); status == certrequest.PrepReady && p.RequestID == pending.RequestID {
		resp.Message = "DNS challenge prepared successfully. Create the TXT record below, then verify."
		resp.DNSData = dnsDataOf(p)
	}
	return response.JSONWithStatus(resp, http.StatusAccepted)
}

func (a *App) dnsChallengeStatus(ctx *Context) handler.Response {
	st, err := a.tracker.Current(ctx, ctx.SessionID())
	if err != nil {
		return response.Error(err)
	}

	status, p := st.DNSStatus()
	resp := certrequest.DNSStatusResponse{Success: true, Status: status}
	switch status {
	case certrequest.PrepNone:
		resp.Success = false
		resp.Message = msgNoDNSChallenge
	case certrequest.PrepPreparing:
		resp.Message = "DNS challenge is being prepared. Please wait..."
	case certrequest.PrepReady:
		resp.DNSData = dnsDataOf(p)
	case certrequest.PrepError:
		resp.Success = false
		resp.Message = p.PrepareError
	}
	return response.NoStore(response.JSON(resp))
}

func (a *App) checkDNS(ctx *Context) handler.Response {
	var req certrequest.CheckDNSRequest
	if err := bind(ctx, &req, ""); err != nil {
		return response.Error(err)
	}
	sid := ctx.SessionID()
	st, err := a.tracker.Current(ctx, sid)
	if err != nil {
		return response.Error(err)
	}

	p := st.Pending
	if !p.IsDNS() {
		p = nil
	}
	domain, expected := req.Domain, req.RecordValue

	if expected == "" {
		if p == nil || p.RecordValue == "" {
			return response.Error(response.ErrBadRequest.WithMessage(msgNoDNSChallenge))
		}
		if domain == "" {
			domain = p.Domain
		}
		if domain != p.Domain {
			return response.Error(response.ErrBadRequest.WithMessage("Domain mismatch with pending request"))
		}
		expected = p.RecordValue
	}
	if domain == "" {
		return response.Error(response.ErrBadRequest.WithMessage("Domain is required"))
	}

	if err := a.verifier.Verify(ctx, domain, expected); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response.Error(ctxErr)
		}
		ref := p
		if ref == nil || ref.Domain != domain || req.RecordValue != "" {
			ref = &certrequest.Pending{Domain: domain, Method: certrequest.MethodDNS, RecordValue: expected}
		}
		_, details := certrequest.DetailsFor(err, ref)
		return response.JSONWithStatus(certrequest.CheckDNSResponse{
			Success: false,
			Message: "DNS verification failed",
			Domain:  domain,
			Details: details,
			Error:   err.Error(),
		}, http.StatusBadRequest)
	}

	if p != nil && p.Domain == domain {
		if _, err := a.tracker.MarkDNSVerified(ctx, sid, domain); err != nil {
			a.log.WarnContext(ctx, "failed to record dns verification", logger.Domain(domain), logger.Error(err))
		}
	}
	return response.JSON(certrequest.CheckDNSResponse{
		Success: true,
		Message: "DNS record verified successfully",
		Domain:  domain,
	})
}

func (a *App) verifyDNS(ctx *Context) handler.Response {
	var req certrequest.VerifyDNSRequest
	if err := bind(ctx, &req, ""); err != nil {
		return response.Error(err)
	}
	sid, userID := ctx.SessionID(), ctx.UserID()
	st, err := a.tracker.Current(ctx, sid)
	if err != nil {
		return response.Error(err)
	}

	p := st.Pending
	domain := req.Domain
	if !p.IsDNS() || (domain != "" && domain != p.Domain) {
		return response.Error(response.ErrBadRequest.WithMessage(msgNoPendingDNS))
	}
	switch {
	case p.PrepareError != "":
		return response.Error(response.ErrBadRequest.WithMessage(
			"The DNS challenge could not be prepared. Please start a new certificate request."))
	case !p.Prepared:
		return response.Error(response.ErrBadRequest.WithMessage(
			"The DNS challenge is still being prepared. Please wait and try again."))
	case p.Fallback:
		return response.Error(response.ErrBadRequest.WithMessage(
			"The DNS challenge was not registered with the certificate authority. Please start a new certificate request."))
	}

	pending := *p
	a.runner.Go("dns-completion", func(tctx context.Context) error {
		return a.completeDNS(tctx, sid, userID, pending, req.UseVerifiedChallenge)
	})
	return response.JSONWithStatus(certrequest.ProcessingResponse{
		Success: true,
		Status:  "processing",
		Message: "Verification and certificate generation started. This may take a few minutes.",
	}, http.StatusAccepted)
}

func (a *App) status(ctx *Context) handler.Response {
	snap, err := a.tracker.Consume(ctx, ctx.SessionID())
	if err != nil {
		return response.Error(err)
	}
	return response.NoStore(response.JSON(certrequest.StatusFrom(snap)))
}

package issuer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certdb"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
)

// Background tasks report into the session through the tracker. A result
// for a superseded request is dropped by the tracker. Outcomes are saved
// even when shutdown cancels the task.

func (a *App) taskLogger(p certrequest.Pending, sid uuid.UUID) *slog.Logger {
	return a.log.With(
		logger.Domain(p.Domain),
		logger.Challenge(p.Method),
		logger.RequestID(p.RequestID),
		logger.SessionID(sid.String()),
	)
}

func (a *App) issueHTTP(ctx context.Context, sid uuid.UUID, userID string, p certrequest.Pending) error {
	cert, err := a.issuer.BeginHTTPChallenge(ctx, p.Domain, p.Email)
	return a.conclude(ctx, sid, userID, p, cert, err)
}

func (a *App) prepareDNS(ctx context.Context, sid uuid.UUID, p certrequest.Pending) error {
	log := a.taskLogger(p, sid)

	rec, err := a.issuer.BeginDNSChallenge(ctx, p.Domain, p.Email)
	if err != nil {
		msg, _ := certrequest.DetailsFor(err, &p)
		if _, terr := a.tracker.MarkPrepareFailed(context.WithoutCancel(ctx), sid, p.RequestID, msg+": "+err.Error()); terr != nil {
			log.ErrorContext(ctx, "failed to record dns preparation failure", logger.Errors(err, terr))
		}
		return fmt.Errorf("prepare dns challenge: %w", err)
	}

	applied, err := a.tracker.MarkPrepared(context.WithoutCancel(ctx), sid, p.RequestID, rec.Name, rec.Value, rec.Fallback)
	if err != nil {
		return fmt.Errorf("record dns challenge: %w", err)
	}
	if !applied {
		log.InfoContext(ctx, "dns challenge prepared for a superseded request")
	}
	return nil
}

func (a *App) completeDNS(ctx context.Context, sid uuid.UUID, userID string, p certrequest.Pending, verified bool) error {
	var (
		cert *letsencrypt.Certificate
		err  error
	)
	if verified {
		cert, err = a.issuer.CompleteVerifiedDNSChallenge(ctx, p.Domain, p.Email, p.RecordValue)
	} else {
		cert, err = a.issuer.CompleteDNSChallenge(ctx, p.Domain, p.RecordValue)
	}
	return a.conclude(ctx, sid, userID, p, cert, err)
}

// conclude records an issuance outcome: the certificate record plus the
// completed slot on success, the failure slot with user-facing details
// otherwise.
func (a *App) conclude(ctx context.Context, sid uuid.UUID, userID string, p certrequest.Pending, cert *letsencrypt.Certificate, issueErr error) error {
	log := a.taskLogger(p, sid)

	if issueErr == nil && cert == nil {
		issueErr = errors.New("issuer returned no certificate")
	}
	if issueErr != nil {
		return a.fail(ctx, log, sid, p, issueErr)
	}

	rec, err := a.certs.Add(context.WithoutCancel(ctx), certdb.Record{
		UserID:             userID,
		Domain:             cert.Domain,
		ExpiresAt:          cert.ExpiresAt,
		CertificatePath:    cert.CertificatePath,
		PrivateKeyPath:     cert.PrivateKeyPath,
		VerificationMethod: p.Method,
	})
	if err != nil {
		return a.fail(ctx, log, sid, p, fmt.Errorf("save certificate record: %w", err))
	}

	applied, err := a.tracker.Complete(context.WithoutCancel(ctx), sid, p.RequestID, certrequest.Completed{
		Domain:        cert.Domain,
		CertificateID: rec.ID,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to record completed certificate", logger.Error(err))
		return fmt.Errorf("record completion: %w", err)
	}
	log.InfoContext(ctx, "certificate issued",
		logger.Key("certificate_id", rec.ID),
		logger.Key("expires_at", cert.ExpiresAt),
		logger.Key("superseded", !applied),
	)
	return nil
}

func (a *App) fail(ctx context.Context, log *slog.Logger, sid uuid.UUID, p certrequest.Pending, cause error) error {
	msg, details := certrequest.DetailsFor(cause, &p)
	if _, err := a.tracker.Fail(context.WithoutCancel(ctx), sid, p.RequestID, certrequest.Failure{
		Domain:  p.Domain,
		Message: msg,
		Details: details,
	}); err != nil {
		log.ErrorContext(ctx, "failed to record certificate failure", logger.Errors(cause, err))
	}
	log.WarnContext(ctx, "certificate request failed", logger.Status(msg), logger.Error(cause))
	return cause
}

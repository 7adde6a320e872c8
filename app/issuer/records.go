package issuer

import (
	"errors"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certdb"
)

type certificateView struct {
	certdb.Record
	Expired bool `json:"expired"`
}

func (a *App) listCertificates(ctx *Context) handler.Response {
	records, err := a.certs.ListByUser(ctx, ctx.UserID())
	if err != nil {
		return response.Error(err)
	}
	out := make([]certificateView, 0, len(records))
	for _, r := range records {
		out = append(out, viewOfRecord(r))
	}
	return response.NoStore(response.JSON(map[string]any{"success": true, "certificates": out}))
}

func (a *App) getCertificate(ctx *Context) handler.Response {
	rec, err := a.ownedRecord(ctx)
	if err != nil {
		return response.Error(err)
	}
	return response.NoStore(response.JSON(map[string]any{"success": true, "certificate": viewOfRecord(rec)}))
}

func (a *App) downloadCertificate(ctx *Context) handler.Response {
	rec, err := a.ownedRecord(ctx)
	if err != nil {
		return response.Error(err)
	}
	switch ctx.Param("type") {
	case "cert":
		return response.Download(rec.CertificatePath, rec.Domain+"_certificate.pem")
	case "key":
		return response.NoStore(response.Download(rec.PrivateKeyPath, rec.Domain+"_privatekey.pem"))
	default:
		return response.Error(response.ErrBadRequest.WithMessage("Invalid download type"))
	}
}

// ownedRecord loads the {id} record of the signed-in user. Records of other
// users are reported as missing.
func (a *App) ownedRecord(ctx *Context) (certdb.Record, error) {
	rec, err := a.certs.GetForUser(ctx, ctx.Param("id"), ctx.UserID())
	if errors.Is(err, certdb.ErrNotFound) {
		return certdb.Record{}, response.ErrNotFound.WithMessage("Certificate not found")
	}
	return rec, err
}

func viewOfRecord(r certdb.Record) certificateView {
	return certificateView{Record: r, Expired: !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(time.Now())}
}

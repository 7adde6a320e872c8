// Package response builds handler.Response values: JSON and text bodies,
// file downloads, and structured HTTP errors.
//
//	func show(ctx *issuer.Context) handler.Response {
//		rec, err := store.Get(ctx, ctx.Param("id"))
//		if err != nil {
//			return response.Error(response.ErrNotFound.WithMessage("Certificate not found"))
//		}
//		return response.JSON(rec)
//	}
//
// # Errors
//
// HTTPError carries a status, a machine-readable code and a message and
// implements error. JSONErrorHandler renders any error: an HTTPError is used
// as is, an error with a StatusCode() int method maps to the predefined error
// for that status, and everything else becomes a 500 without leaking the
// cause.
package response

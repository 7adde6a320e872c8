// Package binder decodes request bodies into Go values.
//
//	var req certrequest.GenerateRequest
//	if err := binder.JSON()(ctx.Request(), &req); err != nil {
//		return response.Error(response.ErrBadRequest.WithError(err))
//	}
//
// Errors wrap ErrMissingContentType, ErrUnsupportedMediaType or
// ErrFailedToParseJSON.
package binder

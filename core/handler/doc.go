// Package handler defines the generic handler types shared by the router,
// the response helpers and the application.
//
// A handler receives a typed context and returns a Response, a deferred
// renderer. Handlers never write to the ResponseWriter directly:
//
//	func status(ctx *issuer.Context) handler.Response {
//		return response.JSON(map[string]string{"status": "no_pending_requests"})
//	}
//
// Errors returned while rendering go to the router's ErrorHandler, so a
// handler can return response.Error(err) and let one place decide the
// status code and body.
//
// Middleware wraps HandlerFunc values of the same context type:
//
//	func requireUser(next handler.HandlerFunc[*issuer.Context]) handler.HandlerFunc[*issuer.Context] {
//		return func(ctx *issuer.Context) handler.Response {
//			if ctx.UserID() == "" {
//				return response.Error(response.ErrUnauthorized)
//			}
//			return next(ctx)
//		}
//	}
package handler

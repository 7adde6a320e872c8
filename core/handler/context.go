package handler

import (
	"context"
	"net/http"
)

// Context is the request context handlers receive. It embeds the request's
// context.Context so it can be passed straight to blocking calls.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// Param returns a URL path parameter, or "" when the route has none by that name.
	Param(key string) string
	SetValue(key, val any)
}

package router

import (
	"net/http"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
)

// Router registers typed handlers and serves them as an http.Handler.
type Router[C handler.Context] interface {
	http.Handler

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])

	// Use appends middleware to every route registered on this router afterwards.
	Use(middlewares ...handler.Middleware[C])
	// With returns a router sharing the same routes whose registrations get extra middleware.
	With(middlewares ...handler.Middleware[C]) Router[C]
	// Group runs fn with a router scoped to a copy of the current middleware stack.
	Group(fn func(r Router[C]))
	// Route mounts a subrouter under pattern.
	Route(pattern string, fn func(r Router[C]))
	// Mount attaches a plain http.Handler under pattern.
	Mount(pattern string, h http.Handler)
}

// New creates a Router. A context factory is required unless C is *Context.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux(opts...)
}

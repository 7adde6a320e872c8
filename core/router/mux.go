package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

type mux[C handler.Context] struct {
	chi          chi.Router
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(w http.ResponseWriter, r *http.Request) C
	logger       *slog.Logger
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		chi:          chi.NewRouter(),
		errorHandler: defaultErrorHandler[C],
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = defaultContextFactory[C]()
	}

	m.chi.NotFound(m.wrap(func(C) handler.Response {
		return func(http.ResponseWriter, *http.Request) error { return ErrNotFound }
	}))
	m.chi.MethodNotAllowed(m.wrap(func(C) handler.Response {
		return func(http.ResponseWriter, *http.Request) error { return ErrMethodNotAllowed }
	}))

	return m
}

func defaultContextFactory[C handler.Context]() func(http.ResponseWriter, *http.Request) C {
	return func(w http.ResponseWriter, r *http.Request) C {
		var c any = NewContext(w, r)
		ctx, ok := c.(C)
		if !ok {
			panic(ErrNoContextFactory)
		}
		return ctx
	}
}

func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.chi.ServeHTTP(w, r)
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.chi.Get(pattern, m.wrap(h))
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.chi.Post(pattern, m.wrap(h))
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.chi.Put(pattern, m.wrap(h))
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.chi.Delete(pattern, m.wrap(h))
}

func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return m.child(m.chi, middlewares)
}

func (m *mux[C]) Group(fn func(r Router[C])) {
	fn(m.child(m.chi, nil))
}

func (m *mux[C]) Route(pattern string, fn func(r Router[C])) {
	m.chi.Route(pattern, func(cr chi.Router) {
		fn(m.child(cr, nil))
	})
}

func (m *mux[C]) Mount(pattern string, h http.Handler) {
	m.chi.Mount(pattern, h)
}

// child shares the chi tree but owns a copy of the middleware stack.
func (m *mux[C]) child(cr chi.Router, extra []handler.Middleware[C]) *mux[C] {
	mws := make([]handler.Middleware[C], 0, len(m.middlewares)+len(extra))
	mws = append(mws, m.middlewares...)
	mws = append(mws, extra...)
	return &mux[C]{
		chi:          cr,
		middlewares:  mws,
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}
}

// wrap binds h to the middleware stack as of registration time.
func (m *mux[C]) wrap(h handler.HandlerFunc[C]) http.HandlerFunc {
	fn := chain(m.middlewares, h)
	return func(w http.ResponseWriter, r *http.Request) {
		ww := newResponseWriter(w)
		ctx := m.newContext(ww, r)

		defer func() {
			if p := recover(); p != nil {
				perr := &panicError{value: p, stack: debug.Stack()}
				if ww.Written() {
					m.logger.ErrorContext(r.Context(), "panic after response written",
						logger.Key("panic", perr.value),
						logger.Path(r.URL.Path),
						logger.Method(r.Method),
						logger.StatusCode(ww.Status()),
					)
					return
				}
				m.errorHandler(ctx, perr)
			}
		}()

		resp := fn(ctx)
		if resp == nil {
			m.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp(ww, r); err != nil {
			if ww.Written() {
				m.logger.ErrorContext(r.Context(), "response failed after write", logger.Error(err), logger.Path(r.URL.Path))
				return
			}
			m.errorHandler(ctx, err)
		}
	}
}

// chain applies middlewares so the first one is outermost.
func chain[C handler.Context](middlewares []handler.Middleware[C], h handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

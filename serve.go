// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"rivaas.dev/dispatch/constraint"
)

// Param is one captured path parameter.
type Param struct {
	Key   string
	Value string
}

// Match is the result of a successful lookup.
type Match struct {
	Handler http.Handler
	Pattern string // Registered route pattern, e.g. "/users/:id"
	Params  []Param
}

// paramsKey is the context key under which ServeHTTP stores path parameters.
type paramsKey struct{}

// ParamsFromContext returns the path parameters captured for the request, or
// nil when the matched route has none.
func ParamsFromContext(ctx context.Context) []Param {
	params, _ := ctx.Value(paramsKey{}).([]Param)
	return params
}

// ParamFromContext returns one named path parameter, or "".
func ParamFromContext(ctx context.Context, key string) string {
	for _, p := range ParamsFromContext(ctx) {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Lookup resolves a request to a handler without invoking it.
//
// Constraint values are derived from the request exactly once, then consulted
// at the matched tree node: constrained handlers are tried first, and the
// node's default handler applies only if no must-match strategy derived a
// value. A request whose derivation produced a version expectation therefore
// reports no match at a node that has only a default handler, rather than
// being served by a handler that ignores the expectation.
func (r *Router) Lookup(req *http.Request) (*Match, bool) {
	root := r.trees[req.Method]
	if root == nil {
		return nil, false
	}

	derived := r.registry.Derive(req, req.Context())

	var params []Param
	terminal := root.lookup(req.URL.Path, &params)
	if terminal == nil {
		return nil, false
	}

	rt := r.resolve(terminal, derived)
	if rt == nil {
		return nil, false
	}
	return &Match{Handler: rt.handler, Pattern: terminal.pattern, Params: params}, true
}

// resolve picks the route served by a terminal node for the given derived
// constraints: constrained store first, default handler second, gated by the
// must-match policy.
func (r *Router) resolve(n *node, derived *constraint.Derived) *route {
	if !n.constrained.Empty() {
		if h := n.constrained.Match(derived); h != nil {
			return h.(*route)
		}
	}
	if n.route != nil && r.registry.MatchAllowed(derived) {
		return n.route
	}
	return nil
}

// ServeHTTP implements http.Handler.
//
// For each request: observability start hook, one constraint derivation plus
// tree lookup, parameter injection into the request context, handler
// execution, observability end hook with the matched pattern (or the
// "_not_found" sentinel).
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var obsState any
	if r.observability != nil {
		var ctx context.Context
		ctx, obsState = r.observability.OnRequestStart(req.Context(), req)
		req = req.WithContext(ctx)
		if obsState != nil {
			w = r.observability.WrapResponseWriter(w, obsState)
		}
	}

	m, ok := r.Lookup(req)
	if !ok {
		r.notFound.ServeHTTP(w, req)
		if obsState != nil {
			r.observability.OnRequestEnd(req.Context(), obsState, w, "_not_found")
		}
		return
	}

	if len(m.Params) > 0 {
		req = req.WithContext(context.WithValue(req.Context(), paramsKey{}, m.Params))
	}
	m.Handler.ServeHTTP(w, req)

	if obsState != nil {
		r.observability.OnRequestEnd(req.Context(), obsState, w, m.Pattern)
	}
}

// Serve starts an HTTP server on addr with production-safe timeouts,
// blocking until the server exits. With H2C enabled the handler speaks
// HTTP/2 cleartext; use only in development or behind a trusted load
// balancer.
func (r *Router) Serve(addr string) error {
	h := http.Handler(r)
	if r.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
		r.emit(DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}
	return r.listenAndServe(addr, h, func(srv *http.Server) error {
		return srv.ListenAndServe()
	})
}

// ServeTLS starts an HTTPS server on addr. HTTP/2 is negotiated via ALPN.
func (r *Router) ServeTLS(addr, certFile, keyFile string) error {
	return r.listenAndServe(addr, r, func(srv *http.Server) error {
		return srv.ListenAndServeTLS(certFile, keyFile)
	})
}

func (r *Router) listenAndServe(addr string, h http.Handler, run func(*http.Server) error) error {
	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()

	return run(srv)
}

// Shutdown gracefully shuts down a server started by Serve or ServeTLS.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMu.Lock()
	srv := r.server
	r.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

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
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"rivaas.dev/dispatch/constraint"
)

// noopLogger is a singleton no-op logger used when no logger is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// Option defines functional options for router configuration.
type Option func(*Router)

// Middleware wraps a handler with cross-cutting behavior. Middleware is
// applied to routes registered after the Use call, outermost first.
type Middleware func(http.Handler) http.Handler

// Router matches HTTP requests to registered routes, honoring per-route
// constraints derived from the request (version, host, custom kinds).
//
// Routes are registered during a single-threaded configuration phase; after
// traffic starts, the tree is read-only and Lookup/ServeHTTP are safe for
// unlimited concurrent use without locking.
type Router struct {
	trees         map[string]*node // Method to tree root
	registry      *constraint.Registry
	middleware    []Middleware
	logger        *slog.Logger
	observability ObservabilityRecorder
	diagnostics   DiagnosticHandler
	notFound      http.Handler

	// Construction-time state consumed by New.
	strategies     []constraint.Strategy
	serverTimeouts *serverTimeouts
	enableH2C      bool

	server   *http.Server
	serverMu sync.Mutex
	mu       sync.Mutex // Serializes registration
}

// route is one registered handler with its registration metadata. Routes are
// stored by pointer so constrained sub-stores can compare them for identity.
type route struct {
	method      string
	pattern     string
	handler     http.Handler
	constraints map[string]string
}

// New creates a router and applies options. It fails fast on configuration
// errors: malformed custom constraint strategies and invalid server timeouts
// surface here rather than at first request.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		trees:    make(map[string]*node, 9),
		logger:   noopLogger,
		notFound: http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.serverTimeouts != nil {
		if err := r.serverTimeouts.validate(); err != nil {
			return nil, err
		}
	}

	registry, err := constraint.NewRegistry(r.strategies...)
	if err != nil {
		return nil, fmt.Errorf("constraint strategies: %w", err)
	}
	r.registry = registry
	r.strategies = nil

	return r, nil
}

// MustNew is like New but panics on configuration errors. Intended for
// static configurations known to be valid.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Registry returns the router's constraint registry, for callers that embed
// the router and need direct access to strategy state (e.g. to register a
// strategy after construction, before any route uses it).
func (r *Router) Registry() *constraint.Registry {
	return r.registry
}

// Use appends global middleware. Middleware applies to routes registered
// after the call; register middleware before routes.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

// RouteOption configures one route registration.
type RouteOption func(*routeConfig)

type routeConfig struct {
	constraints map[string]string
}

// WithConstraints declares request-derived constraints for a route. Keys
// name registered strategies ("version", "host", or custom); values use each
// strategy's own syntax. Unknown keys and invalid values abort the
// registration.
func WithConstraints(constraints map[string]string) RouteOption {
	return func(cfg *routeConfig) {
		if cfg.constraints == nil {
			cfg.constraints = make(map[string]string, len(constraints))
		}
		maps.Copy(cfg.constraints, constraints)
	}
}

// WithVersion constrains a route to requests whose Accept-Version header
// satisfies the given semantic-version range (e.g. "1.2.0", "^1.0.0").
func WithVersion(versionRange string) RouteOption {
	return WithConstraints(map[string]string{constraint.VersionStrategy: versionRange})
}

// WithHost constrains a route to requests for the given host. "*." prefixes
// match any subdomain.
func WithHost(host string) RouteOption {
	return WithConstraints(map[string]string{constraint.HostStrategy: host})
}

// Handle registers a handler for the given method and path pattern.
//
// Registration order for constrained routes follows a strict sequence:
// validate the constraint map (failure aborts before the tree is touched),
// insert the tree node, mark the constraint kinds used (which specializes
// per-request derivation), then store the handler keyed by its constraint
// values. A route registered twice for the same method, path and constraint
// value replaces the earlier handler.
func (r *Router) Handle(method, pattern string, handler http.Handler, opts ...RouteOption) error {
	if handler == nil {
		return ErrNilHandler
	}
	if method == "" {
		return ErrInvalidMethod
	}
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, pattern)
	}

	var cfg routeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(cfg.constraints) > 0 {
		if err := r.registry.Validate(cfg.constraints); err != nil {
			return fmt.Errorf("route %s %s: %w", method, pattern, err)
		}
	}

	rt := &route{
		method:      method,
		pattern:     pattern,
		handler:     chain(r.middleware, handler),
		constraints: maps.Clone(cfg.constraints),
	}

	root := r.trees[method]
	if root == nil {
		root = &node{}
		r.trees[method] = root
	}
	terminal := root.insert(pattern)

	if len(cfg.constraints) == 0 {
		if terminal.route != nil {
			r.emit(DiagRouteReplaced, "default route replaced", map[string]any{
				"method": method, "pattern": pattern,
			})
		}
		terminal.route = rt
	} else {
		// Deterministic kind order regardless of map iteration.
		names := make([]string, 0, len(cfg.constraints))
		for name := range cfg.constraints {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if err := r.registry.MarkUsed(name); err != nil {
				return fmt.Errorf("route %s %s: %w", method, pattern, err)
			}
		}
		if terminal.constrained == nil {
			terminal.constrained = &constraint.NodeStore{}
		}
		for _, name := range names {
			if err := terminal.constrained.Put(r.registry, name, cfg.constraints[name], rt); err != nil {
				return fmt.Errorf("route %s %s: %w", method, pattern, err)
			}
		}
		if terminal.route != nil {
			// Informational only: the node now mixes constrained and
			// default handlers, which is valid but worth surfacing.
			r.emit(DiagMixedNode, "node carries constrained and default handlers", map[string]any{
				"method": method, "pattern": pattern,
			})
		}
	}

	r.logger.Debug("route registered",
		"method", method,
		"pattern", pattern,
		"constraints", len(cfg.constraints),
	)
	return nil
}

// GET registers a handler for GET requests.
func (r *Router) GET(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodGet, pattern, handler, opts...)
}

// POST registers a handler for POST requests.
func (r *Router) POST(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodPost, pattern, handler, opts...)
}

// PUT registers a handler for PUT requests.
func (r *Router) PUT(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodPut, pattern, handler, opts...)
}

// PATCH registers a handler for PATCH requests.
func (r *Router) PATCH(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodPatch, pattern, handler, opts...)
}

// DELETE registers a handler for DELETE requests.
func (r *Router) DELETE(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodDelete, pattern, handler, opts...)
}

// HEAD registers a handler for HEAD requests.
func (r *Router) HEAD(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodHead, pattern, handler, opts...)
}

// OPTIONS registers a handler for OPTIONS requests.
func (r *Router) OPTIONS(pattern string, handler http.Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodOptions, pattern, handler, opts...)
}

// chain wraps handler in the middleware list, outermost first.
func chain(mw []Middleware, handler http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// emit forwards a diagnostic event to the configured handler, if any.
func (r *Router) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if r.diagnostics != nil {
		r.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: message, Fields: fields})
	}
}

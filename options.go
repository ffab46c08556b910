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
	"log/slog"
	"net/http"
	"time"

	"rivaas.dev/dispatch/constraint"
)

// WithLogger sets the structured logger used for registration-phase events.
// The router never logs on the request path.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrategies registers custom constraint strategies at construction. A
// strategy sharing a built-in name ("version", "host") overrides the
// built-in. Malformed strategies fail New with constraint.ErrInvalidStrategy.
//
// Example:
//
//	region, _ := constraint.New(constraint.Spec{
//	    Name:    "region",
//	    Storage: func() constraint.Store { return newRegionStore() },
//	    DeriveConstraint: func(req *http.Request, _ any) (string, bool) {
//	        v := req.Header.Get("X-Region")
//	        return v, v != ""
//	    },
//	})
//	r, err := dispatch.New(dispatch.WithStrategies(region))
func WithStrategies(strategies ...constraint.Strategy) Option {
	return func(r *Router) {
		r.strategies = append(r.strategies, strategies...)
	}
}

// WithObservability sets the unified observability recorder. See
// ObservabilityRecorder for the lifecycle contract.
func WithObservability(recorder ObservabilityRecorder) Option {
	return func(r *Router) {
		r.observability = recorder
	}
}

// WithDiagnostics sets a diagnostic handler for the router. Diagnostic
// events are optional informational events; the router functions the same
// whether they are collected or not.
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithNotFound sets the handler invoked when no route matches. Defaults to
// http.NotFoundHandler.
func WithNotFound(handler http.Handler) Option {
	return func(r *Router) {
		if handler != nil {
			r.notFound = handler
		}
	}
}

// WithH2C enables HTTP/2 cleartext for Serve. Only use in development or
// behind a trusted load balancer; do not enable on public-facing servers
// without TLS.
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// serverTimeouts holds the timeout configuration for Serve and ServeTLS.
type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       10 * time.Second,
		write:      30 * time.Second,
		idle:       120 * time.Second,
	}
}

func (t *serverTimeouts) validate() error {
	for _, d := range []time.Duration{t.readHeader, t.read, t.write, t.idle} {
		if d <= 0 {
			return fmt.Errorf("%w: got %v", ErrServerTimeoutInvalid, d)
		}
	}
	return nil
}

// WithServerTimeouts configures the timeouts applied by Serve and ServeTLS.
// All four values must be positive; New fails otherwise.
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

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

// Package constraint implements request-derived route constraints for the
// Rivaas dispatcher.
//
// A constraint restricts which requests a route can match beyond its method
// and path. Each kind of constraint is implemented by a Strategy, which knows
// how to extract a value from an incoming request, how to store registered
// values, and optionally how to validate values at registration time.
//
// # Built-in Strategies
//
// Two strategies ship by default:
//
//   - version: matches the Accept-Version request header against semantic
//     version ranges (e.g. "1.2.0", "^1.0.0", "1.x"). A request that carries
//     an Accept-Version header never falls back to an unconstrained handler.
//   - host: matches the request host exactly, or against "*." wildcard
//     patterns. Requests with no host-specific route still reach the
//     unconstrained handler.
//
// # Custom Strategies
//
// Custom strategies implement the Strategy interface, or are built from a
// Spec via New. A custom strategy sharing a built-in name overrides the
// built-in; override-by-name is a deliberate extension point.
//
//	region, err := constraint.New(constraint.Spec{
//	    Name:    "region",
//	    Storage: func() constraint.Store { return newRegionStore() },
//	    DeriveConstraint: func(req *http.Request, _ any) (string, bool) {
//	        v := req.Header.Get("X-Region")
//	        return v, v != ""
//	    },
//	})
//
// # Lifecycle
//
// Strategies are registered at router construction and are immutable
// afterwards. The Registry tracks which strategies are actually used by at
// least one route and specializes the per-request derivation accordingly:
// a route set that uses no constraints pays zero per-request cost, and
// unused strategies are never evaluated during dispatch.
//
// All registration-time failures (malformed strategies, unknown constraint
// keys, invalid values) surface synchronously to the caller. The lookup path
// never returns an error; a request that matches nothing is a normal
// negative result.
package constraint

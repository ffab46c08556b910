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

// Package dispatch provides a constraint-aware HTTP request router.
//
// Given a method and a path, the router locates a previously registered
// handler, optionally filtered by request-derived constraints such as a
// semantic-version header or the requested host. It is consumed
// synchronously on every incoming request, so lookup latency and allocation
// behavior bound the throughput of whatever server embeds it.
//
// # Routing
//
//   - Static routes: exact path matching with a full-path fast table
//   - Parameterized routes: segment-based matching (/users/:id)
//   - Wildcard routes: catch-all suffix matching (/static/*)
//
// # Constraints
//
// Routes may declare constraints beyond method and path. Two constraint
// kinds ship by default, and custom kinds can be registered at construction
// (see the constraint package):
//
//   - version: the Accept-Version request header matched against semantic
//     version ranges. A request that carries a version expectation is never
//     silently served by a version-agnostic handler; if nothing matches, the
//     lookup reports not found.
//   - host: the request host, matched exactly or against "*." wildcards.
//     Requests with no host-specific route still reach the generic handler.
//
//	r := dispatch.MustNew()
//	r.GET("/api/items", listV1, dispatch.WithVersion("^1.0.0"))
//	r.GET("/api/items", listV2, dispatch.WithVersion("^2.0.0"))
//	r.GET("/admin", admin, dispatch.WithHost("admin.example.com"))
//
// Constraint values are validated at registration time; a malformed value
// (e.g. an unparsable version range) aborts that registration and the route
// never enters the tree. The lookup path itself never errors: a request
// that matches nothing is a normal negative result.
//
// A route set that declares no constraints pays zero per-request derivation
// cost: the derivation function is specialized to the set of strategies in
// use and rebuilt only when that set grows.
//
// # Concurrency
//
// Routes are registered during a single-threaded configuration phase before
// traffic starts. After that the tree and per-node constraint stores are
// immutable and lookups run concurrently without locking; the compiled
// derivation and must-match functions are swapped atomically if a late
// registration does occur.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "net/http"
//	    "rivaas.dev/dispatch"
//	)
//
//	func main() {
//	    r := dispatch.MustNew()
//	    r.GET("/users/:id", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
//	        id := dispatch.ParamFromContext(req.Context(), "id")
//	        w.Write([]byte("user " + id))
//	    }))
//	    http.ListenAndServe(":8080", r)
//	}
package dispatch

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

package constraint

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
)

// Registry holds the available constraint strategies and tracks which of
// them are used by at least one registered route. It owns the two compiled
// functions consulted on every lookup: the per-request deriver (specialized
// to the used set) and the must-match gate for unconstrained handlers
// (specialized to the available set).
//
// Thread safety: registration methods (Register, MarkUsed, Validate,
// NewStoreFor) run during the single-threaded configuration phase and are
// additionally serialized by an internal mutex. The compiled functions are
// published atomically (a new function reference replaces the old one only
// after it is fully built, never mutated in place), so dispatch reads
// (Derive, MatchAllowed) are safe even while a late registration recompiles.
type Registry struct {
	mu        sync.Mutex
	available map[string]Strategy
	order     []string // available names, registration order
	used      []string // used names, first-use order; append-only

	deriver atomic.Pointer[deriver]
	gate    atomic.Pointer[defaultGate]

	recompiles int // deriver rebuild count, for tests
}

// NewRegistry creates a registry with the built-in version and host
// strategies, then registers the given custom strategies. A custom strategy
// sharing a built-in name overrides it. A malformed custom strategy (nil, or
// an empty name) fails construction with ErrInvalidStrategy.
func NewRegistry(custom ...Strategy) (*Registry, error) {
	r := &Registry{
		available: make(map[string]Strategy, 2+len(custom)),
	}
	r.add(versionStrategy{})
	r.add(hostStrategy{})
	for _, s := range custom {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	r.gate.Store(compileGate(r.order, r.available))
	return r, nil
}

// add inserts or overrides a strategy entry, keeping registration order
// stable across overrides.
func (r *Registry) add(s Strategy) {
	name := s.Name()
	if _, ok := r.available[name]; !ok {
		r.order = append(r.order, name)
	}
	r.available[name] = s
}

// Register adds a strategy to the available set, overriding any existing
// strategy with the same name (built-ins included). The must-match gate is
// recompiled immediately; the deriver is recompiled as well when the name is
// already in use, so an override takes effect for in-place names without a
// retroactive change to any other strategy's behavior.
func (r *Registry) Register(s Strategy) error {
	if s == nil {
		return fmt.Errorf("%w: nil strategy", ErrInvalidStrategy)
	}
	if s.Name() == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidStrategy)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(s)
	r.gate.Store(compileGate(r.order, r.available))
	if slices.Contains(r.used, s.Name()) {
		r.recompileDeriverLocked()
	}
	return nil
}

// Strategy returns the named strategy.
func (r *Registry) Strategy(name string) (Strategy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.available[name]
	return s, ok
}

// MarkUsed records that at least one route constrains on the named strategy.
// The used set is append-only and grows at most once per name; first use
// triggers recompilation of the deriver. Unknown names fail with
// ErrUnknownStrategy.
func (r *Registry) MarkUsed(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.available[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	if slices.Contains(r.used, name) {
		return nil
	}
	r.used = append(r.used, name)
	r.recompileDeriverLocked()
	return nil
}

// Used returns a copy of the used strategy names in first-use order.
func (r *Registry) Used() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.used)
}

// NewStoreFor returns a fresh empty value store from the named strategy's
// store factory, or ErrUnknownStrategy.
func (r *Registry) NewStoreFor(name string) (Store, error) {
	r.mu.Lock()
	s, ok := r.available[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s.NewStore(), nil
}

// Validate checks a route's constraint map before the route is inserted.
// Every key must name an available strategy; values are checked by the
// strategy's validator when it has one. Failures abort the registration of
// that route and are never deferred to request time.
func (r *Registry) Validate(constraints map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(constraints))
	for name := range constraints {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		s, ok := r.available[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
		v := validatorOf(s)
		if v == nil {
			continue
		}
		value := constraints[name]
		if err := v.Validate(value); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return err
			}
			return &ValidationError{Strategy: name, Value: value, Err: err}
		}
	}
	return nil
}

// Derive produces the constraint values for one request via the compiled
// deriver. It returns nil when no used strategy yields a value. In
// particular it returns nil at O(1) when no route uses constraints, regardless
// of how many strategies are available. ctx is passed through to strategies
// unmodified.
func (r *Registry) Derive(req *http.Request, ctx any) *Derived {
	return r.deriver.Load().derive(req, ctx)
}

// MatchAllowed reports whether a request with the given derived constraints
// may be served by an unconstrained handler, per the compiled must-match
// gate. A nil Derived is always allowed.
func (r *Registry) MatchAllowed(d *Derived) bool {
	return r.gate.Load().allows(d)
}

// recompileDeriverLocked rebuilds and publishes the specialized deriver.
// Callers hold r.mu.
func (r *Registry) recompileDeriverLocked() {
	r.deriver.Store(compileDeriver(r.used, r.available))
	r.recompiles++
}

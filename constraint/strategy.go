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
	"fmt"
	"net/http"
)

// Store holds registered constraint values for one strategy at one tree node
// and resolves a derived value to a handler.
//
// Set is called only during the registration phase; Get is called during
// dispatch after registration completes, so implementations need no internal
// locking. Where a stored value can match more than one derived value (e.g.
// version ranges), Get must resolve overlaps deterministically: ambiguity is
// settled by the store's documented precedence rule, never reported as a
// runtime fault.
//
// Handlers stored under more than one constraint kind at the same node must
// be comparable values (the dispatcher stores route pointers).
type Store interface {
	// Set inserts handler keyed by value, replacing any handler previously
	// stored under an equal value. It returns an error only for values the
	// store cannot represent; strategies with a Validate method reject such
	// values before Set is ever reached.
	Set(value string, handler any) error

	// Get returns the handler matching the derived value, or nil.
	Get(derived string) any
}

// Strategy defines one kind of route constraint: how values are stored, how
// a value is derived from an incoming request, and (via the optional
// Validator and MustMatcher interfaces) how registration-time values are
// validated and whether derived values exclude unconstrained handlers.
//
// Strategies must be pure and non-blocking: Derive operates only on the
// request and context passed in, performs no I/O, and is called on every
// lookup once the strategy is in use.
type Strategy interface {
	// Name returns the unique, non-empty strategy name. Routes reference
	// strategies by this name in their constraint maps.
	Name() string

	// NewStore returns a fresh empty store for this strategy. Called once
	// per tree node the first time the node gains a constrained handler
	// for this strategy.
	NewStore() Store

	// Derive extracts this strategy's constraint value from the request.
	// ctx is the opaque per-lookup value supplied by the dispatcher and is
	// passed through unmodified. The boolean reports whether a value was
	// present.
	Derive(req *http.Request, ctx any) (value string, ok bool)
}

// Validator is implemented by strategies that validate constraint values at
// route-registration time. Validation never runs at request time.
type Validator interface {
	Validate(value string) error
}

// MustMatcher is implemented by strategies whose derived values exclude
// unconstrained handlers: when such a strategy derives any value from a
// request, only handlers constrained on that strategy may match, and the
// absence of a match surfaces as "not found" rather than the behavior of a
// handler that ignores the constraint.
//
// Strategies that do not implement MustMatcher default to false and permit
// fallback to unconstrained handlers. The built-in version strategy is
// flagged; host is not.
type MustMatcher interface {
	MustMatchWhenDerived() bool
}

// Spec describes a custom strategy in object form, for callers that prefer
// configuration over implementing Strategy directly. Name, Storage and
// DeriveConstraint are required; Validate and MustMatchWhenDerived are
// optional.
type Spec struct {
	// Name is the unique strategy name routes reference.
	Name string

	// Storage returns a fresh empty store for the strategy.
	Storage func() Store

	// DeriveConstraint extracts the constraint value from a request.
	DeriveConstraint func(req *http.Request, ctx any) (string, bool)

	// Validate, when non-nil, checks constraint values at registration time.
	Validate func(value string) error

	// MustMatchWhenDerived excludes unconstrained handlers whenever this
	// strategy derives a value from a request.
	MustMatchWhenDerived bool
}

// New builds a Strategy from a Spec. It fails fast with ErrInvalidStrategy
// if the spec is missing a name, store factory, or deriver.
func New(spec Spec) (Strategy, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidStrategy)
	}
	if spec.Storage == nil {
		return nil, fmt.Errorf("%w: %q has no store factory", ErrInvalidStrategy, spec.Name)
	}
	if spec.DeriveConstraint == nil {
		return nil, fmt.Errorf("%w: %q has no value deriver", ErrInvalidStrategy, spec.Name)
	}
	return &specStrategy{spec: spec}, nil
}

// specStrategy adapts a Spec to the Strategy interface.
type specStrategy struct {
	spec Spec
}

func (s *specStrategy) Name() string { return s.spec.Name }

func (s *specStrategy) NewStore() Store { return s.spec.Storage() }

func (s *specStrategy) Derive(req *http.Request, ctx any) (string, bool) {
	return s.spec.DeriveConstraint(req, ctx)
}

func (s *specStrategy) Validate(value string) error {
	if s.spec.Validate == nil {
		return nil
	}
	return s.spec.Validate(value)
}

func (s *specStrategy) MustMatchWhenDerived() bool { return s.spec.MustMatchWhenDerived }

// mustMatch reports the effective must-match-when-derived flag for a
// strategy, defaulting to false for strategies without the capability.
func mustMatch(s Strategy) bool {
	if m, ok := s.(MustMatcher); ok {
		return m.MustMatchWhenDerived()
	}
	return false
}

// validatorOf returns the strategy's validator, or nil when the strategy
// performs no registration-time validation.
//
// A specStrategy with a nil Validate func still satisfies the Validator
// interface; its Validate method accepts every value, which is the same
// outcome as having no validator.
func validatorOf(s Strategy) Validator {
	if v, ok := s.(Validator); ok {
		return v
	}
	return nil
}

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

import "net/http"

// Derived holds the constraint values extracted from one request, one per
// used strategy that produced a value. A nil *Derived means no used strategy
// derived anything, distinct from an empty set, and the only representation
// the zero-constraint hot path ever allocates (it doesn't).
//
// Values are kept in a small slice rather than a map: requests rarely carry
// more than one or two constraints, and a linear scan avoids map hashing on
// every node visited during dispatch.
type Derived struct {
	values []derivedValue
}

type derivedValue struct {
	name  string
	value string
}

// Get returns the value derived for the named strategy.
func (d *Derived) Get(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	for i := range d.values {
		if d.values[i].name == name {
			return d.values[i].value, true
		}
	}
	return "", false
}

// Len returns the number of derived values. A nil Derived has length zero.
func (d *Derived) Len() int {
	if d == nil {
		return 0
	}
	return len(d.values)
}

// deriver is the compiled per-request derivation function: a fixed list of
// steps, one per used strategy, in the order the strategies were first used.
//
// The step list is rebuilt from scratch each time the used set grows and
// published atomically, so in-flight lookups always see a fully built list
// and unused strategies impose no per-request cost.
type deriver struct {
	steps []deriveStep
}

type deriveStep struct {
	name string
	fn   func(req *http.Request, ctx any) (string, bool)
}

// compileDeriver builds the specialized derivation steps for the given used
// strategies. The built-in version and host strategies get direct header
// extraction instead of an interface call; this is a fast path only and is
// semantically identical to calling their Derive. Overriding a built-in by
// name replaces the fast path along with the behavior, since the override is
// a different concrete type.
func compileDeriver(used []string, available map[string]Strategy) *deriver {
	steps := make([]deriveStep, 0, len(used))
	for _, name := range used {
		s := available[name]
		switch s.(type) {
		case versionStrategy:
			steps = append(steps, deriveStep{name: name, fn: deriveVersionHeader})
		case hostStrategy:
			steps = append(steps, deriveStep{name: name, fn: deriveRequestHost})
		default:
			steps = append(steps, deriveStep{name: name, fn: s.Derive})
		}
	}
	return &deriver{steps: steps}
}

// derive runs the compiled steps against one request. It returns nil when no
// step produced a value; the result map-equivalent is only allocated once
// the first value appears.
func (d *deriver) derive(req *http.Request, ctx any) *Derived {
	if d == nil || len(d.steps) == 0 {
		return nil
	}
	var out *Derived
	for i := range d.steps {
		v, ok := d.steps[i].fn(req, ctx)
		if !ok {
			continue
		}
		if out == nil {
			out = &Derived{values: make([]derivedValue, 0, len(d.steps))}
		}
		out.values = append(out.values, derivedValue{name: d.steps[i].name, value: v})
	}
	return out
}

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

// defaultGate is the compiled must-match decision for unconstrained handlers.
//
// A node may carry both constrained handlers and one default handler. When a
// request derives a value for a strategy flagged must-match-when-derived, the
// default handler is excluded: a request carrying a specific version
// expectation must never be silently served by a handler registered with no
// version constraint.
//
// The gate is built over ALL available strategies, not just used ones: the
// flag is a static strategy property and must apply even to strategies no
// route uses yet, so a recompilation that lags a registration cannot let a
// flagged value slip through. It is rebuilt whenever a strategy is
// registered, independent of the used set.
type defaultGate struct {
	strict []string // flagged strategy names, in registry registration order
}

// compileGate collects the must-match-flagged strategies in registration
// order.
func compileGate(order []string, available map[string]Strategy) *defaultGate {
	var strict []string
	for _, name := range order {
		if mustMatch(available[name]) {
			strict = append(strict, name)
		}
	}
	return &defaultGate{strict: strict}
}

// allows reports whether a request with the given derived constraints may
// fall back to an unconstrained handler. A nil Derived always may.
func (g *defaultGate) allows(d *Derived) bool {
	if d == nil {
		return true
	}
	for _, name := range g.strict {
		if _, ok := d.Get(name); ok {
			return false
		}
	}
	return true
}

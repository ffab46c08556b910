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

// NodeStore holds the constrained handlers of one dispatch-tree node: one
// sub-store per constraint kind, created lazily through the registry the
// first time the node gains a constrained handler for that kind.
//
// Kinds are kept in a small ordered slice; nodes rarely constrain on more
// than one kind, and dispatch scans them linearly without map hashing.
//
// Mutated only during registration, read-only during dispatch.
type NodeStore struct {
	kinds []kindStore
}

type kindStore struct {
	name  string
	store Store
}

// Put inserts handler keyed by value into the sub-store for the named
// strategy, creating the sub-store via reg.NewStoreFor on first use. Value
// semantics are the strategy's own: exact equality for host, range
// containment for version.
func (ns *NodeStore) Put(reg *Registry, name, value string, handler any) error {
	st := ns.storeFor(name)
	if st == nil {
		created, err := reg.NewStoreFor(name)
		if err != nil {
			return err
		}
		ns.kinds = append(ns.kinds, kindStore{name: name, store: created})
		st = created
	}
	return st.Set(value, handler)
}

func (ns *NodeStore) storeFor(name string) Store {
	for i := range ns.kinds {
		if ns.kinds[i].name == name {
			return ns.kinds[i].store
		}
	}
	return nil
}

// Empty reports whether the node has no constrained handlers.
func (ns *NodeStore) Empty() bool {
	return ns == nil || len(ns.kinds) == 0
}

// Match selects the constrained handler for the given derived values, or nil.
//
// Every kind declared at this node must be satisfied: the request must have
// derived a value for it AND that value must resolve to a handler in the
// kind's sub-store. Partial satisfaction yields no match: a node constrained
// on both version and host only matches requests whose derivation produced
// both. When more than one kind is declared, the sub-stores must agree on a
// single handler.
//
// Handler agreement is checked with ==; the dispatcher stores comparable
// route pointers.
func (ns *NodeStore) Match(d *Derived) any {
	if ns.Empty() || d.Len() == 0 {
		return nil
	}
	var matched any
	for i := range ns.kinds {
		v, ok := d.Get(ns.kinds[i].name)
		if !ok {
			return nil
		}
		h := ns.kinds[i].store.Get(v)
		if h == nil {
			return nil
		}
		if matched == nil {
			matched = h
		} else if matched != h {
			return nil
		}
	}
	return matched
}

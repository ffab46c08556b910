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
	"strings"

	"rivaas.dev/dispatch/constraint"
)

// edge represents a per-segment child in the route tree (linear scan instead
// of map hashing in the hot path).
type edge struct {
	label string
	node  *node
}

// node represents a node in the route tree used for route matching.
//
// A node can carry one default (unconstrained) route and, independently, a
// constraint store holding constrained routes for the same method and path.
// Which of the two serves a given request is decided at lookup time from the
// request's derived constraint values.
//
// Thread safety: nodes are mutated only during the single-threaded
// configuration phase. During dispatch the tree is read-only and needs no
// locking.
type node struct {
	route       *route                // Default (unconstrained) route
	constrained *constraint.NodeStore // Constrained routes, nil until first constrained registration
	edges       []edge                // Per-segment static children
	param       *param                // Parameter child (:name), at most one per node
	wildcard    *wildcard             // Wildcard child (/*), matches the rest of the path
	staticPaths map[string]*node      // Full-path static fast table (root node only)
	pattern     string                // Registered pattern for this terminal node
}

// param represents a parameter node capturing one dynamic segment (:id).
type param struct {
	key  string
	node *node
}

// wildcard represents a catch-all node matching everything after its prefix.
type wildcard struct {
	node      *node
	paramName string // Capture name, "filepath" by default
}

func (n *node) findChild(segment string) *node {
	for i := range n.edges {
		if n.edges[i].label == segment {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *node) findOrCreateChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{}
	n.edges = append(n.edges, edge{label: segment, node: child})
	return child
}

// hasRoutes reports whether any route terminates at this node.
func (n *node) hasRoutes() bool {
	return n.route != nil || !n.constrained.Empty()
}

// insert walks (and builds) the tree for pattern and returns the terminal
// node. Attaching the route to the node is the caller's job, since default
// and constrained routes land in different slots.
//
// Patterns:
//   - "/users"            static, also indexed in the root fast table
//   - "/users/:id"        parameter segment
//   - "/static/*"         wildcard suffix
func (n *node) insert(pattern string) *node {
	if pattern == "/" || pattern == "" {
		n.pattern = "/"
		return n
	}

	// Wildcard routes: everything after the prefix matches.
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		current := n
		for _, segment := range strings.Split(strings.Trim(prefix, "/"), "/") {
			if segment == "" {
				continue
			}
			current = current.findOrCreateChild(segment)
		}
		if current.wildcard == nil {
			current.wildcard = &wildcard{node: &node{}, paramName: "filepath"}
		}
		current.wildcard.node.pattern = pattern
		return current.wildcard.node
	}

	// Simple static routes: index the full path at the root for O(1) lookup.
	if !strings.Contains(pattern, ":") {
		if n.staticPaths == nil {
			n.staticPaths = make(map[string]*node, 8)
		}
		if n.staticPaths[pattern] == nil {
			n.staticPaths[pattern] = &node{}
		}
		terminal := n.staticPaths[pattern]
		terminal.pattern = pattern
		return terminal
	}

	// Parameterized routes: build the segment tree.
	current := n
	for _, segment := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if segment == "" {
			continue
		}
		if name, ok := strings.CutPrefix(segment, ":"); ok {
			if current.param == nil {
				current.param = &param{key: name, node: &node{}}
			}
			current = current.param.node
		} else {
			current = current.findOrCreateChild(segment)
		}
	}
	current.pattern = pattern
	return current
}

// lookup finds the terminal node for path and appends captured parameters to
// params. It parses segments in place without strings.Split to avoid the
// slice allocation on every request.
//
// Matching priority per segment: static edge, then parameter, then wildcard.
// A wildcard encountered on the way down is remembered as a fallback so a
// longer static/param match that ultimately dead-ends can still be served by
// the enclosing wildcard.
func (n *node) lookup(path string, params *[]Param) *node {
	if path == "/" || path == "" {
		if n.hasRoutes() {
			return n
		}
		return nil
	}

	if n.staticPaths != nil {
		if terminal := n.staticPaths[path]; terminal != nil && terminal.hasRoutes() {
			return terminal
		}
	}

	current := n
	start := 0
	if path[0] == '/' {
		start = 1
	}
	pathLen := len(path)

	var fallback *node     // Deepest wildcard node passed on the way down
	var fallbackKey string // Its capture name
	var fallbackFrom int   // Offset of the path remainder it captures
	var fallbackParams int // Params captured before the wildcard was recorded

	for start < pathLen {
		end := start
		for end < pathLen && path[end] != '/' {
			end++
		}
		segment := path[start:end]

		if current.wildcard != nil {
			fallback = current.wildcard.node
			fallbackKey = current.wildcard.paramName
			fallbackFrom = start
			fallbackParams = len(*params)
		}

		if next := current.findChild(segment); next != nil {
			current = next
		} else if current.param != nil && segment != "" {
			*params = append(*params, Param{Key: current.param.key, Value: segment})
			current = current.param.node
		} else if fallback != nil {
			*params = append((*params)[:fallbackParams], Param{Key: fallbackKey, Value: path[fallbackFrom:]})
			return fallback
		} else {
			return nil
		}

		start = end + 1
	}

	if current.hasRoutes() {
		return current
	}
	if current.wildcard != nil && current.wildcard.node.hasRoutes() {
		// Trailing edge: /static/ matched down to the wildcard's parent.
		*params = append(*params, Param{Key: current.wildcard.paramName, Value: ""})
		return current.wildcard.node
	}
	if fallback != nil && fallback.hasRoutes() {
		*params = append((*params)[:fallbackParams], Param{Key: fallbackKey, Value: path[fallbackFrom:]})
		return fallback
	}
	return nil
}

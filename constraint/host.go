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
	"net/http"
	"strings"
)

// hostStrategy is the built-in request-host constraint. Routes register an
// exact host ("api.example.com") or a "*." wildcard ("*.example.com") that
// matches any subdomain; the value is compared against the request host
// verbatim, port included when present.
//
// The strategy is deliberately NOT flagged must-match-when-derived (every
// request carries a host, so flagging it would exclude unconstrained
// handlers from all traffic), and it performs no registration-time
// validation; any string is a valid host value.
type hostStrategy struct{}

func (hostStrategy) Name() string { return HostStrategy }

func (hostStrategy) NewStore() Store { return &hostStore{} }

func (hostStrategy) Derive(req *http.Request, _ any) (string, bool) {
	return deriveRequestHost(req, nil)
}

// deriveRequestHost is the compiled fast path for the built-in host
// strategy, semantically identical to Derive.
func deriveRequestHost(req *http.Request, _ any) (string, bool) {
	return req.Host, req.Host != ""
}

// hostStore maps registered hosts to handlers: exact hosts in a map,
// wildcard patterns as suffix entries scanned in registration order. An
// exact match always beats a wildcard; among matching wildcards the most
// recently registered wins.
type hostStore struct {
	exact map[string]any
	wild  []wildHost
}

type wildHost struct {
	suffix  string // ".example.com" for the pattern "*.example.com"
	handler any
}

// Set registers handler under the given host or "*." pattern, replacing any
// handler previously stored under an equal value.
func (s *hostStore) Set(value string, handler any) error {
	if suffix, ok := strings.CutPrefix(value, "*."); ok {
		suffix = "." + suffix
		for i := range s.wild {
			if s.wild[i].suffix == suffix {
				s.wild[i].handler = handler
				return nil
			}
		}
		s.wild = append(s.wild, wildHost{suffix: suffix, handler: handler})
		return nil
	}
	if s.exact == nil {
		s.exact = make(map[string]any, 4)
	}
	s.exact[value] = handler
	return nil
}

// Get resolves a request host to a handler, or nil.
func (s *hostStore) Get(derived string) any {
	if h, ok := s.exact[derived]; ok {
		return h
	}
	var matched any
	for i := range s.wild {
		if strings.HasSuffix(derived, s.wild[i].suffix) {
			matched = s.wild[i].handler
		}
	}
	return matched
}

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
	"sync/atomic"
)

// mapStore is a minimal exact-match store for custom strategies in tests.
type mapStore struct {
	m map[string]any
}

func newMapStore() *mapStore {
	return &mapStore{m: make(map[string]any)}
}

func (s *mapStore) Set(value string, handler any) error {
	s.m[value] = handler
	return nil
}

func (s *mapStore) Get(derived string) any {
	return s.m[derived]
}

// countingStrategy derives from a request header and counts Derive calls, so
// tests can prove unused strategies are never evaluated.
type countingStrategy struct {
	name      string
	header    string
	strict    bool
	derives   atomic.Int32
	validated func(string) error
	lastCtx   any
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) NewStore() Store { return newMapStore() }

func (s *countingStrategy) Derive(req *http.Request, ctx any) (string, bool) {
	s.derives.Add(1)
	s.lastCtx = ctx
	v := req.Header.Get(s.header)
	return v, v != ""
}

func (s *countingStrategy) MustMatchWhenDerived() bool { return s.strict }

func (s *countingStrategy) Validate(value string) error {
	if s.validated == nil {
		return nil
	}
	return s.validated(value)
}

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

	"github.com/Masterminds/semver/v3"
)

// Strategy names of the built-in strategies. A custom strategy registered
// under one of these names overrides the built-in.
const (
	VersionStrategy = "version"
	HostStrategy    = "host"
)

// VersionHeader is the request header the built-in version strategy reads.
const VersionHeader = "Accept-Version"

// versionStrategy is the built-in semantic-version constraint. Routes
// register version ranges ("1.2.0", "^1.0.0", ">=2.0.0 <3.0.0"); requests
// carry a concrete version or a range in the Accept-Version header.
//
// The strategy is flagged must-match-when-derived: a request that asks for a
// specific version is never silently served by a version-agnostic handler.
type versionStrategy struct{}

func (versionStrategy) Name() string { return VersionStrategy }

func (versionStrategy) NewStore() Store { return &versionStore{} }

func (versionStrategy) Derive(req *http.Request, _ any) (string, bool) {
	return deriveVersionHeader(req, nil)
}

// Validate rejects unparsable version-range syntax at registration time.
func (versionStrategy) Validate(value string) error {
	if _, err := semver.NewConstraint(value); err != nil {
		return fmt.Errorf("parse version range %q: %w", value, err)
	}
	return nil
}

func (versionStrategy) MustMatchWhenDerived() bool { return true }

// deriveVersionHeader is the compiled fast path for the built-in version
// strategy: a direct header read, semantically identical to Derive.
func deriveVersionHeader(req *http.Request, _ any) (string, bool) {
	v := req.Header.Get(VersionHeader)
	return v, v != ""
}

// versionStore maps registered version ranges to handlers. A stored range
// may satisfy many incoming versions; overlaps are resolved by a fixed
// precedence policy at lookup, never reported as an error:
//
//   - derived value is a concrete version (e.g. "1.5.0"): among satisfying
//     entries, one pinned to a single version beats a range, the highest pin
//     beats lower pins, and among plain ranges the most recently registered
//     wins;
//   - derived value is itself a range (e.g. "1.x"): the highest pinned
//     registered version satisfying it wins; plain ranges are not considered.
type versionStore struct {
	entries []versionEntry
}

type versionEntry struct {
	raw     string
	rng     *semver.Constraints
	pin     *semver.Version // non-nil when raw is one concrete version
	handler any
}

// Set registers handler under the given range, replacing any entry with an
// equal raw value. Routes reach Set only after Validate accepted the value,
// so a parse failure here means Set was called directly with a bad range.
func (s *versionStore) Set(value string, handler any) error {
	rng, err := semver.NewConstraint(value)
	if err != nil {
		return fmt.Errorf("parse version range %q: %w", value, err)
	}
	pin, _ := semver.NewVersion(value) // nil unless value is a single version
	for i := range s.entries {
		if s.entries[i].raw == value {
			s.entries[i] = versionEntry{raw: value, rng: rng, pin: pin, handler: handler}
			return nil
		}
	}
	s.entries = append(s.entries, versionEntry{raw: value, rng: rng, pin: pin, handler: handler})
	return nil
}

// Get resolves a derived Accept-Version value to a handler, or nil.
func (s *versionStore) Get(derived string) any {
	if v, err := semver.NewVersion(derived); err == nil {
		return s.getByVersion(v)
	}
	if rng, err := semver.NewConstraint(derived); err == nil {
		return s.getByRange(rng)
	}
	return nil
}

func (s *versionStore) getByVersion(v *semver.Version) any {
	var best *versionEntry
	for i := range s.entries {
		e := &s.entries[i]
		if !e.rng.Check(v) {
			continue
		}
		switch {
		case best == nil:
			best = e
		case e.pin != nil && best.pin == nil:
			best = e
		case e.pin != nil && best.pin != nil && e.pin.GreaterThan(best.pin):
			best = e
		case e.pin == nil && best.pin == nil:
			best = e // later registration wins among plain ranges
		}
	}
	if best == nil {
		return nil
	}
	return best.handler
}

func (s *versionStore) getByRange(rng *semver.Constraints) any {
	var best *versionEntry
	for i := range s.entries {
		e := &s.entries[i]
		if e.pin == nil || !rng.Check(e.pin) {
			continue
		}
		if best == nil || e.pin.GreaterThan(best.pin) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	return best.handler
}

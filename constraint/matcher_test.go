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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAllowedNoConstraints(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	assert.True(t, reg.MatchAllowed(nil), "no derived constraints always allows the default handler")
}

func TestVersionDerivedBlocksDefault(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed(VersionStrategy))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(VersionHeader, "1.x")

	d := reg.Derive(req, nil)
	require.NotNil(t, d)
	assert.False(t, reg.MatchAllowed(d),
		"a request with a version expectation must not fall back to a version-agnostic handler")
}

func TestHostDerivedAllowsDefault(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed(HostStrategy))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"

	d := reg.Derive(req, nil)
	require.NotNil(t, d)
	assert.True(t, reg.MatchAllowed(d),
		"host is not flagged must-match; generic handlers stay reachable")
}

func TestUnusedStrictStrategyStillGates(t *testing.T) {
	t.Parallel()

	// The gate spans all available strategies, not just used ones: a value
	// derived for a strict strategy blocks defaults even if recompilation of
	// the used set were to lag its registration.
	strict := &countingStrategy{name: "tenant", header: "X-Tenant", strict: true}
	reg, err := NewRegistry(strict)
	require.NoError(t, err)

	d := &Derived{values: []derivedValue{{name: "tenant", value: "acme"}}}
	assert.False(t, reg.MatchAllowed(d))
}

func TestNonStrictCustomStrategyAllowsDefault(t *testing.T) {
	t.Parallel()

	region := &countingStrategy{name: "region", header: "X-Region"}
	reg, err := NewRegistry(region)
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed("region"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Region", "us-east")

	d := reg.Derive(req, nil)
	require.NotNil(t, d)
	assert.True(t, reg.MatchAllowed(d))
}

func TestGateRebuiltOnRegistration(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	d := &Derived{values: []derivedValue{{name: "tenant", value: "acme"}}}
	assert.True(t, reg.MatchAllowed(d), "unregistered name cannot gate")

	require.NoError(t, reg.Register(&countingStrategy{name: "tenant", strict: true}))
	assert.False(t, reg.MatchAllowed(d), "gate must pick up newly registered strict strategies")
}

func TestOverrideCanUnflagBuiltin(t *testing.T) {
	t.Parallel()

	// Overriding version with a non-strict strategy removes it from the gate.
	lax, err := New(Spec{
		Name:    VersionStrategy,
		Storage: func() Store { return newMapStore() },
		DeriveConstraint: func(req *http.Request, _ any) (string, bool) {
			v := req.Header.Get(VersionHeader)
			return v, v != ""
		},
	})
	require.NoError(t, err)

	reg, err := NewRegistry(lax)
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed(VersionStrategy))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(VersionHeader, "1.0.0")

	d := reg.Derive(req, nil)
	require.NotNil(t, d)
	assert.True(t, reg.MatchAllowed(d))
}

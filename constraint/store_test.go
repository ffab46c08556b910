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

// routeStub stands in for the dispatcher's route pointers: a comparable
// handler value.
type routeStub struct{ name string }

func derivedFor(t *testing.T, reg *Registry, version, host string) *Derived {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if version != "" {
		req.Header.Set(VersionHeader, version)
	}
	req.Host = host
	return reg.Derive(req, nil)
}

func TestNodeStoreLazySubStores(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	ns := &NodeStore{}
	assert.True(t, ns.Empty())

	require.NoError(t, ns.Put(reg, VersionStrategy, "^1.0.0", &routeStub{name: "b"}))
	assert.False(t, ns.Empty())
	assert.Len(t, ns.kinds, 1)

	// Second Put for the same kind reuses the sub-store.
	require.NoError(t, ns.Put(reg, VersionStrategy, "^2.0.0", &routeStub{name: "c"}))
	assert.Len(t, ns.kinds, 1)
}

func TestNodeStorePutUnknownStrategy(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	ns := &NodeStore{}
	err = ns.Put(reg, "region", "us-east", &routeStub{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.True(t, ns.Empty())
}

func TestNodeStoreSingleKindMatch(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed(VersionStrategy))

	b := &routeStub{name: "b"}
	ns := &NodeStore{}
	require.NoError(t, ns.Put(reg, VersionStrategy, "^1.0.0", b))

	assert.Same(t, b, ns.Match(derivedFor(t, reg, "1.5.0", "")).(*routeStub))
	assert.Nil(t, ns.Match(derivedFor(t, reg, "3.0.0", "")))
	assert.Nil(t, ns.Match(nil), "no derived constraints cannot match a constrained node")
}

func TestNodeStoreAllKindsRequired(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed(VersionStrategy))
	require.NoError(t, reg.MarkUsed(HostStrategy))

	both := &routeStub{name: "both"}
	ns := &NodeStore{}
	require.NoError(t, ns.Put(reg, VersionStrategy, "^1.0.0", both))
	require.NoError(t, ns.Put(reg, HostStrategy, "api.example.com", both))

	// Both kinds satisfied by the same handler.
	assert.Same(t, both, ns.Match(derivedFor(t, reg, "1.2.0", "api.example.com")).(*routeStub))

	// Partial satisfaction never matches.
	assert.Nil(t, ns.Match(derivedFor(t, reg, "1.2.0", "other.example.com")),
		"host kind unsatisfied")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "api.example.com"
	assert.Nil(t, ns.Match(reg.Derive(req, nil)), "version kind underived")
}

func TestNodeStoreKindsMustAgree(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.MarkUsed(VersionStrategy))
	require.NoError(t, reg.MarkUsed(HostStrategy))

	ns := &NodeStore{}
	require.NoError(t, ns.Put(reg, VersionStrategy, "^1.0.0", &routeStub{name: "versioned"}))
	require.NoError(t, ns.Put(reg, HostStrategy, "api.example.com", &routeStub{name: "hosted"}))

	// Each kind resolves, but to different handlers: no single constrained
	// handler satisfies the whole constraint set.
	assert.Nil(t, ns.Match(derivedFor(t, reg, "1.2.0", "api.example.com")))
}

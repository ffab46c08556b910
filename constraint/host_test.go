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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostStoreExactMatch(t *testing.T) {
	t.Parallel()

	s := &hostStore{}
	require.NoError(t, s.Set("api.example.com", "api"))

	assert.Equal(t, "api", s.Get("api.example.com"))
	assert.Nil(t, s.Get("www.example.com"))
	assert.Nil(t, s.Get("example.com"))
}

func TestHostStoreWildcard(t *testing.T) {
	t.Parallel()

	s := &hostStore{}
	require.NoError(t, s.Set("*.example.com", "wild"))

	assert.Equal(t, "wild", s.Get("api.example.com"))
	assert.Equal(t, "wild", s.Get("a.b.example.com"))
	assert.Nil(t, s.Get("example.com"), "wildcard requires a subdomain")
	assert.Nil(t, s.Get("example.org"))
}

func TestHostStoreExactBeatsWildcard(t *testing.T) {
	t.Parallel()

	s := &hostStore{}
	require.NoError(t, s.Set("*.example.com", "wild"))
	require.NoError(t, s.Set("api.example.com", "exact"))

	assert.Equal(t, "exact", s.Get("api.example.com"))
	assert.Equal(t, "wild", s.Get("www.example.com"))
}

func TestHostStoreLaterWildcardWins(t *testing.T) {
	t.Parallel()

	s := &hostStore{}
	require.NoError(t, s.Set("*.example.com", "outer"))
	require.NoError(t, s.Set("*.api.example.com", "inner"))

	// Both suffixes match; the most recently registered wins.
	assert.Equal(t, "inner", s.Get("v2.api.example.com"))
	assert.Equal(t, "outer", s.Get("www.example.com"))
}

func TestHostStoreReplace(t *testing.T) {
	t.Parallel()

	s := &hostStore{}
	require.NoError(t, s.Set("api.example.com", "old"))
	require.NoError(t, s.Set("api.example.com", "new"))
	require.NoError(t, s.Set("*.example.com", "wold"))
	require.NoError(t, s.Set("*.example.com", "wnew"))

	assert.Equal(t, "new", s.Get("api.example.com"))
	assert.Equal(t, "wnew", s.Get("www.example.com"))
	assert.Len(t, s.wild, 1)
}

func TestHostStrategyHasNoValidator(t *testing.T) {
	t.Parallel()

	assert.Nil(t, validatorOf(hostStrategy{}))
	assert.False(t, mustMatch(hostStrategy{}))
	assert.True(t, mustMatch(versionStrategy{}))
}

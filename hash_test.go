// Copyright 2024 The Cockroach Authors
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


package oamap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSum(t *testing.T) {
	require.EqualValues(t, 0, HashSum(""))
	require.EqualValues(t, 97, HashSum("a"))
	require.EqualValues(t, 97+98, HashSum("ab"))
	// Anagrams collide.
	require.Equal(t, HashSum("key12"), HashSum("key21"))
}

func TestHashWeighted(t *testing.T) {
	require.EqualValues(t, 0, HashWeighted(""))
	require.EqualValues(t, 97, HashWeighted("a"))
	require.EqualValues(t, 97+2*98, HashWeighted("ab"))
	require.NotEqual(t, HashWeighted("key12"), HashWeighted("key21"))
}

func TestDefaultHash(t *testing.T) {
	h := makeDefaultHash()
	require.Equal(t, h("foo"), h("foo"))

	// A map with the default hash behaves like any other.
	m := New[string](0)
	m.Put("foo", "bar")
	v, ok := m.Get("foo")
	require.True(t, ok)
	require.Equal(t, "bar", v)
}

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
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain[V any](it *Iterator[V]) []Pair[V] {
	var pairs []Pair[V]
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		pairs = append(pairs, Pair[V]{Key: k, Value: v})
	}
	return pairs
}

func TestIterator(t *testing.T) {
	m := New[int](0)

	it := m.Iter()
	_, _, ok := it.Next()
	require.False(t, ok)

	for i := 0; i < 50; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	for i := 0; i < 50; i += 5 {
		m.Delete(strconv.Itoa(i))
	}

	// The iterator yields exactly the live entries, in slot order.
	require.Equal(t, m.KeysAndValues(), drain(m.Iter()))

	// An exhausted iterator stays exhausted.
	it = m.Iter()
	require.Len(t, drain(it), 40)
	for i := 0; i < 3; i++ {
		_, _, ok := it.Next()
		require.False(t, ok)
	}
}

func TestIteratorIndependent(t *testing.T) {
	m := New[int](0)
	for i := 0; i < 10; i++ {
		m.Put(strconv.Itoa(i), i)
	}

	a, b := m.Iter(), m.Iter()
	ka, _, ok := a.Next()
	require.True(t, ok)
	kb, _, ok := b.Next()
	require.True(t, ok)
	require.Equal(t, ka, kb)

	// Advancing a does not advance b.
	rest := drain(a)
	require.Len(t, rest, 9)
	require.Len(t, drain(b), 9)
}

func TestIteratorResize(t *testing.T) {
	m := New[int](0)
	for i := 0; i < 20; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	expected := m.KeysAndValues()

	// The iterator continues over the slots the map had when it was created.
	it := m.Iter()
	require.NoError(t, m.Resize(4*m.Capacity()))
	m.Clear()
	require.Equal(t, expected, drain(it))
}

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

// Iterator is a forward-only cursor over the entries of a Map in ascending
// slot order. An Iterator holds its own position and a reference to the slots
// the map had when the Iterator was created, so independent iterators do not
// interfere with one another. If the map is resized or cleared, the Iterator
// continues over the old slots; the effect of any other mutation on an
// in-progress Iterator is unspecified.
type Iterator[V any] struct {
	slots []Slot[V]
	index int
}

// Iter returns an Iterator positioned before the first entry of the map.
func (m *Map[V]) Iter() *Iterator[V] {
	return &Iterator[V]{slots: m.slots}
}

// Next advances the iterator and returns the next key and value. Once the
// iterator is exhausted Next returns ok=false, and continues to do so on
// every subsequent call.
func (it *Iterator[V]) Next() (key string, value V, ok bool) {
	for it.index < len(it.slots) {
		s := &it.slots[it.index]
		it.index++
		if s.ctrl == ctrlFull {
			return s.key, s.value, true
		}
	}
	return key, value, false
}

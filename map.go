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

// package oamap is a string-keyed hash map that resolves collisions using
// open addressing with quadratic probing over a prime-sized slot array. See
// https://en.wikipedia.org/wiki/Quadratic_probing.
//
// # Layout
//
// A Map owns a single slice of slots whose length is the map's capacity. The
// capacity is always prime. Each slot is in one of three states: empty (never
// used since the slots were allocated), full (holds a live key and value), or
// deleted (a tombstone left behind by Delete).
//
// # Probing
//
// The probe sequence for a key starts at hash(key) mod capacity and visits
// origin + i^2 (mod capacity) for i = 0, 1, 2, .... When the capacity p is an
// odd prime the first (p+1)/2 probes visit distinct slots, and because the map
// grows before an insertion whenever the load factor is at least 1/2, an
// insertion is guaranteed to find a free slot within those probes. Put, Get,
// Contains and Delete all walk the sequence through the same find routine.
//
// # Deletion
//
// Deletion marks the slot as a tombstone rather than emptying it. A lookup
// must continue past a tombstone because some other key may have been placed
// further along the same probe sequence while the slot was full. Insertion
// reuses the first tombstone on the probe path, but only after the walk has
// proven that the key is not live further along the path. Tombstones are
// dropped when the map is resized or cleared.
//
// # Growth
//
// Growth is eager and done inline: Put resizes to the next prime at or above
// twice the capacity before it places an entry if the load factor is at least
// 1/2. Resizing reinserts every live entry through Put, so a single Put can
// cost O(capacity).
package oamap

import (
	"errors"
	"fmt"
	"strings"
)

const (
	debug = false

	// maxLoad is the load factor at or above which Put grows the map before
	// inserting.
	maxLoad = 0.5
)

// ErrCapacityTooSmall is returned by Resize when the requested capacity
// cannot hold the entries currently in the map.
var ErrCapacityTooSmall = errors.New("oamap: capacity smaller than number of entries")

// Each slot has a control state which is one of empty, full or deleted. The
// zero value is empty so that freshly allocated slots need no initialization.
type ctrl uint8

const (
	ctrlEmpty ctrl = iota
	ctrlFull
	ctrlDeleted
)

func (c ctrl) String() string {
	switch c {
	case ctrlEmpty:
		return "empty"
	case ctrlFull:
		return "full"
	case ctrlDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("ctrl(%d)", uint8(c))
	}
}

// Slot holds a key, a value and the slot's control state.
type Slot[V any] struct {
	key   string
	value V
	ctrl  ctrl
}

// Pair is a key and value extracted from a Map.
type Pair[V any] struct {
	Key   string
	Value V
}

// Map is a map from string keys to values with Put, Get, Delete, and All
// operations. It uses open addressing with quadratic probing over a slot
// array whose size is always prime.
//
// A Map is NOT goroutine-safe.
type Map[V any] struct {
	// The hash function applied to each key. Defaults to a per-map seeded
	// hash/maphash hash.
	hash HashFunc
	// The allocator to use for the slots slice.
	allocator Allocator[V]
	// slots is capacity in length.
	slots []Slot[V]
	// The number of slots, always prime.
	capacity int
	// The number of full slots (i.e. the number of elements in the map).
	used int
}

// New constructs a new Map with the specified initial capacity. The capacity
// is raised to the next prime at or above initialCapacity, so the smallest
// possible starting capacity is 3. The zero value for a Map is not usable.
func New[V any](initialCapacity int, options ...option[V]) *Map[V] {
	m := &Map[V]{
		allocator: defaultAllocator[V]{},
	}

	for _, op := range options {
		op.apply(m)
	}
	if m.hash == nil {
		m.hash = makeDefaultHash()
	}

	m.capacity = NextPrime(initialCapacity)
	m.slots = m.allocator.AllocSlots(m.capacity)

	m.checkInvariants()
	return m
}

// Close closes the map, releasing any memory back to its configured
// allocator. It is unnecessary to close a map using the default allocator. It
// is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[V]) Close() {
	if m.slots != nil {
		m.allocator.FreeSlots(m.slots)
		m.slots = nil
	}
	m.capacity = 0
	m.used = 0
	m.allocator = nil
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[V]) Put(key string, value V) {
	// The load check is performed unconditionally, even if key is already
	// present and this Put turns out to be an update.
	if m.Load() >= maxLoad {
		m.grow()
	}

	for {
		match, insert := m.find(key)
		if match >= 0 {
			if debug {
				fmt.Printf("put(updating): index=%d key=%q\n", match, key)
			}
			m.slots[match].value = value
			m.checkInvariants()
			return
		}

		if insert >= 0 {
			s := &m.slots[insert]
			if debug {
				fmt.Printf("put(inserting): index=%d key=%q reused=%t used=%d\n",
					insert, key, s.ctrl == ctrlDeleted, m.used+1)
			}
			*s = Slot[V]{key: key, value: value, ctrl: ctrlFull}
			m.used++
			m.checkInvariants()
			return
		}

		// The probe sequence was exhausted without seeing an empty or deleted
		// slot. This cannot happen for a prime capacity below the maximum
		// load.
		if debug {
			fmt.Printf("put(exhausted): key=%q capacity=%d used=%d\n", key, m.capacity, m.used)
		}
		m.grow()
	}
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *Map[V]) Get(key string) (value V, ok bool) {
	if match, _ := m.find(key); match >= 0 {
		return m.slots[match].value, true
	}
	return value, false
}

// Contains returns true if the map holds a live entry for key.
func (m *Map[V]) Contains(key string) bool {
	if m.used == 0 {
		return false
	}
	match, _ := m.find(key)
	return match >= 0
}

// Delete deletes the entry corresponding to the specified key from the map.
// It is a noop to delete a non-existent key.
func (m *Map[V]) Delete(key string) {
	match, _ := m.find(key)
	if match < 0 {
		if debug {
			fmt.Printf("delete(not-found): key=%q\n", key)
		}
		return
	}

	// The slot becomes a tombstone rather than empty so that probe sequences
	// which passed through it while it was full continue to reach their keys.
	// The key is retained for debugging output; the value is cleared so that
	// it can be garbage collected.
	s := &m.slots[match]
	var zero V
	s.value = zero
	s.ctrl = ctrlDeleted
	m.used--
	if debug {
		fmt.Printf("delete(%q): index=%d used=%d\n", key, match, m.used)
	}
	m.checkInvariants()
}

// Resize changes the capacity of the map to newCapacity, raised to the next
// prime if it is not prime already. All live entries are reinserted and
// tombstones are dropped. ErrCapacityTooSmall is returned, and the map is left
// unchanged, if newCapacity is less than the number of entries in the map.
//
// Reinsertion goes through Put, so the resulting capacity may be larger than
// requested if newCapacity would leave the map at or above its maximum load.
func (m *Map[V]) Resize(newCapacity int) error {
	if newCapacity < m.used {
		return fmt.Errorf("%w: requested %d, have %d entries",
			ErrCapacityTooSmall, newCapacity, m.used)
	}
	m.resize(newCapacity)
	return nil
}

// Clear removes all entries from the map, retaining its capacity.
func (m *Map[V]) Clear() {
	m.allocator.FreeSlots(m.slots)
	m.slots = m.allocator.AllocSlots(m.capacity)
	m.used = 0
	m.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *Map[V]) Len() int {
	return m.used
}

// Capacity returns the number of slots in the map.
func (m *Map[V]) Capacity() int {
	return m.capacity
}

// Load returns the load factor of the map: the number of entries divided by
// the capacity.
func (m *Map[V]) Load() float64 {
	return float64(m.used) / float64(m.capacity)
}

// EmptyBuckets returns the number of slots that do not hold a live entry,
// whether they have never been used or hold a tombstone.
func (m *Map[V]) EmptyBuckets() int {
	return m.capacity - m.used
}

// KeysAndValues returns a newly allocated slice containing every entry in
// the map, in ascending slot order.
func (m *Map[V]) KeysAndValues() []Pair[V] {
	pairs := make([]Pair[V], 0, m.used)
	for i := range m.slots {
		if s := &m.slots[i]; s.ctrl == ctrlFull {
			pairs = append(pairs, Pair[V]{Key: s.key, Value: s.value})
		}
	}
	return pairs
}

// All calls yield sequentially for each key and value present in the map, in
// ascending slot order. If yield returns false, All stops the iteration. The
// map can be mutated during iteration, though there is no guarantee that the
// mutations will be visible to the iteration.
//
// All conforms to the range-over-function protocol:
//
//	for k, v := range m.All {
//	  fmt.Printf("%v: %v\n", k, v)
//	}
func (m *Map[V]) All(yield func(key string, value V) bool) {
	// Snapshot the slots so that iteration remains valid if the map is
	// resized during iteration.
	slots := m.slots
	for i := range slots {
		if s := &slots[i]; s.ctrl == ctrlFull {
			if !yield(s.key, s.value) {
				return
			}
		}
	}
}

// String returns a human-readable dump of every slot in the map. The format
// is intended for debugging and is not stable.
func (m *Map[V]) String() string {
	var buf strings.Builder
	for i := range m.slots {
		s := &m.slots[i]
		switch s.ctrl {
		case ctrlEmpty:
			fmt.Fprintf(&buf, "%d: empty\n", i)
		case ctrlDeleted:
			fmt.Fprintf(&buf, "%d: %s (deleted)\n", i, s.key)
		default:
			fmt.Fprintf(&buf, "%d: %s -> %v\n", i, s.key, s.value)
		}
	}
	return buf.String()
}

// find walks the probe sequence for key. If key is live in the map, match is
// the index of its slot. Otherwise match is -1 and insert is the index at
// which key should be placed: the first deleted slot on the probe path, or
// the empty slot which terminated the walk if no deleted slot was seen.
// insert is -1 if the walk neither matched nor saw a free slot.
//
// The walk stops at the first empty slot or after capacity probes, which
// guarantees termination even if every slot is full or deleted.
func (m *Map[V]) find(key string) (match, insert int) {
	match, insert = -1, -1
	seq := makeProbeSeq(m.hash(key), m.capacity)
	if debug {
		fmt.Printf("find(%q): %s\n", key, seq)
	}

	for ; !seq.done(); seq = seq.next() {
		s := &m.slots[seq.offset]
		if debug {
			fmt.Printf("find(probing): %s ctrl=%s key=%q\n", seq, s.ctrl, s.key)
		}
		switch s.ctrl {
		case ctrlEmpty:
			if insert < 0 {
				insert = int(seq.offset)
			}
			if debug {
				fmt.Printf("find(not-found): offset=%d insert=%d\n", seq.offset, insert)
			}
			return match, insert
		case ctrlDeleted:
			if insert < 0 {
				insert = int(seq.offset)
			}
		case ctrlFull:
			if s.key == key {
				return int(seq.offset), insert
			}
		}
	}

	if debug {
		fmt.Printf("find(exhausted): key=%q insert=%d\n", key, insert)
	}
	return match, insert
}

// grow resizes the map to the next prime at or above twice its capacity.
func (m *Map[V]) grow() {
	m.resize(2 * m.capacity)
}

// resize allocates a new slots slice of newCapacity (raised to the next
// prime) and Puts each live entry of the old slots into it. Unlike Resize,
// resize does not check newCapacity against the number of entries.
func (m *Map[V]) resize(newCapacity int) {
	if !IsPrime(newCapacity) {
		newCapacity = NextPrime(newCapacity)
	}

	pairs := m.KeysAndValues()
	oldSlots, oldCapacity := m.slots, m.capacity

	m.slots = m.allocator.AllocSlots(newCapacity)
	m.capacity = newCapacity
	m.used = 0

	if debug {
		fmt.Printf("resize: capacity=%d->%d  entries=%d\n", oldCapacity, newCapacity, len(pairs))
	}

	// Reinsertion uses Put rather than a bypass so that the maximum load is
	// enforced while repopulating. A Put here may itself resize again.
	for _, p := range pairs {
		m.Put(p.Key, p.Value)
	}

	m.allocator.FreeSlots(oldSlots)
	m.checkInvariants()
}

func (m *Map[V]) checkInvariants() {
	if invariants {
		if !IsPrime(m.capacity) {
			panic(fmt.Sprintf("invariant failed: capacity %d is not prime\n%s", m.capacity, m.debugString()))
		}
		if len(m.slots) != m.capacity {
			panic(fmt.Sprintf("invariant failed: %d slots, but capacity is %d\n%s",
				len(m.slots), m.capacity, m.debugString()))
		}

		// For every full slot, verify we can retrieve the key using Get and
		// that it resolves to this slot. Count the number of full slots.
		var used int
		seen := make(map[string]int)
		for i := range m.slots {
			s := &m.slots[i]
			if s.ctrl != ctrlFull {
				continue
			}
			if j, ok := seen[s.key]; ok {
				panic(fmt.Sprintf("invariant failed: key %q is live in slots %d and %d\n%s",
					s.key, j, i, m.debugString()))
			}
			seen[s.key] = i
			if match, _ := m.find(s.key); match != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q found at %d\n%s",
					i, s.key, match, m.debugString()))
			}
			used++
		}

		if used != m.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, m.used, m.debugString()))
		}
	}
}

func (m *Map[V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  load=%.3f\n", m.capacity, m.used, m.Load())
	buf.WriteString(m.String())
	return buf.String()
}

// probeSeq maintains the state for a probe sequence. The sequence is a
// quadratic progression of the form
//
//	p(i) := origin + i^2 (mod capacity)
//
// where origin is hash mod capacity. For a prime capacity p > 2 the values
// i^2 and j^2 are congruent mod p only when i = ±j (mod p), so the first
// (p+1)/2 probes visit distinct slots and later probes revisit them. The
// sequence is nevertheless allowed to run for capacity probes, which also
// covers the capacity of 2 that Resize may select.
type probeSeq struct {
	capacity uint64
	origin   uint64
	offset   uint64
	index    uint64
}

func makeProbeSeq(hash uint64, capacity int) probeSeq {
	c := uint64(capacity)
	return probeSeq{
		capacity: c,
		origin:   hash % c,
		offset:   hash % c,
		index:    0,
	}
}

func (s probeSeq) next() probeSeq {
	s.index++
	s.offset = (s.origin + (s.index*s.index)%s.capacity) % s.capacity
	return s
}

func (s probeSeq) done() bool {
	return s.index >= s.capacity
}

func (s probeSeq) String() string {
	return fmt.Sprintf("capacity=%d origin=%d offset=%d index=%d", s.capacity, s.origin, s.offset, s.index)
}

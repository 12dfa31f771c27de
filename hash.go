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

import "hash/maphash"

// HashFunc maps a key to a non-negative integer. A Map reduces the result
// modulo its capacity to find the start of the key's probe sequence.
type HashFunc func(key string) uint64

// makeDefaultHash returns a hash function using a freshly generated
// hash/maphash seed. Each Map gets its own seed, so the slot order of two
// maps holding the same keys generally differs.
func makeDefaultHash() HashFunc {
	seed := maphash.MakeSeed()
	return func(key string) uint64 {
		return maphash.String(seed, key)
	}
}

// HashSum returns the sum of the bytes of key. Anagrams collide, which makes
// it useful for exercising long probe sequences.
func HashSum(key string) uint64 {
	var h uint64
	for i := 0; i < len(key); i++ {
		h += uint64(key[i])
	}
	return h
}

// HashWeighted returns the sum of each byte of key multiplied by its
// 1-based position.
func HashWeighted(key string) uint64 {
	var h uint64
	for i := 0; i < len(key); i++ {
		h += uint64(i+1) * uint64(key[i])
	}
	return h
}

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

// Stats describes the occupancy of a Map's slots.
type Stats struct {
	Size                    int
	Capacity                int
	Tombstones              int
	Load                    float64
	TombstonesCapacityRatio float64
}

// Stats scans the map's slots and returns its occupancy. Unlike the other
// accessors, Stats costs O(capacity).
func (m *Map[V]) Stats() Stats {
	var tombstones int
	for i := range m.slots {
		if m.slots[i].ctrl == ctrlDeleted {
			tombstones++
		}
	}
	return Stats{
		Size:                    m.used,
		Capacity:                m.capacity,
		Tombstones:              tombstones,
		Load:                    m.Load(),
		TombstonesCapacityRatio: float64(tombstones) / float64(m.capacity),
	}
}

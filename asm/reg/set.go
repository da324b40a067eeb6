// Copyright 2025 go-highway Authors
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

package reg

import "math/bits"

// Set is a set of register indices.
type Set struct {
	b []uint64
}

// MakeSet returns a set holding idx.
func MakeSet(idx ...int) Set {
	var s Set
	s.Add(idx...)
	return s
}

func (s *Set) Add(idx ...int) {
	for _, k := range idx {
		if k < 0 {
			continue
		}
		i, j := k/64, k%64
		s.grow(i)
		s.b[i] |= 1 << j
	}
}

func (s *Set) Remove(k int) {
	i, j := k/64, k%64
	if k < 0 || i >= len(s.b) {
		return
	}
	s.b[i] &^= 1 << j
}

func (s Set) Has(k int) bool {
	i, j := k/64, k%64
	if k < 0 || i >= len(s.b) {
		return false
	}
	return s.b[i]&(1<<j) != 0
}

func (s Set) Len() (n int) {
	for _, x := range s.b {
		n += bits.OnesCount64(x)
	}
	return n
}

// Range calls f for every member in increasing order until f returns false.
func (s Set) Range(f func(k int) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			if !f(i*64 + j) {
				return
			}
			x &^= 1 << j
		}
	}
}

// Slice returns the members in increasing order.
func (s Set) Slice() []int {
	out := make([]int, 0, s.Len())
	s.Range(func(k int) bool {
		out = append(out, k)
		return true
	})
	return out
}

// SubsetOf reports whether every member of s is in x.
func (s Set) SubsetOf(x Set) bool {
	for i, w := range s.b {
		var o uint64
		if i < len(x.b) {
			o = x.b[i]
		}
		if w&^o != 0 {
			return false
		}
	}
	return true
}

func (s Set) Copy() Set {
	return Set{b: append([]uint64(nil), s.b...)}
}

func (s *Set) Reset() {
	for i := range s.b {
		s.b[i] = 0
	}
}

func (s *Set) grow(i int) {
	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}

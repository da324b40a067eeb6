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

package adt

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"tlog.app/go/errors"
)

// Triple names the types of the two multiplicands and the accumulator of a
// three-operand operation: C := A*B + C.
type Triple struct {
	A, B, C Type
}

// T3 builds a Triple.
func T3(a, b, c Type) Triple {
	return Triple{A: a, B: b, C: c}
}

// Same builds the Triple (t, t, t).
func Same(t Type) Triple {
	return Triple{A: t, B: t, C: t}
}

// Widens reports whether the accumulator is wider than the first multiplicand.
func (t Triple) Widens() bool {
	return t.C.Size() > t.A.Size()
}

// Ways returns how many multiplicand lanes fold into one accumulator lane.
func (t Triple) Ways() int {
	if t.A.Size() == 0 {
		return 0
	}
	return t.C.Size() / t.A.Size()
}

// String formats the triple as "a,b,c".
func (t Triple) String() string {
	return fmt.Sprintf("%v,%v,%v", t.A, t.B, t.C)
}

// ParseTriple parses "a,b,c". A single type name "t" is shorthand for "t,t,t".
func ParseTriple(s string) (Triple, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		t, err := Parse(parts[0])
		if err != nil {
			return Triple{}, err
		}
		return Same(t), nil
	}
	if len(parts) != 3 {
		return Triple{}, errors.Wrap(ErrInvalidType, "triple %q: want 3 types", s)
	}

	var ts [3]Type
	for i, p := range parts {
		t, err := Parse(p)
		if err != nil {
			return Triple{}, errors.Wrap(err, "triple %q", s)
		}
		ts[i] = t
	}
	return Triple{A: ts[0], B: ts[1], C: ts[2]}, nil
}

// Contains reports whether t is one of ts.
func Contains(ts []Triple, t Triple) bool { return lo.Contains(ts, t) }

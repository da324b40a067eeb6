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

package asm

import (
	"strings"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/reg"
)

// Modifier is a set of opd3 variant selectors.
type Modifier uint8

const (
	// NP negates the product: C := C - A*B.
	NP Modifier = 1 << iota
	// IDX takes B from one lane selected by an immediate index.
	IDX
	// REGIDX takes B from one lane selected by a register.
	REGIDX
	// PART selects which slice of the narrow lanes feeds a widening result.
	PART
	// VF multiplies a vector by a scalar register.
	VF
	// MASK predicates the operation by a mask register.
	MASK
)

// NoModifiers is the empty set.
const NoModifiers Modifier = 0

var modifierNames = []struct {
	m    Modifier
	name string
}{
	{NP, "np"},
	{IDX, "idx"},
	{REGIDX, "regidx"},
	{PART, "part"},
	{VF, "vf"},
	{MASK, "mask"},
}

// Modifiers returns every single modifier in bit order.
func Modifiers() []Modifier {
	out := make([]Modifier, len(modifierNames))
	for i, n := range modifierNames {
		out[i] = n.m
	}
	return out
}

// Has reports whether every modifier of x is in m.
func (m Modifier) Has(x Modifier) bool {
	return m&x == x
}

func (m Modifier) String() string {
	if m == 0 {
		return "none"
	}

	var parts []string
	for _, n := range modifierNames {
		if m.Has(n.m) {
			parts = append(parts, n.name)
		}
	}

	return strings.Join(parts, ",")
}

// ParseModifiers parses a comma-separated list such as "np,vf".
// The empty string and "none" are the empty set.
func ParseModifiers(s string) (Modifier, error) {
	var m Modifier

	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return m, nil
	}

next:
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))

		for _, n := range modifierNames {
			if n.name == p {
				m |= n.m
				continue next
			}
		}

		return 0, errors.Wrap(ErrUnsupportedModifier, "parse %q", p)
	}

	return m, nil
}

// Extra carries the keyword arguments some modifiers need.
type Extra struct {
	Idx    int
	HasIdx bool

	Part    int
	HasPart bool

	Mask    reg.Reg
	HasMask bool

	// Pred overrides the governing predicate of SVE instructions.
	Pred    reg.Reg
	HasPred bool

	RegIdx    reg.Reg
	HasRegIdx bool
}

// Option sets a field of Extra.
type Option func(*Extra)

// WithIndex gives the lane index for IDX.
func WithIndex(k int) Option {
	return func(x *Extra) { x.Idx, x.HasIdx = k, true }
}

// WithPart gives the part number for PART.
func WithPart(p int) Option {
	return func(x *Extra) { x.Part, x.HasPart = p, true }
}

// WithMask gives the mask register for MASK.
func WithMask(r reg.Reg) Option {
	return func(x *Extra) { x.Mask, x.HasMask = r, true }
}

// WithPredicate replaces the default governing predicate p0.
func WithPredicate(r reg.Reg) Option {
	return func(x *Extra) { x.Pred, x.HasPred = r, true }
}

// WithRegIndex gives the index register for REGIDX.
func WithRegIndex(r reg.Reg) Option {
	return func(x *Extra) { x.RegIdx, x.HasRegIdx = r, true }
}

// Collect applies opts to a zero Extra.
func Collect(opts ...Option) Extra {
	var x Extra
	for _, o := range opts {
		o(&x)
	}
	return x
}

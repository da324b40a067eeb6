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

// Package asmtest checks the properties every opd3 emitter must have.
package asmtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Operands picks the registers of one invocation.
type Operands func(t adt.Triple, mods asm.Modifier) (a, b, c reg.Reg)

// Vectors returns a=v1, b=v2, c=v0 for every call.
func Vectors(adt.Triple, asm.Modifier) (a, b, c reg.Reg) {
	return reg.V(1), reg.V(2), reg.V(0)
}

// Case configures the closure checks of one backend.
type Case struct {
	Operands Operands
	// Mask is passed with MASK.
	Mask reg.Reg
}

func (c Case) opts() []asm.Option {
	return []asm.Option{
		asm.WithIndex(0),
		asm.WithPart(0),
		asm.WithMask(c.Mask),
		asm.WithRegIndex(reg.G(1)),
	}
}

// BaseModifiers is the smallest modifier set t can be invoked with: PART for
// split widening, nothing otherwise.
func BaseModifiers(op asm.Opd3, t adt.Triple) asm.Modifier {
	if t.Widens() && op.WideningMethod() == asm.SplitInstructions {
		return asm.PART
	}
	return asm.NoModifiers
}

// Closure checks that every supported triple encodes with its base modifiers,
// and that adding any one modifier either encodes or fails with
// ErrUnsupportedModifier.
func Closure(t *testing.T, op asm.Opd3, c Case) {
	t.Helper()

	ops := c.Operands
	if ops == nil {
		ops = Vectors
	}

	for _, tr := range op.SupportedTriples() {
		base := BaseModifiers(op, tr)

		require.NoError(t, asm.CheckTriple(tr, true), "%v publishes %v", op.Name(), tr)

		a, b, cr := ops(tr, base)
		s, err := op.Invoke(a, b, cr, tr, base, c.opts()...)
		require.NoError(t, err, "%v %v %v", op.Name(), tr, base)
		require.NotEmpty(t, strings.TrimSpace(s))
		require.True(t, strings.HasSuffix(s, "\n"))

		for _, m := range asm.Modifiers() {
			mods := base | m

			a, b, cr := ops(tr, mods)

			s, err := op.Invoke(a, b, cr, tr, mods, c.opts()...)
			if err != nil {
				require.ErrorIs(t, err, asm.ErrUnsupportedModifier, "%v %v %v", op.Name(), tr, mods)
				continue
			}

			require.NotEmpty(t, strings.TrimSpace(s), "%v %v %v", op.Name(), tr, mods)
		}
	}
}

// NegativeClosure checks that every triple not published is refused with
// ErrUnsupportedType.
func NegativeClosure(t *testing.T, op asm.Opd3, c Case) {
	t.Helper()

	ops := c.Operands
	if ops == nil {
		ops = Vectors
	}

	supported := op.SupportedTriples()
	types := adt.Types()

	for _, ta := range types {
		for _, tb := range types {
			for _, tc := range types {
				tr := adt.T3(ta, tb, tc)
				if adt.Contains(supported, tr) {
					continue
				}

				a, b, cr := ops(tr, asm.NoModifiers)

				_, err := op.Invoke(a, b, cr, tr, asm.NoModifiers, c.opts()...)
				require.ErrorIs(t, err, asm.ErrUnsupportedType, "%v %v", op.Name(), tr)
			}
		}
	}
}

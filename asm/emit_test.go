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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

type namer struct{}

func (namer) ClobberName(r reg.Reg) string {
	switch r.Class {
	case reg.GP:
		return "x" + itoa(r.Idx)
	case reg.Vec:
		return "v" + itoa(r.Idx)
	default:
		return "p" + itoa(r.Idx)
	}
}

func itoa(i int) string {
	return string(rune('0' + i))
}

func TestEmitter(t *testing.T) {
	var e Emitter

	assert.Equal(t, "ret\n", e.Line("ret"))
	assert.Equal(t, ".loop:\n", e.LabelDef("loop"))
	assert.Equal(t, ".loop", e.LabelRef("loop"))
	assert.Equal(t, "a\nb\n", e.Lines("a", "b"))

	e.SetInline(true)
	assert.True(t, e.Inline())
	assert.Equal(t, "\"ret\\n\\t\"\n", e.Line("ret"))
	assert.Equal(t, "\".loop%=:\\n\\t\"\n", e.LabelDef("loop"))
	assert.Equal(t, ".loop%=", e.LabelRef("loop"))
}

func TestImplicitClobbers(t *testing.T) {
	var e Emitter
	assert.Empty(t, e.ImplicitClobbers())

	e.Scratch(reg.P(0))
	e.Scratch(reg.G(7))
	e.Scratch(reg.G(3))
	e.Scratch(reg.G(7))

	assert.Equal(t, []reg.Reg{reg.G(3), reg.G(7), reg.P(0)}, e.ImplicitClobbers())
}

func TestDataBlock(t *testing.T) {
	var e Emitter
	e.SetInline(true)

	s, err := e.DataBlock("c", adt.UINT8, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, `".pushsection .rodata\n\t"
".balign 1\n\t"
".c%=:\n\t"
".byte 0x1\n\t"
".byte 0x2\n\t"
".popsection\n\t"
`, s)
}

func TestOperandBlock(t *testing.T) {
	rt := reg.NewTracker()
	require.NoError(t, rt.AddClass(reg.GP, 8))
	require.NoError(t, rt.AddClass(reg.Vec, 8))

	_, err := rt.ReserveSpecific(reg.Vec, 2)
	require.NoError(t, err)
	_, err = rt.ReserveSpecific(reg.GP, 5)
	require.NoError(t, err)
	_, err = rt.ReserveSpecific(reg.GP, 1)
	require.NoError(t, err)

	clobbers := Clobbers(rt, []reg.Reg{reg.P(0), reg.G(5), reg.Operand("y")})
	assert.Equal(t, []reg.Reg{reg.G(1), reg.G(5), reg.V(2), reg.P(0)}, clobbers)

	s := OperandBlock(namer{}, []Operand{{"y", "*y"}}, []Operand{{"x", "*x"}, {"n", "n"}}, clobbers)
	assert.Equal(t, `: [y] "=m" (*y)
: [x] "m" (*x), [n] "m" (n)
: "x1", "x5", "v2", "p0", "memory"
`, s)

	s = OperandBlock(namer{}, nil, nil, nil)
	assert.Equal(t, ":\n:\n: \"memory\"\n", s)
}

func TestWrap(t *testing.T) {
	got := Wrap("\"nop\\n\\t\"\n", ": [y] \"=m\" (y)\n:\n: \"memory\"\n")
	assert.Equal(t, `__asm__ __volatile__ (
"nop\n\t"
: [y] "=m" (y)
:
: "memory"
);
`, got)
}

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

package aarch64

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/asmtest"
	"github.com/ajroetker/hwyasm/asm/reg"
)

func TestScenarios(t *testing.T) {
	neon := NewNEON()
	sve := NewSVE()
	sme := NewSME()

	tests := []struct {
		name    string
		op      asm.Opd3
		a, b, c reg.Reg
		t       adt.Triple
		mods    asm.Modifier
		opts    []asm.Option
		want    string
	}{
		{
			name: "neon_fma_fp64",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP64),
			want: "fmla v0.2d,v1.2d,v2.2d\n",
		},
		{
			name: "neon_fma_fp16_fp32_upper",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.T3(adt.FP16, adt.FP16, adt.FP32),
			mods: asm.PART,
			opts: []asm.Option{asm.WithPart(1)},
			want: "fmlalt v0.4s,v1.8h,v2.8h\n",
		},
		{
			name: "neon_fma_fp8_fp32_np_part2",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.T3(adt.FP8E5M2, adt.FP8E5M2, adt.FP32),
			mods: asm.NP | asm.PART,
			opts: []asm.Option{asm.WithPart(2)},
			want: "fmslltb v0.4s,v1.16b,v2.16b\n",
		},
		{
			name: "sve_fma_fp32",
			op:   sve.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP32),
			want: "fmla z0.s,p0/m,z1.s,z2.s\n",
		},
		{
			name: "sme_mopa_fp64_np",
			op:   sme.FMA(),
			a:    reg.V(0), b: reg.V(1), c: reg.T(0),
			t:    adt.Same(adt.FP64),
			mods: asm.NP,
			want: "fmops za0.d,p0/m,p0/m,z0.d,z1.d\n",
		},
		{
			name: "neon_fmls_fp32",
			op:   neon.FMA(),
			a:    reg.V(3), b: reg.V(4), c: reg.V(5),
			t:    adt.Same(adt.FP32),
			mods: asm.NP,
			want: "fmls v5.4s,v3.4s,v4.4s\n",
		},
		{
			name: "neon_fma_indexed",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP32),
			mods: asm.IDX,
			opts: []asm.Option{asm.WithIndex(3)},
			want: "fmla v0.4s,v1.4s,v2.s[3]\n",
		},
		{
			name: "neon_mla_s16",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.SINT16),
			want: "mla v0.8h,v1.8h,v2.8h\n",
		},
		{
			name: "neon_umlal_u8",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.T3(adt.UINT8, adt.UINT8, adt.UINT16),
			mods: asm.PART,
			opts: []asm.Option{asm.WithPart(0)},
			want: "umlalb v0.8h,v1.16b,v2.16b\n",
		},
		{
			name: "neon_bf16",
			op:   neon.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.T3(adt.BF16, adt.BF16, adt.FP32),
			mods: asm.PART,
			opts: []asm.Option{asm.WithPart(1)},
			want: "bfmlalt v0.4s,v1.8h,v2.8h\n",
		},
		{
			name: "neon_smull",
			op:   neon.FMUL(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.T3(adt.SINT16, adt.SINT16, adt.SINT32),
			mods: asm.PART,
			opts: []asm.Option{asm.WithPart(0)},
			want: "smullb v0.4s,v1.8h,v2.8h\n",
		},
		{
			name: "neon_fmul_fp64",
			op:   neon.FMUL(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP64),
			want: "fmul v0.2d,v1.2d,v2.2d\n",
		},
		{
			name: "sve_fma_masked",
			op:   sve.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP64),
			mods: asm.MASK,
			opts: []asm.Option{asm.WithMask(reg.P(3))},
			want: "fmla z0.d,p3/m,z1.d,z2.d\n",
		},
		{
			name: "sve_fma_predicate_override",
			op:   sve.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP16),
			opts: []asm.Option{asm.WithPredicate(reg.P(2))},
			want: "fmla z0.h,p2/m,z1.h,z2.h\n",
		},
		{
			name: "sve_mla_s64",
			op:   sve.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.SINT64),
			want: "mla z0.d,p0/m,z1.d,z2.d\n",
		},
		{
			name: "sve_fmlalb_indexed",
			op:   sve.FMA(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.T3(adt.FP16, adt.FP16, adt.FP32),
			mods: asm.PART | asm.IDX,
			opts: []asm.Option{asm.WithPart(0), asm.WithIndex(7)},
			want: "fmlalb z0.s,p0/m,z1.h,z2.h[7]\n",
		},
		{
			name: "sme_sumopa",
			op:   sme.FMA(),
			a:    reg.V(2), b: reg.V(3), c: reg.T(3),
			t:    adt.T3(adt.SINT8, adt.UINT8, adt.SINT32),
			want: "sumopa za3.s,p0/m,p0/m,z2.b,z3.b\n",
		},
		{
			name: "sme_bfmopa",
			op:   sme.FMA(),
			a:    reg.V(2), b: reg.V(3), c: reg.T(1),
			t:    adt.T3(adt.BF16, adt.BF16, adt.FP32),
			want: "bfmopa za1.s,p0/m,p0/m,z2.h,z3.h\n",
		},
		{
			name: "sme_fmul_from_sve",
			op:   sme.FMUL(),
			a:    reg.V(1), b: reg.V(2), c: reg.V(0),
			t:    adt.Same(adt.FP32),
			want: "fmul z0.s,p0/m,z1.s,z2.s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Invoke(tt.a, tt.b, tt.c, tt.t, tt.mods, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRejections(t *testing.T) {
	neon := NewNEON()
	sve := NewSVE()
	sme := NewSME()

	v0, v1, v2 := reg.V(0), reg.V(1), reg.V(2)

	tests := []struct {
		name    string
		op      asm.Opd3
		a, b, c reg.Reg
		t       adt.Triple
		mods    asm.Modifier
		opts    []asm.Option
		err     error
	}{
		{"neon_fmul_np", neon.FMUL(), v1, v2, v0, adt.Same(adt.FP64), asm.NP, nil, asm.ErrUnsupportedModifier},
		{"neon_vf", neon.FMA(), v1, v2, v0, adt.Same(adt.FP32), asm.VF, nil, asm.ErrUnsupportedModifier},
		{"neon_regidx", neon.FMA(), v1, v2, v0, adt.Same(adt.FP32), asm.REGIDX, []asm.Option{asm.WithRegIndex(reg.G(1))}, asm.ErrUnsupportedModifier},
		{"neon_mask", neon.FMA(), v1, v2, v0, adt.Same(adt.FP32), asm.MASK, []asm.Option{asm.WithMask(reg.P(1))}, asm.ErrUnsupportedModifier},
		{"neon_uint_uniform", neon.FMA(), v1, v2, v0, adt.Same(adt.UINT32), 0, nil, asm.ErrUnsupportedType},
		{"neon_s64", neon.FMA(), v1, v2, v0, adt.Same(adt.SINT64), 0, nil, asm.ErrUnsupportedType},
		{"neon_widen_no_part", neon.FMA(), v1, v2, v0, adt.T3(adt.FP16, adt.FP16, adt.FP32), 0, nil, asm.ErrMissingParameter},
		{"neon_part_out_of_range", neon.FMA(), v1, v2, v0, adt.T3(adt.FP16, adt.FP16, adt.FP32), asm.PART, []asm.Option{asm.WithPart(2)}, asm.ErrOutOfRange},
		{"neon_idx_out_of_range", neon.FMA(), v1, v2, v0, adt.Same(adt.FP64), asm.IDX, []asm.Option{asm.WithIndex(2)}, asm.ErrOutOfRange},
		{"neon_idx_without_index", neon.FMA(), v1, v2, v0, adt.Same(adt.FP64), asm.IDX, nil, asm.ErrMissingParameter},
		{"neon_bad_class", neon.FMA(), reg.F(1), v2, v0, adt.Same(adt.FP64), 0, nil, asm.ErrBadOperand},
		{"sve_vf", sve.FMA(), v1, v2, v0, adt.Same(adt.FP32), asm.VF, nil, asm.ErrUnsupportedModifier},
		{"sve_mask_not_predicate", sve.FMA(), v1, v2, v0, adt.Same(adt.FP32), asm.MASK, []asm.Option{asm.WithMask(reg.V(3))}, asm.ErrBadOperand},
		{"sme_idx", sme.FMA(), v1, v2, reg.T(0), adt.Same(adt.FP32), asm.IDX, []asm.Option{asm.WithIndex(0)}, asm.ErrUnsupportedModifier},
		{"sme_part", sme.FMA(), v1, v2, reg.T(0), adt.T3(adt.FP16, adt.FP16, adt.FP32), asm.PART, []asm.Option{asm.WithPart(0)}, asm.ErrUnsupportedModifier},
		{"sme_vf", sme.FMA(), v1, v2, reg.T(0), adt.Same(adt.FP32), asm.VF, nil, asm.ErrUnsupportedModifier},
		{"sme_tile_out_of_range", sme.FMA(), v1, v2, reg.T(4), adt.Same(adt.FP32), 0, nil, asm.ErrOutOfRange},
		{"sme_vector_accumulator", sme.FMA(), v1, v2, v0, adt.Same(adt.FP32), 0, nil, asm.ErrBadOperand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.op.Invoke(tt.a, tt.b, tt.c, tt.t, tt.mods, tt.opts...)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPartialSuffix(t *testing.T) {
	tests := []struct {
		ways, part int
		want       string
	}{
		{2, 0, "lb"},
		{2, 1, "lt"},
		{4, 0, "llbb"},
		{4, 1, "llbt"},
		{4, 2, "lltb"},
		{4, 3, "lltt"},
		{8, 5, "llltbt"},
	}

	for _, tt := range tests {
		got, err := PartialSuffix(tt.ways, tt.part)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	// Length 2k, last k characters spell part MSB first.
	for k := 1; k <= 4; k++ {
		ways := 1 << k
		for p := 0; p < ways; p++ {
			got, err := PartialSuffix(ways, p)
			require.NoError(t, err)
			require.Len(t, got, 2*k)
			assert.Equal(t, strings.Repeat("l", k), got[:k])

			var back int
			for _, ch := range got[k:] {
				back <<= 1
				if ch == 't' {
					back |= 1
				}
			}
			assert.Equal(t, p, back)
		}
	}

	_, err := PartialSuffix(3, 0)
	require.ErrorIs(t, err, asm.ErrUnsupportedWidth)

	_, err = PartialSuffix(1, 0)
	require.ErrorIs(t, err, asm.ErrUnsupportedWidth)

	_, err = PartialSuffix(4, 4)
	require.ErrorIs(t, err, asm.ErrOutOfRange)
}

func TestClosure(t *testing.T) {
	sme := NewSME()

	tile := func(adt.Triple, asm.Modifier) (a, b, c reg.Reg) {
		return reg.V(1), reg.V(2), reg.T(0)
	}

	cases := []struct {
		op asm.Opd3
		c  asmtest.Case
	}{
		{NewNEON().FMA(), asmtest.Case{Mask: reg.P(1)}},
		{NewNEON().FMUL(), asmtest.Case{Mask: reg.P(1)}},
		{NewSVE().FMA(), asmtest.Case{Mask: reg.P(1)}},
		{NewSVE().FMUL(), asmtest.Case{Mask: reg.P(1)}},
		{sme.FMA(), asmtest.Case{Operands: tile, Mask: reg.P(1)}},
		{sme.FMUL(), asmtest.Case{Mask: reg.P(1)}},
	}

	for _, tt := range cases {
		t.Run(tt.op.Name(), func(t *testing.T) {
			asmtest.Closure(t, tt.op, tt.c)
			asmtest.NegativeClosure(t, tt.op, tt.c)
		})
	}
}

func TestWideningMethods(t *testing.T) {
	assert.Equal(t, asm.SplitInstructions, NewNEON().FMA().WideningMethod())
	assert.Equal(t, asm.SplitInstructions, NewSVE().FMA().WideningMethod())
	assert.Equal(t, asm.DotNeighbours, NewSME().FMA().WideningMethod())
	assert.Equal(t, "sme.fma", NewSME().FMA().Name())
}

func TestInlineOpd3(t *testing.T) {
	g := NewNEON()
	g.SetInline(true)

	got, err := g.FMA().Invoke(reg.V(1), reg.V(2), reg.V(0), adt.Same(adt.FP64), 0)
	require.NoError(t, err)
	assert.Equal(t, "\"fmla v0.2d,v1.2d,v2.2d\\n\\t\"\n", got)
}

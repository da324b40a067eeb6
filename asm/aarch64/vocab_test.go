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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

var (
	_ asm.Generator       = (*Scalar)(nil)
	_ asm.VectorGenerator = (*NEON)(nil)
	_ asm.VectorGenerator = (*SVE)(nil)
	_ asm.VectorGenerator = (*SME)(nil)

	_ asm.PostIncLoader      = (*NEON)(nil)
	_ asm.VectorZeroBrancher = (*NEON)(nil)
	_ asm.Gatherer           = (*SVE)(nil)
	_ asm.Scatterer          = (*SVE)(nil)
	_ asm.TileGenerator      = (*SME)(nil)
)

func must(t *testing.T) func(string, error) string {
	return func(s string, err error) string {
		t.Helper()
		require.NoError(t, err)
		return s
	}
}

func TestScalarVocabulary(t *testing.T) {
	s := NewScalar()
	ok := must(t)

	assert.Equal(t, "aarch64", s.Name())
	assert.Equal(t, "cbz x3, .done\n", s.JZero(reg.G(3), "done"))
	assert.Equal(t, "b .top\n", s.Jump("top"))
	assert.Equal(t, ".top:\n", s.Label("top"))
	assert.Equal(t, "subs x2, x2, #1\nb.ne .loop\n", s.LoopEnd(reg.G(2), "loop"))
	assert.Equal(t, "cbz x2, .skip\n.loop:\n", s.LoopBeginNZ(reg.G(2), "loop", "skip"))
	assert.Equal(t, "mov x0, xzr\n", s.ZeroGreg(reg.G(0)))
	assert.Equal(t, "mov x1, x2\n", s.MovGreg(reg.G(1), reg.G(2)))
	assert.Equal(t, "movz x4, #4660\nmovk x4, #1, lsl #16\n", s.MovGregImm(reg.G(4), 0x11234))
	assert.Equal(t, "ldr x5, %[n]\n", s.MovParamToGreg(reg.Operand("n"), reg.G(5)))
	assert.Equal(t, "str x5, %[n]\n", s.MovGregToParam(reg.G(5), reg.Operand("n")))
	assert.Equal(t, "add x1, x2, x3\n", s.AddGregGreg(reg.G(1), reg.G(2), reg.G(3)))
	assert.Equal(t, "bl memcpy\n", s.Call("memcpy"))
	assert.Equal(t, "ret\n", s.Ret())

	assert.Equal(t, "add x1, x1, #16\n", ok(s.AddGregImm(reg.G(1), 16)))
	assert.Equal(t, "sub x1, x1, #16\n", ok(s.AddGregImm(reg.G(1), -16)))
	assert.Equal(t, "add x1, x1, #2, lsl #12\n", ok(s.AddGregImm(reg.G(1), 8192)))
	assert.Equal(t, "movz x17, #4097\nadd x1, x1, x17\n", ok(s.AddGregImm(reg.G(1), 4097)))
	assert.Equal(t, "movz x17, #12\nmul x1, x1, x17\n", ok(s.MulGregImm(reg.G(1), 12)))
	assert.Equal(t, "lsl x3, x3, #2\n", ok(s.ShiftGregLeft(reg.G(3), 2)))
	assert.Equal(t, "lsr x3, x3, #63\n", ok(s.ShiftGregRight(reg.G(3), 63)))
	assert.Equal(t, "ldr x3, %[n]\nlsl x3, x3, #3\n", ok(s.MovParamToGregShift(reg.Operand("n"), reg.G(3), 3)))

	assert.Equal(t, "movi d7, #0\n", ok(s.ZeroFreg(reg.F(7), adt.FP64)))
	assert.Equal(t, "fmov s1, s2\n", ok(s.MovFreg(reg.F(1), reg.F(2), adt.FP32)))
	assert.Equal(t, "fcmp h3, #0.0\nb.eq .z\n", ok(s.JFZero(reg.F(3), reg.F(4), reg.G(5), "z", adt.FP16)))
	assert.Equal(t, "ldr d2, [x1, #24]\n", ok(s.LoadScalarImmoff(reg.G(1), 24, reg.F(2), adt.FP64)))
	assert.Equal(t, "prfm pldl1keep, [x1, #64]\n", ok(s.PrefetchL1Boff(reg.G(1), 64)))
	assert.Equal(t, "prfum pldl1keep, [x1, #-8]\n", ok(s.PrefetchL1Boff(reg.G(1), -8)))

	assert.Equal(t, "sub sp, sp, #32\n", s.AdjustStack(-32))
	assert.Empty(t, s.AdjustStack(0))
	assert.Equal(t, "str x19, [sp, #8]\n", ok(s.StoreStack(reg.G(19), 8)))
	assert.Equal(t, "ldr d8, [sp, #0]\n", ok(s.LoadStack(reg.F(8), 0)))

	// Call and the large immediates borrowed the link and scratch registers.
	assert.Equal(t, []reg.Reg{reg.G(17), reg.G(30)}, s.ImplicitClobbers())
}

func TestScalarLimits(t *testing.T) {
	s := NewScalar()

	_, err := s.ShiftGregLeft(reg.G(1), 64)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = s.PrefetchL1Boff(reg.G(1), -264)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = s.PrefetchL1Boff(reg.G(1), 4099)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = s.LoadScalarImmoff(reg.G(1), 3, reg.F(0), adt.FP32)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = s.LoadScalarImmoff(reg.G(1), 0, reg.F(0), adt.Invalid)
	require.ErrorIs(t, err, adt.ErrInvalidType)

	_, err = s.MovFreg(reg.F(1), reg.F(2), adt.SINT32)
	require.ErrorIs(t, err, asm.ErrUnsupportedType)

	_, err = s.StoreStack(reg.V(1), 0)
	require.ErrorIs(t, err, asm.ErrBadOperand)

	_, err = s.StoreStack(reg.G(19), 4)
	require.ErrorIs(t, err, asm.ErrOutOfRange)
}

func TestRegNames(t *testing.T) {
	s := NewScalar()
	z := NewSVE()

	assert.Equal(t, "x3", s.RegName(reg.G(3), adt.FP64))
	assert.Equal(t, "w3", s.RegName(reg.G(3), adt.SINT32))
	assert.Equal(t, "sp", s.RegName(reg.G(31), adt.Invalid))
	assert.Equal(t, "h2", s.RegName(reg.F(2), adt.FP16))
	assert.Equal(t, "d2", s.RegName(reg.F(2), adt.Invalid))
	assert.Equal(t, "%[x]", s.RegName(reg.Operand("x"), adt.FP64))
	assert.Equal(t, "v4", s.RegName(reg.V(4), adt.FP32))
	assert.Equal(t, "z4", z.RegName(reg.V(4), adt.FP32))
	assert.Equal(t, "p1", z.RegName(reg.P(1), adt.FP32))

	assert.Equal(t, "v2", s.ClobberName(reg.F(2)))
	assert.Equal(t, "z2", z.ClobberName(reg.V(2)))
	assert.Equal(t, "za", NewSME().ClobberName(reg.T(3)))
}

func TestTrackers(t *testing.T) {
	rt := NewScalar().NewTracker()
	var got []int
	for {
		r, err := rt.ReserveAny(reg.GP)
		if err != nil {
			require.ErrorIs(t, err, reg.ErrExhausted)
			break
		}
		got = append(got, r.Idx)
	}
	assert.Len(t, got, numGregs-len(withheldGregs))
	for _, i := range withheldGregs {
		assert.NotContains(t, got, i)
	}

	rt = NewSVE().NewTracker()
	p, err := rt.ReserveAny(reg.Pred)
	require.NoError(t, err)
	assert.Equal(t, reg.P(1), p)

	rt = NewSME().NewTracker()
	tile, err := rt.ReserveAny(reg.Tile)
	require.NoError(t, err)
	assert.Equal(t, reg.T(0), tile)
}

func TestNEONVocabulary(t *testing.T) {
	n := NewNEON()
	ok := must(t)

	assert.Equal(t, "movi v3.16b, #0\n", ok(n.ZeroVreg(reg.V(3), adt.FP32)))
	assert.Equal(t, "mov v1.16b, v2.16b\n", ok(n.MovVreg(reg.V(1), reg.V(2), adt.FP32)))
	assert.Equal(t, "ld1 {v0.4s}, [x1]\n", ok(n.LoadVector(reg.G(1), reg.V(0), adt.FP32)))
	assert.Equal(t, "st1 {v0.2d}, [x1]\n", ok(n.StoreVector(reg.G(1), reg.V(0), adt.FP64)))
	assert.Equal(t, "ldr q5, [x1, #48]\n", ok(n.LoadVectorVoff(reg.G(1), 3, reg.V(5), adt.FP32)))
	assert.Equal(t, "str q5, [x1, #32]\n", ok(n.StoreVectorVoff(reg.G(1), 2, reg.V(5), adt.FP32)))
	assert.Equal(t, "ldr q5, [x1, #64]\n", ok(n.LoadVectorImmoff(reg.G(1), 64, reg.V(5), adt.FP32)))
	assert.Equal(t, "ldur q5, [x1, #4]\n", ok(n.LoadVectorImmoff(reg.G(1), 4, reg.V(5), adt.FP32)))
	assert.Equal(t, "stur q5, [x1, #4]\n", ok(n.StoreVectorImmoff(reg.G(1), 4, reg.V(5), adt.FP32)))
	assert.Equal(t, "ld1r {v2.8h}, [x0]\n", ok(n.LoadVectorDist1(reg.G(0), reg.V(2), adt.FP16)))
	assert.Equal(t, "add x17, x0, #8\nld1r {v2.2d}, [x17]\n", ok(n.LoadVectorDist1Boff(reg.G(0), 8, reg.V(2), adt.FP64)))
	assert.Equal(t, "ld1r {v2.4s}, [x0], #4\n", ok(asm.LoadVectorDist1Inc(n, reg.G(0), reg.V(2), adt.FP32)))
	assert.Equal(t, "add x0, x0, #64\n", ok(n.AddGregVoff(reg.G(0), 4, adt.FP32)))
	assert.Equal(t, "umaxv s1, v2.4s\nfmov w3, s1\ncbz w3, .zero\n",
		ok(asm.JVZero(n, reg.V(2), reg.F(1), reg.V(4), reg.G(3), "zero", adt.FP32)))
	assert.Empty(t, ok(n.IsaQuirks(n.NewTracker(), adt.FP32)))

	assert.Equal(t, 16, n.SimdSize())
	assert.False(t, n.IsVLA())
	assert.Equal(t, 4, n.IndexableElements(adt.FP32))
	assert.Equal(t, 0, asm.MaxTregs(n, adt.FP32))
	assert.Empty(t, asm.PostQuirks(n))

	_, err := n.LoadVectorVoff(reg.G(1), 513, reg.V(0), adt.FP32)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = n.LoadVector(reg.G(1), reg.V(0), adt.FP128)
	require.ErrorIs(t, err, asm.ErrUnsupportedType)

	_, err = asm.LoadVectorGather(n, reg.G(1), reg.V(1), reg.V(0), adt.FP32, adt.INT32)
	require.ErrorIs(t, err, asm.ErrUnsupported)

	_, err = asm.StoreTile(n, reg.G(1), reg.G(2), reg.T(0), adt.FP32)
	require.ErrorIs(t, err, asm.ErrUnsupported)
}

func TestSVEVocabulary(t *testing.T) {
	z := NewSVE()
	ok := must(t)

	rt := z.NewTracker()
	assert.Equal(t, "ptrue p0.s\n", ok(z.IsaQuirks(rt, adt.FP32)))
	assert.Equal(t, "dup z1.d, #0\n", ok(z.ZeroVreg(reg.V(1), adt.FP64)))
	assert.Equal(t, "ld1w {z0.s}, p0/z, [x1]\n", ok(z.LoadVector(reg.G(1), reg.V(0), adt.FP32)))
	assert.Equal(t, "st1d {z0.d}, p0, [x1, #-2, mul vl]\n", ok(z.StoreVectorVoff(reg.G(1), -2, reg.V(0), adt.FP64)))
	assert.Equal(t, "add x17, x1, #12\nld1h {z0.h}, p0/z, [x17]\n", ok(z.LoadVectorImmoff(reg.G(1), 12, reg.V(0), adt.FP16)))
	assert.Equal(t, "ld1rd {z3.d}, p0/z, [x2, #16]\n", ok(z.LoadVectorDist1Boff(reg.G(2), 16, reg.V(3), adt.FP64)))
	assert.Equal(t, "ld1rw {z3.s}, p0/z, [x2]\n", ok(z.LoadVectorDist1(reg.G(2), reg.V(3), adt.FP32)))
	assert.Equal(t, "addvl x2, x2, #4\n", ok(z.AddGregVoff(reg.G(2), 4, adt.FP32)))
	assert.Equal(t, "ld1w {z0.s}, p0/z, [x1, z5.s, sxtw]\n",
		ok(asm.LoadVectorGather(z, reg.G(1), reg.V(5), reg.V(0), adt.FP32, adt.INT32)))
	assert.Equal(t, "st1d {z0.d}, p0, [x1, z5.d]\n",
		ok(asm.StoreVectorScatter(z, reg.G(1), reg.V(5), reg.V(0), adt.FP64, adt.INT64)))

	assert.True(t, z.IsVLA())
	assert.Equal(t, 1, z.SimdSize())
	assert.Contains(t, z.CSimdSizeFunction(), "cntb")

	_, err := z.LoadVectorVoff(reg.G(1), 8, reg.V(0), adt.FP32)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = z.LoadVectorImmoff(reg.G(1), 256, reg.V(0), adt.FP64)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = asm.LoadVectorGather(z, reg.G(1), reg.V(5), reg.V(0), adt.FP16, adt.INT16)
	require.ErrorIs(t, err, asm.ErrUnsupportedType)

	_, err = asm.LoadVectorDist1Inc(z, reg.G(0), reg.V(2), adt.FP32)
	require.ErrorIs(t, err, asm.ErrUnsupported)

	_, err = asm.JVZero(z, reg.V(2), reg.F(1), reg.V(4), reg.G(3), "zero", adt.FP32)
	require.ErrorIs(t, err, asm.ErrUnsupported)
}

func TestSMEVocabulary(t *testing.T) {
	s := NewSME()
	ok := must(t)

	assert.Equal(t, "smstart\nptrue p0.d\n", ok(s.IsaQuirks(s.NewTracker(), adt.FP64)))
	assert.Equal(t, "smstop\n", asm.PostQuirks(s))
	assert.Equal(t, "zero {za2.s}\n", ok(asm.ZeroTreg(s, reg.T(2), adt.FP32)))
	assert.Equal(t, 8, asm.MaxTregs(s, adt.FP64))
	assert.Equal(t, 1, asm.MaxTregs(s, adt.SINT8))
	assert.Contains(t, s.CSimdSizeFunction(), "rdsvl")

	want := "mov w12, #0\n" +
		"1:\n" +
		"st1w {za1h.s[w12, 0]}, p0, [x0]\n" +
		"add x0, x0, x1\n" +
		"add w12, w12, #1\n" +
		"cntw x17\n" +
		"cmp w12, w17\n" +
		"b.lt 1b\n"
	assert.Equal(t, want, ok(asm.StoreTile(s, reg.G(0), reg.G(1), reg.T(1), adt.FP32)))
	assert.Equal(t, []reg.Reg{reg.G(12), reg.G(17), reg.P(0)}, s.ImplicitClobbers())

	_, err := s.ZeroTreg(reg.T(2), adt.FP16)
	require.ErrorIs(t, err, asm.ErrOutOfRange)

	_, err = asm.LoadVectorGather(s, reg.G(1), reg.V(5), reg.V(0), adt.FP32, adt.INT32)
	require.ErrorIs(t, err, asm.ErrUnsupported)
}

func TestStoreTileIndexRegister(t *testing.T) {
	s := NewSME()

	rt := s.NewTracker()
	for {
		r, err := rt.ReserveAny(reg.GP)
		if err != nil {
			require.ErrorIs(t, err, reg.ErrExhausted)
			break
		}
		assert.NotEqual(t, 12, r.Idx)
	}

	for _, tc := range []struct {
		name         string
		base, stride reg.Reg
	}{
		{"base", reg.G(12), reg.G(1)},
		{"stride", reg.G(0), reg.G(12)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.StoreTile(tc.base, tc.stride, reg.T(0), adt.FP32)
			require.ErrorIs(t, err, asm.ErrBadOperand)
		})
	}
}

func TestLoadImmoffLimits(t *testing.T) {
	for _, tc := range []struct {
		name string
		g    asm.VectorGenerator
	}{
		{"sve", NewSVE()},
		{"sme", NewSME()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, dt := range []adt.Type{adt.FP64, adt.FP32, adt.FP16} {
				assert.Equal(t, 0, tc.g.MinLoadImmoff(dt), "%v", dt)
				assert.Equal(t, 252, tc.g.MaxLoadImmoff(dt), "%v", dt)
			}
		})
	}
}

func TestCallerSaveSubset(t *testing.T) {
	s := NewScalar()
	cc := asm.NewCallingConvention(ABI, s)

	save, err := cc.SaveBeforeCall(asm.RegSet{reg.GP: {3, 9, 15}})
	require.NoError(t, err)
	assert.Equal(t, "sub sp, sp, #16\nstr x3, [sp, #0]\n", save)

	restore, err := cc.RestoreAfterCall()
	require.NoError(t, err)
	assert.Equal(t, "ldr x3, [sp, #0]\nadd sp, sp, #16\n", restore)
	assert.Zero(t, cc.StackGrowth())
}

func TestInlineLabels(t *testing.T) {
	s := NewScalar()
	s.SetInline(true)

	assert.Equal(t, "\"cbz x3, .done%=\\n\\t\"\n", s.JZero(reg.G(3), "done"))
}

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

package data

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm/adt"
)

func TestInt(t *testing.T) {
	tests := []struct {
		dt   adt.Type
		v    uint64
		want string
	}{
		{adt.UINT8, 0x1ff, ".byte 0xff"},
		{adt.SINT8, uint64(0xffffffffffffffff), ".byte 0xff"},
		{adt.SINT16, 0x12345, ".short 0x2345"},
		{adt.UINT32, 7, ".long 0x7"},
		{adt.SINT64, 0xdeadbeefcafe, ".quad 0xdeadbeefcafe"},
		{adt.FP32, 0x3f800000, ".long 0x3f800000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := Int(tt.dt, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Int(adt.FP128, 1)
	require.ErrorIs(t, err, ErrUnrepresentableSize)
}

func TestIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0x7f, 0x80, 0xffff, 0x12345678, math.MaxUint64, 0x8000000000000001}

	for _, dt := range adt.Types() {
		if !dt.IsInt() {
			continue
		}

		for _, v := range values {
			s, err := Int(dt, v)
			require.NoError(t, err)

			fields := strings.Fields(s)
			require.Len(t, fields, 2)

			m, _ := Macro(dt.Size())
			assert.Equal(t, m, fields[0])

			got, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
			require.NoError(t, err)
			assert.Equal(t, v&mask(dt.Bits()), got, "%v %#x", dt, v)
		}
	}
}

func TestFloatTruncate(t *testing.T) {
	tests := []struct {
		name string
		dt   adt.Type
		v    float64
		want string
	}{
		{"fp16_one", adt.FP16, 1, ".short 0x3c00"},
		{"fp16_1.5", adt.FP16, 1.5, ".short 0x3e00"},
		{"fp16_neg2", adt.FP16, -2, ".short 0xc000"},
		{"fp16_zero", adt.FP16, 0, ".short 0x0"},
		{"fp16_negzero", adt.FP16, math.Copysign(0, -1), ".short 0x8000"},
		{"fp16_max", adt.FP16, 65504, ".short 0x7bff"},
		{"fp16_overflow", adt.FP16, 1e6, ".short 0x7c00"},
		{"fp16_inf", adt.FP16, math.Inf(-1), ".short 0xfc00"},
		{"fp16_nan", adt.FP16, math.NaN(), ".short 0x7e00"},
		{"fp16_min_subnormal", adt.FP16, math.Ldexp(1, -24), ".short 0x1"},
		{"fp16_underflow", adt.FP16, math.Ldexp(1, -30), ".short 0x0"},
		{"fp16_truncates", adt.FP16, 1 + 3*math.Ldexp(1, -11), ".short 0x3c01"},
		{"bf16_one", adt.BF16, 1, ".short 0x3f80"},
		{"fp32_one", adt.FP32, 1, ".long 0x3f800000"},
		{"tf32_one", adt.TF32, 1, ".long 0x3f800000"},
		{"fp32_third", adt.FP32, 1.0 / 3, ".long 0x3eaaaaaa"},
		{"fp64_pi", adt.FP64, math.Pi, ".quad 0x400921fb54442d18"},
		{"e5m2_one", adt.FP8E5M2, 1, ".byte 0x3c"},
		{"e4m3_one", adt.FP8E4M3, 1, ".byte 0x38"},
		{"e4m3_neg_half", adt.FP8E4M3, -0.5, ".byte 0xb0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float(tt.dt, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatNearestEven(t *testing.T) {
	tests := []struct {
		name string
		dt   adt.Type
		v    float64
		want uint64
	}{
		{"fp16_tie_even", adt.FP16, 1 + math.Ldexp(1, -11), 0x3c00},
		{"fp16_tie_odd", adt.FP16, 1 + 3*math.Ldexp(1, -11), 0x3c02},
		{"fp16_carry_to_inf", adt.FP16, 65520, 0x7c00},
		{"fp32_third", adt.FP32, 1.0 / 3, 0x3eaaaaab},
		{"bf16_rounds_up", adt.BF16, 1 + 3*math.Ldexp(1, -8), 0x3f82},
		{"fp16_subnormal_rounds", adt.FP16, math.Ldexp(3, -26), 0x1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Bits(tt.dt, tt.v, NearestEven)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %#x", got)
		})
	}
}

// Every value exactly representable in float32 must survive the FP16/BF16
// path the same way the float32 conversions do.
func TestFloatMatchesFloat32(t *testing.T) {
	for _, v := range []float32{0.25, -7.5, 3.140625, 1024, 6.1035156e-05} {
		want := math.Float32bits(v)
		got, err := Bits(adt.FP32, float64(v), Truncate)
		require.NoError(t, err)
		assert.Equal(t, uint64(want), got)

		got, err = Bits(adt.FP32, float64(v), NearestEven)
		require.NoError(t, err)
		assert.Equal(t, uint64(want), got)
	}
}

func TestFloatUnrepresentable(t *testing.T) {
	_, err := Float(adt.FP128, 1)
	require.ErrorIs(t, err, ErrUnrepresentableSize)

	_, err = Float(adt.SINT32, 1)
	require.ErrorIs(t, err, adt.ErrInvalidType)
}

func TestLiteral(t *testing.T) {
	s, err := Literal(adt.FP32, 2)
	require.NoError(t, err)
	assert.Equal(t, ".long 0x40000000", s)

	s, err = Literal(adt.FP16, -1)
	require.NoError(t, err)
	assert.Equal(t, ".short 0xbc00", s)

	s, err = Literal(adt.UINT16, uint16(0xabcd))
	require.NoError(t, err)
	assert.Equal(t, ".short 0xabcd", s)

	s, err = Literal(adt.SINT32, -1)
	require.NoError(t, err)
	assert.Equal(t, ".long 0xffffffff", s)

	_, err = Literal(adt.SINT32, 1.5)
	require.ErrorIs(t, err, adt.ErrInvalidType)

	s, err = Literal(adt.FP16, float32(1.5), WithRounding(NearestEven))
	require.NoError(t, err)
	assert.Equal(t, ".short 0x3e00", s)
}

func TestBlock(t *testing.T) {
	lines, err := Block(".c", adt.FP32, 1.0, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		".pushsection .rodata",
		".balign 4",
		".c:",
		".long 0x3f800000",
		".long 0x40000000",
		".popsection",
	}, lines)

	_, err = Block(".c", adt.SINT8, 1.5)
	require.ErrorIs(t, err, adt.ErrInvalidType)
}

func TestParseRounding(t *testing.T) {
	r, err := ParseRounding("nearest")
	require.NoError(t, err)
	assert.Equal(t, NearestEven, r)

	r, err = ParseRounding("")
	require.NoError(t, err)
	assert.Equal(t, Truncate, r)

	_, err = ParseRounding("up")
	require.Error(t, err)
}

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

package kernel

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/aarch64"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/riscv"
	"github.com/ajroetker/hwyasm/asm/x86"
)

func TestNEONInline(t *testing.T) {
	k, err := NewAXPY(context.Background(), aarch64.NewNEON(), adt.FP32)
	require.NoError(t, err)

	want := `__asm__ __volatile__ (
"ldr x0, %[n]\n\t"
"ldr x1, %[alpha]\n\t"
"ldr x2, %[x]\n\t"
"ldr x3, %[y]\n\t"
"ld1r {v0.4s}, [x1]\n\t"
"cbz x0, .axpy_done%=\n\t"
".axpy_loop%=:\n\t"
"ld1 {v1.4s}, [x2]\n\t"
"ld1 {v2.4s}, [x3]\n\t"
"fmla v2.4s,v1.4s,v0.4s\n\t"
"st1 {v2.4s}, [x3]\n\t"
"add x2, x2, #16\n\t"
"add x3, x3, #16\n\t"
"subs x0, x0, #1\n\t"
"b.ne .axpy_loop%=\n\t"
".axpy_done%=:\n\t"
:
: [n] "m" (n), [alpha] "m" (alpha), [x] "m" (x), [y] "m" (y)
: "x0", "x1", "x2", "x3", "v0", "v1", "v2", "memory"
);
`

	if diff := cmp.Diff(want, k.Text); diff != "" {
		t.Errorf("axpy (-want +got):\n%s", diff)
	}

	assert.Equal(t, AXPY, k.Kind)
	assert.Equal(t, "neon", k.ISA)
	assert.Empty(t, k.Symbol)
}

func TestNEONStandalone(t *testing.T) {
	g := aarch64.NewNEON()

	k, err := NewScale(context.Background(), g, adt.FP64, Standalone("scale_f64"))
	require.NoError(t, err)

	want := `.text
.globl scale_f64
scale_f64:
ld1r {v0.2d}, [x1]
cbz x0, .scale_f64_done
.scale_f64_loop:
ld1 {v1.2d}, [x2]
fmul v2.2d,v1.2d,v0.2d
st1 {v2.2d}, [x3]
add x2, x2, #16
add x3, x3, #16
subs x0, x0, #1
b.ne .scale_f64_loop
.scale_f64_done:
ret
`

	if diff := cmp.Diff(want, k.Text); diff != "" {
		t.Errorf("scale (-want +got):\n%s", diff)
	}

	assert.False(t, g.Inline(), "inline mode restored")
}

func TestInlineModeRestored(t *testing.T) {
	g := x86.NewFMA256()
	g.SetInline(true)

	k, err := NewAXPY(context.Background(), g, adt.FP32, Standalone("axpy"))
	require.NoError(t, err)

	assert.True(t, g.Inline())
	assert.NotContains(t, k.Text, "\\n\\t")
}

func TestBackends(t *testing.T) {
	for _, tc := range []struct {
		name string
		g    asm.VectorGenerator
		kind Kind
		dt   adt.Type
		opts []Option
		want []string
	}{
		{"sve_axpy", aarch64.NewSVE(), AXPY, adt.FP32, nil, []string{"ptrue p0.s", "fmla z2.s,p0/m,z1.s,z0.s"}},
		{"sme_scale", aarch64.NewSME(), Scale, adt.FP32, nil, []string{"smstart", "smstop"}},
		{"avx512_axpy", x86.NewAVX512(false), AXPY, adt.FP64, []Option{Standalone("axpy_f64")}, []string{"vfmadd231pd %%zmm1,%%zmm0,%%zmm2\n", "ret\n"}},
		{"fma128_scale", x86.NewFMA128(), Scale, adt.FP32, nil, []string{"vmulps %%xmm1,%%xmm0,%%xmm2"}},
		{"rvv_axpy", riscv.NewRVV(), AXPY, adt.FP32, []Option{Standalone("axpy_f32")}, []string{"vsetvli t0, zero, e32, m1, ta, ma\n", "vfmacc.vv v2,v1,v0\n", "ret\n"}},
		{"neon_prefetch", aarch64.NewNEON(), AXPY, adt.FP32, []Option{Prefetch(256)}, []string{"prfm pldl1keep, [x2, #256]"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k, err := Build(context.Background(), tc.g, tc.kind, tc.dt, tc.opts...)
			require.NoError(t, err)

			for _, w := range tc.want {
				assert.Contains(t, k.Text, w)
			}
		})
	}
}

func TestRejections(t *testing.T) {
	ctx := context.Background()

	_, err := NewAXPY(ctx, aarch64.NewSME(), adt.FP32)
	assert.ErrorIs(t, err, asm.ErrUnsupported)

	_, err = NewAXPY(ctx, riscv.NewRVV071(), adt.FP32)
	assert.ErrorIs(t, err, asm.ErrUnsupported)

	_, err = NewAXPY(ctx, x86.NewFMA256(), adt.FP16)
	assert.ErrorIs(t, err, asm.ErrUnsupportedType)

	_, err = Build(ctx, aarch64.NewNEON(), Kind(9), adt.FP32)
	assert.ErrorIs(t, err, ErrUnknownKernel)

	_, err = NewAXPY(ctx, aarch64.NewNEON(), adt.FP32, Prefetch(1<<20))
	assert.ErrorIs(t, err, asm.ErrOutOfRange)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("AXPY")
	require.NoError(t, err)
	assert.Equal(t, AXPY, k)

	_, err = ParseKind("gemm")
	assert.ErrorIs(t, err, ErrUnknownKernel)

	assert.Equal(t, "scale", Scale.String())
	assert.Equal(t, []Kind{AXPY, Scale}, Kinds())
}

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

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/reg"
	"github.com/ajroetker/hwyasm/asm/target"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestOpd3(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{[]string{"--isa", "neon"}, "fmla v0.4s,v1.4s,v2.4s\n"},
		{[]string{"--isa", "neon", "--types", "fp16,fp16,fp32", "--mods", "part", "--part", "1"}, "fmlalt v0.4s,v1.8h,v2.8h\n"},
		{[]string{"--isa", "sve", "--types", "fp32"}, "fmla z0.s,p0/m,z1.s,z2.s\n"},
		{[]string{"--isa", "rvv", "--a", "v:2", "--b", "f:0", "--types", "fp16,fp16,fp32", "--mods", "np,vf"}, "vfwnmsac.vf v0,v2,f0\n"},
		{[]string{"--isa", "sme", "--a", "v:0", "--b", "v:1", "--c", "t:0", "--types", "fp64", "--mods", "np"}, "fmops za0.d,p0/m,p0/m,z0.d,z1.d\n"},
		{[]string{"--isa", "AVX512", "--types", "fp64"}, "vfmadd231pd %%zmm1,%%zmm2,%%zmm0\n"},
		{[]string{"--isa", "neon", "--types", "fp64", "--inline"}, "\"fmla v0.2d,v1.2d,v2.2d\\n\\t\"\n"},
	} {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			got, err := run(t, append([]string{"opd3"}, tc.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := run(t, "opd3", "--isa", "neon", "--op", "fmul", "--types", "fp64", "--mods", "np")
	assert.ErrorIs(t, err, asm.ErrUnsupportedModifier)

	_, err = run(t, "opd3", "--isa", "neon", "--a", "q1")
	assert.ErrorIs(t, err, asm.ErrBadOperand)

	_, err = run(t, "opd3", "--isa", "aarch64")
	assert.ErrorIs(t, err, target.ErrNotVector)
}

func TestParseReg(t *testing.T) {
	for s, want := range map[string]reg.Reg{
		"v:3":  reg.V(3),
		"G:12": reg.G(12),
		"p:1":  reg.P(1),
		"t:2":  reg.T(2),
		"%y":   reg.Operand("y"),
	} {
		got, err := parseReg(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	for _, s := range []string{"v3", "x:1", "v:-1", "v:a", "%"} {
		_, err := parseReg(s)
		assert.ErrorIs(t, err, asm.ErrBadOperand, s)
	}
}

func TestTriples(t *testing.T) {
	out, err := run(t, "triples", "--isa", "fma256")
	require.NoError(t, err)
	assert.Equal(t, "fp64,fp64,fp64\nfp32,fp32,fp32\n", out)

	out, err = run(t, "triples", "--isa", "avx512", "--fp16")
	require.NoError(t, err)
	assert.Contains(t, out, "fp16,fp16,fp16\n")

	_, err = run(t, "triples", "--isa", "neon", "--op", "fdiv")
	assert.ErrorIs(t, err, asm.ErrUnsupported)
}

func TestISAs(t *testing.T) {
	out, err := run(t, "isas")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(target.All())+1)

	assert.True(t, strings.HasPrefix(lines[0], "Isa"), lines[0])
	assert.Contains(t, lines[0], "Simd Bytes")
	assert.Contains(t, out, "vla")
	assert.Contains(t, out, "sysv-amd64")
}

func TestKernel(t *testing.T) {
	out, err := run(t, "kernel", "--isa", "neon", "--kernel", "axpy", "--dt", "fp32")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "// axpy fp32 neon\n__asm__ __volatile__ (\n"), out)

	out, err = run(t, "kernel", "--isa", "all", "--kernel", "axpy", "--dt", "fp64", "--standalone")
	require.NoError(t, err)
	assert.Contains(t, out, "axpy_fp64_neon:\n")
	assert.Contains(t, out, "# axpy fp64 avx512\n")
	assert.NotContains(t, out, "rvv071", "rvv071 cannot bump by a vector length")
	assert.NotContains(t, out, "axpy_fp64_sme", "sme fma works on tiles")

	_, err = run(t, "kernel", "--isa", "sme", "--kernel", "axpy")
	assert.ErrorIs(t, err, asm.ErrUnsupported)

	_, err = run(t, "kernel", "--isa", "neon", "--kernel", "gemm")
	assert.Error(t, err)
}

func TestLiteral(t *testing.T) {
	out, err := run(t, "literal", "--dt", "fp32", "1")
	require.NoError(t, err)
	assert.Equal(t, ".long 0x3f800000\n", out)

	out, err = run(t, "literal", "--dt", "fp16", "1.5")
	require.NoError(t, err)
	assert.Equal(t, ".short 0x3e00\n", out)

	out, err = run(t, "literal", "--dt", "sint8", "--", "-1", "0x7f")
	require.NoError(t, err)
	assert.Equal(t, ".byte 0xff\n.byte 0x7f\n", out)

	_, err = run(t, "literal", "--dt", "uint8", "zz")
	assert.Error(t, err)

	_, err = run(t, "literal", "--dt", "fp32", "--round", "up", "1")
	assert.Error(t, err)
}

func TestFeatures(t *testing.T) {
	out, err := run(t, "features", "--features", "fp asimd sve")
	require.NoError(t, err)
	assert.Equal(t, "neon\nsve\n", out)

	out, err = run(t, "features", "--features", "rv64imafdcv")
	require.NoError(t, err)
	assert.Equal(t, "rvv\nrvv071\n", out)
}

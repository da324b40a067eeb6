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

package x86

import (
	"fmt"
	"math"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

var avxTriples = []adt.Triple{
	adt.Same(adt.FP64),
	adt.Same(adt.FP32),
}

// avxCore is the vector vocabulary shared by every AVX width.
type avxCore struct {
	Base

	width  int
	nvregs int
	letter string

	fma, fmul *asm.Op3
}

func (v *avxCore) init(isa string, width, nregs int, triples []adt.Triple) {
	v.Base = Base{isa: isa, nfregs: nregs}
	v.width = width
	v.nvregs = nregs

	switch width {
	case 16:
		v.letter = "x"
	case 32:
		v.letter = "y"
	default:
		v.letter = "z"
	}

	v.fma = &asm.Op3{
		ISA:      isa,
		Op:       asm.FMA,
		Widening: asm.None,
		Triples:  triples,
		Allowed:  asm.NP,
		Encode:   v.encode(asm.FMA),
		Out:      &v.Emitter,
	}

	v.fmul = &asm.Op3{
		ISA:      isa,
		Op:       asm.FMUL,
		Widening: asm.None,
		Triples:  triples,
		Encode:   v.encode(asm.FMUL),
		Out:      &v.Emitter,
	}
}

func (v *avxCore) FMA() asm.Opd3  { return v.fma }
func (v *avxCore) FMUL() asm.Opd3 { return v.fmul }

func (v *avxCore) Opd3s() []asm.Opd3 { return []asm.Opd3{v.fma, v.fmul} }

func packedSuffix(dt adt.Type) string {
	switch dt {
	case adt.FP64:
		return "pd"
	case adt.FP32:
		return "ps"
	case adt.FP16:
		return "ph"
	}
	return ""
}

func (v *avxCore) encode(k asm.Kind) asm.Encoder {
	return func(a, b, c reg.Reg, t adt.Triple, mods asm.Modifier, ex asm.Extra) (string, error) {
		if !a.IsParam() {
			if err := checkClass(a, reg.Vec, v.nvregs); err != nil {
				return "", err
			}
		}
		for _, r := range []reg.Reg{b, c} {
			if err := checkClass(r, reg.Vec, v.nvregs); err != nil {
				return "", err
			}
		}

		base := "mul"
		if k == asm.FMA {
			base = "fmadd231"
			if mods.Has(asm.NP) {
				base = "fnmadd231"
			}
		}

		return fmt.Sprintf("v%s%s %s,%s,%s", base, packedSuffix(t.C), v.vreg(a), v.vreg(b), v.vreg(c)), nil
	}
}

// vreg prints a vector register at the backend width, or a parameter
// handle as a memory operand.
func (v *avxCore) vreg(r reg.Reg) string {
	if r.IsParam() {
		return "%[" + r.Sym + "]"
	}
	return pct(v.vname(r.Idx))
}

func (v *avxCore) vname(i int) string {
	return fmt.Sprintf("%smm%d", v.letter, i)
}

func (v *avxCore) RegName(r reg.Reg, dt adt.Type) string {
	if r.Class == reg.Vec {
		return v.vreg(r)
	}
	return v.Base.RegName(r, dt)
}

func (v *avxCore) NewTracker() *reg.Tracker {
	rt := v.Base.NewTracker()
	_ = rt.AddClass(reg.Vec, v.nvregs)
	return rt
}

func (v *avxCore) SimdSize() int { return v.width }

func (v *avxCore) IsVLA() bool { return false }

func (v *avxCore) FregsInVregs() bool { return true }

// IndexableElements is zero: no AVX multiply takes a lane-indexed operand.
func (v *avxCore) IndexableElements(dt adt.Type) int { return 0 }

func (v *avxCore) MaxVregs() int { return v.nvregs }

func (v *avxCore) MinLoadVoff() int { return 0 }

func (v *avxCore) MaxLoadVoff() int { return math.MaxInt32 / v.width }

func (v *avxCore) MinLoadImmoff(dt adt.Type) int { return 0 }

func (v *avxCore) MaxLoadImmoff(dt adt.Type) int { return math.MaxInt32 }

func (v *avxCore) HasAddGregVoff() bool { return true }

func (v *avxCore) CSimdSizeFunction() string {
	return fmt.Sprintf("static inline int simd_size(void) { return %d; }\n", v.width)
}

func (v *avxCore) IsaQuirks(rt *reg.Tracker, dt adt.Type) (string, error) {
	return "", nil
}

func (v *avxCore) check(r reg.Reg, dt adt.Type) error {
	if err := checkClass(r, reg.Vec, v.nvregs); err != nil {
		return err
	}
	if size, err := adt.SizeOf(dt); err != nil || size > 8 {
		return errors.Wrap(asm.ErrUnsupportedType, "%v lanes", dt)
	}
	return nil
}

func (v *avxCore) ZeroVreg(r reg.Reg, dt adt.Type) (string, error) {
	if err := v.check(r, dt); err != nil {
		return "", err
	}

	op := "vxorps"
	if v.width == 64 {
		op = "vpxord"
	}

	x := v.vreg(r)

	return v.Line(fmt.Sprintf("%s %s,%s,%s", op, x, x, x)), nil
}

func (v *avxCore) MovVreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	return v.Line(fmt.Sprintf("vmovaps %s,%s", v.vreg(src), v.vreg(dst))), nil
}

func (v *avxCore) LoadVector(base, r reg.Reg, dt adt.Type) (string, error) {
	return v.LoadVectorImmoff(base, 0, r, dt)
}

func (v *avxCore) StoreVector(base, r reg.Reg, dt adt.Type) (string, error) {
	return v.StoreVectorImmoff(base, 0, r, dt)
}

func (v *avxCore) LoadVectorVoff(base reg.Reg, vidx int, r reg.Reg, dt adt.Type) (string, error) {
	if vidx < v.MinLoadVoff() || vidx > v.MaxLoadVoff() {
		return "", errors.Wrap(asm.ErrOutOfRange, "load vector offset %d", vidx)
	}
	return v.LoadVectorImmoff(base, vidx*v.width, r, dt)
}

func (v *avxCore) StoreVectorVoff(base reg.Reg, vidx int, r reg.Reg, dt adt.Type) (string, error) {
	if vidx < v.MinLoadVoff() || vidx > v.MaxLoadVoff() {
		return "", errors.Wrap(asm.ErrOutOfRange, "store vector offset %d", vidx)
	}
	return v.StoreVectorImmoff(base, vidx*v.width, r, dt)
}

func (v *avxCore) LoadVectorImmoff(base reg.Reg, off int, r reg.Reg, dt adt.Type) (string, error) {
	if err := v.immoff(off, r, dt); err != nil {
		return "", err
	}
	return v.Line(fmt.Sprintf("vmovups %s,%s", mem(base, off), v.vreg(r))), nil
}

func (v *avxCore) StoreVectorImmoff(base reg.Reg, off int, r reg.Reg, dt adt.Type) (string, error) {
	if err := v.immoff(off, r, dt); err != nil {
		return "", err
	}
	return v.Line(fmt.Sprintf("vmovups %s,%s", v.vreg(r), mem(base, off))), nil
}

func (v *avxCore) immoff(off int, r reg.Reg, dt adt.Type) error {
	if off < v.MinLoadImmoff(dt) || off > v.MaxLoadImmoff(dt) {
		return errors.Wrap(asm.ErrOutOfRange, "vector offset %d", off)
	}
	return v.check(r, dt)
}

// broadcast picks the instruction replicating one dt element to every lane.
func (v *avxCore) broadcast(dt adt.Type) string {
	switch {
	case dt.Size() == 1:
		return "vpbroadcastb"
	case dt.Size() == 2:
		return "vpbroadcastw"
	case dt.Size() == 4 && dt.IsFloat():
		return "vbroadcastss"
	case dt.Size() == 4:
		return "vpbroadcastd"
	case dt.IsFloat() && v.width == 16:
		return "vmovddup"
	case dt.IsFloat():
		return "vbroadcastsd"
	}
	return "vpbroadcastq"
}

func (v *avxCore) LoadVectorDist1(base, r reg.Reg, dt adt.Type) (string, error) {
	return v.LoadVectorDist1Boff(base, 0, r, dt)
}

func (v *avxCore) LoadVectorDist1Boff(base reg.Reg, off int, r reg.Reg, dt adt.Type) (string, error) {
	if err := v.immoff(off, r, dt); err != nil {
		return "", err
	}
	return v.Line(fmt.Sprintf("%s %s,%s", v.broadcast(dt), mem(base, off), v.vreg(r))), nil
}

// LoadVectorDist1Inc broadcasts one element and advances base past it.
func (v *avxCore) LoadVectorDist1Inc(base, r reg.Reg, dt adt.Type) (string, error) {
	l, err := v.LoadVectorDist1(base, r, dt)
	if err != nil {
		return "", err
	}
	inc, err := v.AddGregImm(base, int64(dt.Size()))
	if err != nil {
		return "", err
	}
	return l + inc, nil
}

func (v *avxCore) AddGregVoff(r reg.Reg, nvec int, dt adt.Type) (string, error) {
	return v.AddGregImm(r, int64(nvec)*int64(v.width))
}

// AVX is the AVX2+FMA backend at 128 or 256 bits.
type AVX struct {
	avxCore
}

// NewFMA128 returns the xmm backend.
func NewFMA128() *AVX {
	v := &AVX{}
	v.init("fma128", 16, 16, avxTriples)
	return v
}

// NewFMA256 returns the ymm backend.
func NewFMA256() *AVX {
	v := &AVX{}
	v.init("fma256", 32, 16, avxTriples)
	return v
}

// JVZero branches to label when every bit of r is zero.
func (v *AVX) JVZero(r, f, vscratch, gr reg.Reg, label string, dt adt.Type) (string, error) {
	if err := checkClass(r, reg.Vec, v.nvregs); err != nil {
		return "", err
	}
	x := v.vreg(r)
	return v.Lines(
		fmt.Sprintf("vptest %s,%s", x, x),
		"jz "+v.LabelRef(label),
	), nil
}

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

package riscv

import (
	"fmt"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// RVV is the vector extension backend. Draft 0.7.1 parts (XTheadVector)
// take the element width from vtype instead of the mnemonic and cannot read
// the vector length in bytes.
type RVV struct {
	RV64

	v071 bool

	fma, fmul *asm.Op3
}

// NewRVV returns the RVV 1.0 backend.
func NewRVV() *RVV { return newRVV("rvv", false) }

// NewRVV071 returns the RVV 0.7.1 backend.
func NewRVV071() *RVV { return newRVV("rvv071", true) }

func newRVV(isa string, v071 bool) *RVV {
	z := &RVV{RV64: RV64{isa: isa}, v071: v071}

	z.fma = &asm.Op3{
		ISA:       isa,
		Op:        asm.FMA,
		Widening:  asm.VecGroup,
		Triples:   rvvFMATriples,
		Allowed:   asm.NP | asm.VF | asm.MASK,
		MixedSign: true,
		Encode:    z.encode(asm.FMA),
		Out:       &z.Emitter,
	}

	z.fmul = &asm.Op3{
		ISA:       isa,
		Op:        asm.FMUL,
		Widening:  asm.VecGroup,
		Triples:   rvvFMULTriples,
		Allowed:   asm.VF | asm.MASK,
		MixedSign: true,
		Encode:    z.encode(asm.FMUL),
		Out:       &z.Emitter,
	}

	return z
}

func (z *RVV) FMA() asm.Opd3  { return z.fma }
func (z *RVV) FMUL() asm.Opd3 { return z.fmul }

func (z *RVV) Opd3s() []asm.Opd3 { return []asm.Opd3{z.fma, z.fmul} }

func (z *RVV) NewTracker() *reg.Tracker {
	rt := z.RV64.NewTracker()
	_ = rt.AddClass(reg.Vec, numVregs)
	return rt
}

func (z *RVV) SimdSize() int { return 1 }

func (z *RVV) IsVLA() bool { return true }

func (z *RVV) FregsInVregs() bool { return false }

func (z *RVV) IndexableElements(dt adt.Type) int { return 0 }

func (z *RVV) MaxVregs() int { return numVregs }

func (z *RVV) MinLoadVoff() int { return 0 }

func (z *RVV) MaxLoadVoff() int { return 0 }

func (z *RVV) MinLoadImmoff(dt adt.Type) int { return 0 }

func (z *RVV) MaxLoadImmoff(dt adt.Type) int { return 0 }

func (z *RVV) HasAddGregVoff() bool { return !z.v071 }

func (z *RVV) CSimdSizeFunction() string {
	if z.v071 {
		return "static inline int simd_size(void) {\n" +
			"\tlong n;\n" +
			"\t__asm__ __volatile__(\"vsetvli %0, zero, e8, m1\" : \"=r\"(n));\n" +
			"\treturn (int)n;\n" +
			"}\n"
	}
	return "static inline int simd_size(void) {\n" +
		"\tlong n;\n" +
		"\t__asm__ __volatile__(\"csrr %0, vlenb\" : \"=r\"(n));\n" +
		"\treturn (int)n;\n" +
		"}\n"
}

// IsaQuirks sets vtype for dt lanes at the maximum vector length. The
// resulting length lands in the GP register aliased "vl" in rt, reserved on
// first use.
func (z *RVV) IsaQuirks(rt *reg.Tracker, dt adt.Type) (string, error) {
	size, err := adt.SizeOf(dt)
	if err != nil || size > 8 {
		return "", errors.Wrap(asm.ErrUnsupportedType, "vsetvli %v", dt)
	}

	var vl string

	if rt != nil {
		r, err := vlReg(rt)
		if err != nil {
			return "", errors.Wrap(err, "vsetvli")
		}
		vl = x(r)
	} else {
		vl = z.tmp(t3)
	}

	if z.v071 {
		return z.Line(fmt.Sprintf("vsetvli %s, zero, e%d, m1", vl, 8*size)), nil
	}

	return z.Line(fmt.Sprintf("vsetvli %s, zero, e%d, m1, ta, ma", vl, 8*size)), nil
}

func vlReg(rt *reg.Tracker) (reg.Reg, error) {
	if r, ok := rt.Lookup(reg.GP, "vl"); ok {
		return r, nil
	}

	r, err := rt.ReserveAny(reg.GP)
	if err != nil {
		return reg.Reg{}, err
	}

	return r, rt.Alias(reg.GP, "vl", r.Idx)
}

// mem returns the load ("l") or store ("s") mnemonic for dt lanes; kind is
// "e" for unit stride and "se" for strided.
func (z *RVV) mem(op, kind string, dt adt.Type) string {
	if z.v071 {
		return fmt.Sprintf("v%s%s.v", op, kind)
	}
	return fmt.Sprintf("v%s%s%d.v", op, kind, dt.Bits())
}

func (z *RVV) check(r reg.Reg, dt adt.Type) error {
	if err := checkClass(r, reg.Vec, numVregs); err != nil {
		return err
	}
	if size, err := adt.SizeOf(dt); err != nil || size > 8 {
		return errors.Wrap(asm.ErrUnsupportedType, "%v lanes", dt)
	}
	return nil
}

func (z *RVV) ZeroVreg(r reg.Reg, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("vmv.v.i %s, 0", vr(r))), nil
}

func (z *RVV) MovVreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	return z.Line(fmt.Sprintf("vmv.v.v %s, %s", vr(dst), vr(src))), nil
}

func (z *RVV) unit(op string, base, r reg.Reg, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("%s %s, (%s)", z.mem(op, "e", dt), vr(r), x(base))), nil
}

func (z *RVV) LoadVector(base, r reg.Reg, dt adt.Type) (string, error) {
	return z.unit("l", base, r, dt)
}

func (z *RVV) StoreVector(base, r reg.Reg, dt adt.Type) (string, error) {
	return z.unit("s", base, r, dt)
}

func (z *RVV) LoadVectorVoff(base reg.Reg, vidx int, r reg.Reg, dt adt.Type) (string, error) {
	if vidx != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "vector offset %d", vidx)
	}
	return z.LoadVector(base, r, dt)
}

func (z *RVV) StoreVectorVoff(base reg.Reg, vidx int, r reg.Reg, dt adt.Type) (string, error) {
	if vidx != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "vector offset %d", vidx)
	}
	return z.StoreVector(base, r, dt)
}

func (z *RVV) LoadVectorImmoff(base reg.Reg, off int, r reg.Reg, dt adt.Type) (string, error) {
	if off != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "immediate offset %d", off)
	}
	return z.LoadVector(base, r, dt)
}

func (z *RVV) StoreVectorImmoff(base reg.Reg, off int, r reg.Reg, dt adt.Type) (string, error) {
	if off != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "immediate offset %d", off)
	}
	return z.StoreVector(base, r, dt)
}

// LoadVectorDist1 broadcasts through a zero-stride load.
func (z *RVV) LoadVectorDist1(base, r reg.Reg, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("%s %s, (%s), zero", z.mem("l", "se", dt), vr(r), x(base))), nil
}

func (z *RVV) LoadVectorDist1Boff(base reg.Reg, off int, r reg.Reg, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}
	if !simm12(int64(off)) {
		return "", errors.Wrap(asm.ErrOutOfRange, "dist1 offset %d", off)
	}

	t := z.tmp(t3)

	return z.Lines(
		fmt.Sprintf("addi %s, %s, %d", t, x(base), off),
		fmt.Sprintf("%s %s, (%s), zero", z.mem("l", "se", dt), vr(r), t),
	), nil
}

// LoadVectorDist1Inc broadcasts one element and advances base past it.
func (z *RVV) LoadVectorDist1Inc(base, r reg.Reg, dt adt.Type) (string, error) {
	l, err := z.LoadVectorDist1(base, r, dt)
	if err != nil {
		return "", err
	}
	return l + z.Line(fmt.Sprintf("addi %s, %s, %d", x(base), x(base), dt.Size())), nil
}

func (z *RVV) LoadVectorImmStride(base reg.Reg, stride int, r reg.Reg, dt adt.Type) (string, error) {
	return z.immStride("l", base, stride, r, dt)
}

func (z *RVV) StoreVectorImmStride(base reg.Reg, stride int, r reg.Reg, dt adt.Type) (string, error) {
	return z.immStride("s", base, stride, r, dt)
}

func (z *RVV) immStride(op string, base reg.Reg, stride int, r reg.Reg, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}

	t := z.tmp(t3)

	return z.Lines(
		fmt.Sprintf("li %s, %d", t, stride),
		fmt.Sprintf("%s %s, (%s), %s", z.mem(op, "se", dt), vr(r), x(base), t),
	), nil
}

func (z *RVV) LoadVectorGregStride(base, stride, r reg.Reg, dt adt.Type) (string, error) {
	return z.gregStride("l", base, stride, r, dt)
}

func (z *RVV) StoreVectorGregStride(base, stride, r reg.Reg, dt adt.Type) (string, error) {
	return z.gregStride("s", base, stride, r, dt)
}

func (z *RVV) gregStride(op string, base, stride, r reg.Reg, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("%s %s, (%s), %s", z.mem(op, "se", dt), vr(r), x(base), x(stride))), nil
}

func (z *RVV) indexed(op string, base, idx, r reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}
	if err := checkClass(idx, reg.Vec, numVregs); err != nil {
		return "", err
	}
	if it.Size() == 0 {
		return "", errors.Wrap(asm.ErrUnsupportedType, "index type %v", it)
	}

	if z.v071 {
		if it.Size() != dt.Size() {
			return "", errors.Wrap(asm.ErrUnsupportedType, "%v lanes with %v offsets", dt, it)
		}
		return z.Line(fmt.Sprintf("v%sxe.v %s, (%s), %s", op, vr(r), x(base), vr(idx))), nil
	}

	mn := fmt.Sprintf("v%suxei%d.v", op, it.Bits())

	return z.Line(fmt.Sprintf("%s %s, (%s), %s", mn, vr(r), x(base), vr(idx))), nil
}

// LoadVectorGather loads lanes from base plus the unsigned byte offsets in idx.
func (z *RVV) LoadVectorGather(base, idx, r reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	return z.indexed("l", base, idx, r, dt, it)
}

// StoreVectorScatter stores lanes to base plus the unsigned byte offsets in idx.
func (z *RVV) StoreVectorScatter(base, idx, r reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	return z.indexed("s", base, idx, r, dt, it)
}

// AddGregVoff adds nvec vector lengths, read from vlenb, to r.
func (z *RVV) AddGregVoff(r reg.Reg, nvec int, dt adt.Type) (string, error) {
	if z.v071 {
		return "", errors.Wrap(asm.ErrUnsupported, "%s: add_greg_voff", z.isa)
	}

	vlen := z.tmp(t3)
	lines := []string{fmt.Sprintf("csrr %s, vlenb", vlen)}

	if nvec != 1 {
		n := z.tmp(t4)
		lines = append(lines,
			fmt.Sprintf("li %s, %d", n, nvec),
			fmt.Sprintf("mul %s, %s, %s", vlen, vlen, n),
		)
	}

	lines = append(lines, fmt.Sprintf("add %s, %s, %s", x(r), x(r), vlen))

	return z.Lines(lines...), nil
}

// JVZero branches to label when no lane of r is nonzero. vscratch receives
// the lane mask and g the index of its first set bit.
func (z *RVV) JVZero(r, fv, vscratch, g reg.Reg, label string, dt adt.Type) (string, error) {
	if err := z.check(r, dt); err != nil {
		return "", err
	}

	first := "vfirst.m"
	if z.v071 {
		first = "vmfirst.m"
	}

	return z.Lines(
		fmt.Sprintf("vmsne.vi %s, %s, 0", vr(vscratch), vr(r)),
		fmt.Sprintf("%s %s, %s", first, x(g), vr(vscratch)),
		fmt.Sprintf("bltz %s, %s", x(g), z.LabelRef(label)),
	), nil
}

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
	"fmt"

	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

var (
	sveInts = []adt.Triple{
		adt.Same(adt.SINT8),
		adt.Same(adt.SINT16),
		adt.Same(adt.SINT32),
		adt.Same(adt.SINT64),
	}

	sveFMATriples  = lo.Flatten([][]adt.Triple{splitFloat, sveInts, splitIntWidening})
	sveFMULTriples = lo.Flatten([][]adt.Triple{floatUniform, sveInts, splitIntWidening})
)

// sveCore is the scalable vector vocabulary shared by SVE and streaming SME.
type sveCore struct {
	Scalar

	fmul *asm.Op3
}

func (z *sveCore) init(isa string) {
	z.Scalar = Scalar{isa: isa, vec: "z"}

	z.fmul = &asm.Op3{
		ISA:      isa,
		Op:       asm.FMUL,
		Widening: asm.SplitInstructions,
		Triples:  sveFMULTriples,
		Allowed:  asm.IDX | asm.PART | asm.MASK,
		Encode:   z.encode(asm.FMUL),
		Out:      &z.Emitter,
	}
}

func (z *sveCore) FMUL() asm.Opd3 { return z.fmul }

func (z *sveCore) encode(k asm.Kind) asm.Encoder {
	return func(a, b, c reg.Reg, t adt.Triple, mods asm.Modifier, ex asm.Extra) (string, error) {
		for _, r := range []reg.Reg{a, b, c} {
			if err := checkClass(r, reg.Vec, numVregs); err != nil {
				return "", err
			}
		}

		pred, err := governing(mods, ex)
		if err != nil {
			return "", err
		}

		mn, err := mnemonic(k, t, mods, ex.Part)
		if err != nil {
			return "", err
		}

		bop := fmt.Sprintf("z%d.%s", b.Idx, elem(t.B.Size()))
		if mods.Has(asm.IDX) {
			if err := laneIndex(t, ex); err != nil {
				return "", err
			}
			bop = fmt.Sprintf("z%d.%s[%d]", b.Idx, elem(t.B.Size()), ex.Idx)
		}

		return fmt.Sprintf("%s z%d.%s,%s/m,z%d.%s,%s", mn, c.Idx, elem(t.C.Size()), pred, a.Idx, elem(t.A.Size()), bop), nil
	}
}

// governing picks the predicate of a merging instruction: the MASK register,
// else the WithPredicate override, else p0.
func governing(mods asm.Modifier, ex asm.Extra) (string, error) {
	p := reg.P(0)

	if ex.HasPred {
		p = ex.Pred
	}
	if mods.Has(asm.MASK) {
		p = ex.Mask
	}

	if err := checkClass(p, reg.Pred, numPregs); err != nil {
		return "", errors.Wrap(err, "predicate")
	}

	return fmt.Sprintf("p%d", p.Idx), nil
}

func (z *sveCore) NewTracker() *reg.Tracker {
	rt := z.Scalar.NewTracker()
	_ = rt.AddClass(reg.Vec, numVregs)
	_ = rt.AddClass(reg.Pred, numPregs)
	_ = rt.Withhold(reg.Pred, 0)
	return rt
}

func (z *sveCore) SimdSize() int { return 1 }

func (z *sveCore) IsVLA() bool { return true }

func (z *sveCore) FregsInVregs() bool { return true }

func (z *sveCore) IndexableElements(dt adt.Type) int { return indexable(dt) }

func (z *sveCore) MaxVregs() int { return numVregs }

func (z *sveCore) MinLoadVoff() int { return -8 }

func (z *sveCore) MaxLoadVoff() int { return 7 }

func (z *sveCore) MinLoadImmoff(dt adt.Type) int { return 0 }

func (z *sveCore) MaxLoadImmoff(dt adt.Type) int { return 252 }

func (z *sveCore) HasAddGregVoff() bool { return true }

func (z *sveCore) CSimdSizeFunction() string {
	return "static inline int simd_size(void) {\n" +
		"\tlong n;\n" +
		"\t__asm__ __volatile__(\"cntb %0\" : \"=r\"(n));\n" +
		"\treturn (int)n;\n" +
		"}\n"
}

func (z *sveCore) ptrue(dt adt.Type) (string, error) {
	size, err := adt.SizeOf(dt)
	if err != nil || size > 8 {
		return "", errors.Wrap(asm.ErrUnsupportedType, "ptrue %v", dt)
	}

	z.Scratch(reg.P(0))

	return fmt.Sprintf("ptrue p0.%s", elem(size)), nil
}

func (z *sveCore) IsaQuirks(rt *reg.Tracker, dt adt.Type) (string, error) {
	l, err := z.ptrue(dt)
	if err != nil {
		return "", err
	}
	return z.Line(l), nil
}

func (z *sveCore) zreg(v reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(v, reg.Vec, numVregs); err != nil {
		return "", err
	}
	if size, err := adt.SizeOf(dt); err != nil || size > 8 {
		return "", errors.Wrap(asm.ErrUnsupportedType, "%v lanes", dt)
	}
	return fmt.Sprintf("z%d.%s", v.Idx, elem(dt.Size())), nil
}

func (z *sveCore) ZeroVreg(v reg.Reg, dt adt.Type) (string, error) {
	zv, err := z.zreg(v, dt)
	if err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("dup %s, #0", zv)), nil
}

func (z *sveCore) MovVreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	return z.Line(fmt.Sprintf("mov z%d.d, z%d.d", dst.Idx, src.Idx)), nil
}

func (z *sveCore) LoadVector(base, v reg.Reg, dt adt.Type) (string, error) {
	return z.LoadVectorVoff(base, 0, v, dt)
}

func (z *sveCore) StoreVector(base, v reg.Reg, dt adt.Type) (string, error) {
	return z.StoreVectorVoff(base, 0, v, dt)
}

func (z *sveCore) LoadVectorVoff(base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error) {
	return z.contiguous("ld1", "p0/z", base, vidx, v, dt)
}

func (z *sveCore) StoreVectorVoff(base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error) {
	return z.contiguous("st1", "p0", base, vidx, v, dt)
}

func (z *sveCore) contiguous(op, pred string, base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error) {
	zv, err := z.zreg(v, dt)
	if err != nil {
		return "", err
	}
	if vidx < z.MinLoadVoff() || vidx > z.MaxLoadVoff() {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s vector offset %d", op, vidx)
	}

	addr := fmt.Sprintf("[%s]", x(base))
	if vidx != 0 {
		addr = fmt.Sprintf("[%s, #%d, mul vl]", x(base), vidx)
	}

	return z.Line(fmt.Sprintf("%s%s {%s}, %s, %s", op, ldst(dt.Size()), zv, pred, addr)), nil
}

func (z *sveCore) LoadVectorImmoff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	return z.immoff("ld1", "p0/z", base, off, v, dt)
}

func (z *sveCore) StoreVectorImmoff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	return z.immoff("st1", "p0", base, off, v, dt)
}

// immoff addresses base+off through the scratch register; contiguous SVE
// accesses only take offsets in multiples of the vector length.
func (z *sveCore) immoff(op, pred string, base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	zv, err := z.zreg(v, dt)
	if err != nil {
		return "", err
	}
	if off < z.MinLoadImmoff(dt) || off > z.MaxLoadImmoff(dt) {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s offset %d for %v", op, off, dt)
	}

	z.Scratch(reg.G(scratch))

	tmp := gname(scratch, adt.Invalid)

	return z.Lines(
		fmt.Sprintf("add %s, %s, #%d", tmp, x(base), off),
		fmt.Sprintf("%s%s {%s}, %s, [%s]", op, ldst(dt.Size()), zv, pred, tmp),
	), nil
}

func (z *sveCore) LoadVectorDist1(base, v reg.Reg, dt adt.Type) (string, error) {
	return z.LoadVectorDist1Boff(base, 0, v, dt)
}

func (z *sveCore) LoadVectorDist1Boff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	zv, err := z.zreg(v, dt)
	if err != nil {
		return "", err
	}
	if off < 0 || off > 63*dt.Size() || off%dt.Size() != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "dist1 offset %d for %v", off, dt)
	}

	addr := fmt.Sprintf("[%s]", x(base))
	if off != 0 {
		addr = fmt.Sprintf("[%s, #%d]", x(base), off)
	}

	return z.Line(fmt.Sprintf("ld1r%s {%s}, p0/z, %s", ldst(dt.Size()), zv, addr)), nil
}

func (z *sveCore) AddGregVoff(r reg.Reg, nvec int, dt adt.Type) (string, error) {
	if nvec < -32 || nvec > 31 {
		return "", errors.Wrap(asm.ErrOutOfRange, "addvl %d", nvec)
	}
	return z.Line(fmt.Sprintf("addvl %s, %s, #%d", x(r), x(r), nvec)), nil
}

// SVE is the scalable vector extension backend.
type SVE struct {
	sveCore

	fma *asm.Op3
}

// NewSVE returns the SVE backend.
func NewSVE() *SVE {
	z := &SVE{}
	z.init("sve")

	z.fma = &asm.Op3{
		ISA:      z.isa,
		Op:       asm.FMA,
		Widening: asm.SplitInstructions,
		Triples:  sveFMATriples,
		Allowed:  asm.NP | asm.IDX | asm.PART | asm.MASK,
		Encode:   z.encode(asm.FMA),
		Out:      &z.Emitter,
	}

	return z
}

func (z *SVE) FMA() asm.Opd3 { return z.fma }

func (z *SVE) Opd3s() []asm.Opd3 { return []asm.Opd3{z.fma, z.fmul} }

func (z *SVE) gatherOperands(idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, string, error) {
	zv, err := z.zreg(v, dt)
	if err != nil {
		return "", "", err
	}
	if err := checkClass(idx, reg.Vec, numVregs); err != nil {
		return "", "", err
	}

	var off string

	switch {
	case dt.Size() == 4 && it == adt.INT32:
		off = fmt.Sprintf("z%d.s, sxtw", idx.Idx)
	case dt.Size() == 8 && it == adt.INT64:
		off = fmt.Sprintf("z%d.d", idx.Idx)
	case dt.Size() == 8 && it == adt.INT32:
		off = fmt.Sprintf("z%d.d, sxtw", idx.Idx)
	default:
		return "", "", errors.Wrap(asm.ErrUnsupportedType, "%v gather with %v offsets", dt, it)
	}

	return zv, off, nil
}

// LoadVectorGather loads lanes from base plus the byte offsets in idx.
func (z *SVE) LoadVectorGather(base, idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	zv, off, err := z.gatherOperands(idx, v, dt, it)
	if err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("ld1%s {%s}, p0/z, [%s, %s]", ldst(dt.Size()), zv, x(base), off)), nil
}

// StoreVectorScatter stores lanes to base plus the byte offsets in idx.
func (z *SVE) StoreVectorScatter(base, idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	zv, off, err := z.gatherOperands(idx, v, dt, it)
	if err != nil {
		return "", err
	}
	return z.Line(fmt.Sprintf("st1%s {%s}, p0, [%s, %s]", ldst(dt.Size()), zv, x(base), off)), nil
}

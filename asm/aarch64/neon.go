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

const neonBytes = 16

var (
	neonFMATriples = lo.Flatten([][]adt.Triple{
		splitFloat,
		{adt.Same(adt.SINT8), adt.Same(adt.SINT16), adt.Same(adt.SINT32)},
		splitIntWidening,
	})

	neonFMULTriples = lo.Flatten([][]adt.Triple{
		floatUniform,
		{adt.Same(adt.SINT8), adt.Same(adt.SINT16), adt.Same(adt.SINT32)},
		splitIntWidening,
	})
)

// NEON is the 128-bit Advanced SIMD backend.
type NEON struct {
	Scalar

	fma, fmul *asm.Op3
}

// NewNEON returns the NEON backend.
func NewNEON() *NEON {
	n := &NEON{Scalar: Scalar{isa: "neon", vec: "v"}}

	n.fma = &asm.Op3{
		ISA:      n.isa,
		Op:       asm.FMA,
		Widening: asm.SplitInstructions,
		Triples:  neonFMATriples,
		Allowed:  asm.NP | asm.IDX | asm.PART,
		Encode:   n.encode(asm.FMA),
		Out:      &n.Emitter,
	}

	n.fmul = &asm.Op3{
		ISA:      n.isa,
		Op:       asm.FMUL,
		Widening: asm.SplitInstructions,
		Triples:  neonFMULTriples,
		Allowed:  asm.IDX | asm.PART,
		Encode:   n.encode(asm.FMUL),
		Out:      &n.Emitter,
	}

	return n
}

func (n *NEON) FMA() asm.Opd3  { return n.fma }
func (n *NEON) FMUL() asm.Opd3 { return n.fmul }

func (n *NEON) Opd3s() []asm.Opd3 { return []asm.Opd3{n.fma, n.fmul} }

func (n *NEON) encode(k asm.Kind) asm.Encoder {
	return func(a, b, c reg.Reg, t adt.Triple, mods asm.Modifier, ex asm.Extra) (string, error) {
		for _, r := range []reg.Reg{a, b, c} {
			if err := checkClass(r, reg.Vec, numVregs); err != nil {
				return "", err
			}
		}

		mn, err := mnemonic(k, t, mods, ex.Part)
		if err != nil {
			return "", err
		}

		bop := fmt.Sprintf("v%d.%s", b.Idx, shape(t.B))
		if mods.Has(asm.IDX) {
			if err := laneIndex(t, ex); err != nil {
				return "", err
			}
			bop = fmt.Sprintf("v%d.%s[%d]", b.Idx, elem(t.B.Size()), ex.Idx)
		}

		return fmt.Sprintf("%s v%d.%s,v%d.%s,%s", mn, c.Idx, shape(t.C), a.Idx, shape(t.A), bop), nil
	}
}

func (n *NEON) NewTracker() *reg.Tracker {
	rt := n.Scalar.NewTracker()
	_ = rt.AddClass(reg.Vec, numVregs)
	return rt
}

func (n *NEON) SimdSize() int { return neonBytes }

func (n *NEON) IsVLA() bool { return false }

func (n *NEON) FregsInVregs() bool { return true }

func (n *NEON) IndexableElements(dt adt.Type) int { return indexable(dt) }

func (n *NEON) MaxVregs() int { return numVregs }

func (n *NEON) MinLoadVoff() int { return 0 }

func (n *NEON) MaxLoadVoff() int { return 512 }

func (n *NEON) MinLoadImmoff(dt adt.Type) int { return 0 }

func (n *NEON) MaxLoadImmoff(dt adt.Type) int { return 4095 * 2 * dt.Size() }

func (n *NEON) HasAddGregVoff() bool { return true }

func (n *NEON) CSimdSizeFunction() string {
	return "static inline int simd_size(void) { return 16; }\n"
}

func (n *NEON) IsaQuirks(rt *reg.Tracker, dt adt.Type) (string, error) {
	return "", nil
}

func (n *NEON) ZeroVreg(v reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(v, reg.Vec, numVregs); err != nil {
		return "", err
	}
	return n.Line(fmt.Sprintf("movi v%d.16b, #0", v.Idx)), nil
}

func (n *NEON) MovVreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	return n.Line(fmt.Sprintf("mov v%d.16b, v%d.16b", dst.Idx, src.Idx)), nil
}

func (n *NEON) lanes(v reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(v, reg.Vec, numVregs); err != nil {
		return "", err
	}
	if _, err := adt.SizeOf(dt); err != nil || dt.Size() > 8 {
		return "", errors.Wrap(asm.ErrUnsupportedType, "%v lanes", dt)
	}
	return fmt.Sprintf("{v%d.%s}", v.Idx, shape(dt)), nil
}

func (n *NEON) LoadVector(base, v reg.Reg, dt adt.Type) (string, error) {
	l, err := n.lanes(v, dt)
	if err != nil {
		return "", err
	}
	return n.Line(fmt.Sprintf("ld1 %s, [%s]", l, x(base))), nil
}

func (n *NEON) StoreVector(base, v reg.Reg, dt adt.Type) (string, error) {
	l, err := n.lanes(v, dt)
	if err != nil {
		return "", err
	}
	return n.Line(fmt.Sprintf("st1 %s, [%s]", l, x(base))), nil
}

func (n *NEON) LoadVectorVoff(base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error) {
	return n.qoff("ldr", base, vidx, v)
}

func (n *NEON) StoreVectorVoff(base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error) {
	return n.qoff("str", base, vidx, v)
}

func (n *NEON) qoff(op string, base reg.Reg, vidx int, v reg.Reg) (string, error) {
	if vidx < n.MinLoadVoff() || vidx > n.MaxLoadVoff() {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s vector offset %d", op, vidx)
	}
	if err := checkClass(v, reg.Vec, numVregs); err != nil {
		return "", err
	}
	return n.Line(fmt.Sprintf("%s q%d, [%s, #%d]", op, v.Idx, x(base), vidx*neonBytes)), nil
}

func (n *NEON) LoadVectorImmoff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	return n.immoff("ldr", base, off, v, dt)
}

func (n *NEON) StoreVectorImmoff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	return n.immoff("str", base, off, v, dt)
}

// unscaled maps a scaled-offset load/store to its unscaled form.
var unscaled = map[string]string{"ldr": "ldur", "str": "stur"}

func (n *NEON) immoff(op string, base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	if off < n.MinLoadImmoff(dt) || off > n.MaxLoadImmoff(dt) {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s offset %d for %v", op, off, dt)
	}
	if err := checkClass(v, reg.Vec, numVregs); err != nil {
		return "", err
	}

	switch {
	case off%neonBytes == 0:
		return n.Line(fmt.Sprintf("%s q%d, [%s, #%d]", op, v.Idx, x(base), off)), nil
	case off < 256:
		return n.Line(fmt.Sprintf("%s q%d, [%s, #%d]", unscaled[op], v.Idx, x(base), off)), nil
	}

	return "", errors.Wrap(asm.ErrOutOfRange, "%s offset %d: not a multiple of 16", op, off)
}

func (n *NEON) LoadVectorDist1(base, v reg.Reg, dt adt.Type) (string, error) {
	l, err := n.lanes(v, dt)
	if err != nil {
		return "", err
	}
	return n.Line(fmt.Sprintf("ld1r %s, [%s]", l, x(base))), nil
}

func (n *NEON) LoadVectorDist1Boff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error) {
	l, err := n.lanes(v, dt)
	if err != nil {
		return "", err
	}
	if off < 0 || off >= 1<<12 {
		return "", errors.Wrap(asm.ErrOutOfRange, "dist1 offset %d", off)
	}

	n.Scratch(reg.G(scratch))

	tmp := gname(scratch, adt.Invalid)

	return n.Lines(
		fmt.Sprintf("add %s, %s, #%d", tmp, x(base), off),
		fmt.Sprintf("ld1r %s, [%s]", l, tmp),
	), nil
}

// LoadVectorDist1Inc broadcasts one element and post-increments base by its size.
func (n *NEON) LoadVectorDist1Inc(base, v reg.Reg, dt adt.Type) (string, error) {
	l, err := n.lanes(v, dt)
	if err != nil {
		return "", err
	}
	return n.Line(fmt.Sprintf("ld1r %s, [%s], #%d", l, x(base), dt.Size())), nil
}

func (n *NEON) AddGregVoff(r reg.Reg, nvec int, dt adt.Type) (string, error) {
	return n.AddGregImm(r, int64(nvec*neonBytes))
}

// JVZero branches to label when v is all-zero bits. f and g are clobbered.
func (n *NEON) JVZero(v, f, vscratch, g reg.Reg, label string, dt adt.Type) (string, error) {
	if err := checkClass(v, reg.Vec, numVregs); err != nil {
		return "", err
	}

	return n.Lines(
		fmt.Sprintf("umaxv s%d, v%d.4s", f.Idx, v.Idx),
		fmt.Sprintf("fmov %s, s%d", w(g), f.Idx),
		fmt.Sprintf("cbz %s, %s", w(g), n.LabelRef(label)),
	), nil
}

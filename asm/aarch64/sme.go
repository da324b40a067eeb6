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

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// numTregs is the number of 64-bit ZA tiles, the most any element size has.
const numTregs = 8

var smeMOPATriples = []adt.Triple{
	adt.Same(adt.FP64),
	adt.Same(adt.FP32),
	adt.Same(adt.FP16),
	adt.T3(adt.FP16, adt.FP16, adt.FP32),
	adt.T3(adt.BF16, adt.BF16, adt.FP32),
	adt.T3(adt.SINT8, adt.SINT8, adt.SINT32),
	adt.T3(adt.UINT8, adt.UINT8, adt.UINT32),
	adt.T3(adt.SINT8, adt.UINT8, adt.SINT32),
	adt.T3(adt.UINT8, adt.SINT8, adt.SINT32),
	adt.T3(adt.SINT16, adt.SINT16, adt.SINT64),
	adt.T3(adt.UINT16, adt.UINT16, adt.UINT64),
}

// SME is the scalable matrix extension backend. Vector code runs in
// streaming mode; FMA is the outer product accumulating into a ZA tile.
type SME struct {
	sveCore

	mopa *asm.Op3
}

// NewSME returns the SME backend.
func NewSME() *SME {
	s := &SME{}
	s.init("sme")

	s.mopa = &asm.Op3{
		ISA:       s.isa,
		Op:        asm.FMA,
		Widening:  asm.DotNeighbours,
		Triples:   smeMOPATriples,
		Allowed:   asm.NP | asm.MASK,
		MixedSign: true,
		Encode:    s.encodeMOPA,
		Out:       &s.Emitter,
	}

	return s
}

func (s *SME) FMA() asm.Opd3 { return s.mopa }

func (s *SME) Opd3s() []asm.Opd3 { return []asm.Opd3{s.mopa, s.fmul} }

func (s *SME) NewTracker() *reg.Tracker {
	rt := s.sveCore.NewTracker()
	_ = rt.AddClass(reg.Tile, numTregs)
	// w12 is the slice index of StoreTile.
	_ = rt.Withhold(reg.GP, 12)
	return rt
}

func mopaName(t adt.Triple, mods asm.Modifier) string {
	var fam string

	switch {
	case t.A == adt.BF16:
		fam = "bf"
	case t.A.IsFloat():
		fam = "f"
	case t.A.IsSigned() && t.B.IsSigned():
		fam = "s"
	case t.A.IsUnsigned() && t.B.IsUnsigned():
		fam = "u"
	case t.A.IsSigned():
		fam = "su"
	default:
		fam = "us"
	}

	if mods.Has(asm.NP) {
		return fam + "mops"
	}
	return fam + "mopa"
}

func (s *SME) encodeMOPA(a, b, c reg.Reg, t adt.Triple, mods asm.Modifier, ex asm.Extra) (string, error) {
	for _, r := range []reg.Reg{a, b} {
		if err := checkClass(r, reg.Vec, numVregs); err != nil {
			return "", err
		}
	}
	if err := checkClass(c, reg.Tile, s.MaxTregs(t.C)); err != nil {
		return "", err
	}

	pred, err := governing(mods, ex)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s za%d.%s,%s/m,%s/m,z%d.%s,z%d.%s",
		mopaName(t, mods), c.Idx, elem(t.C.Size()), pred, pred,
		a.Idx, elem(t.A.Size()), b.Idx, elem(t.B.Size())), nil
}

// MaxTregs is the number of ZA tiles of element type dt.
func (s *SME) MaxTregs(dt adt.Type) int {
	return min(dt.Size(), numTregs)
}

func (s *SME) IsaQuirks(rt *reg.Tracker, dt adt.Type) (string, error) {
	l, err := s.ptrue(dt)
	if err != nil {
		return "", err
	}
	return s.Lines("smstart", l), nil
}

// PostQuirks leaves streaming mode.
func (s *SME) PostQuirks() string {
	return s.Line("smstop")
}

func (s *SME) CSimdSizeFunction() string {
	return "static inline int simd_size(void) {\n" +
		"\tlong n;\n" +
		"\t__asm__ __volatile__(\"rdsvl %0, #1\" : \"=r\"(n));\n" +
		"\treturn (int)n;\n" +
		"}\n"
}

func (s *SME) ZeroTreg(t reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(t, reg.Tile, s.MaxTregs(dt)); err != nil {
		return "", err
	}
	return s.Line(fmt.Sprintf("zero {za%d.%s}", t.Idx, elem(dt.Size()))), nil
}

// StoreTile stores every horizontal slice of t to consecutive rows starting
// at base, stride bytes apart. base is advanced past the last row.
func (s *SME) StoreTile(base, stride, t reg.Reg, dt adt.Type) (string, error) {
	size, err := adt.SizeOf(dt)
	if err != nil || size > 8 {
		return "", errors.Wrap(asm.ErrUnsupportedType, "store_tile %v", dt)
	}
	if err := checkClass(t, reg.Tile, s.MaxTregs(dt)); err != nil {
		return "", err
	}
	if base == reg.G(12) || stride == reg.G(12) {
		return "", errors.Wrap(asm.ErrBadOperand, "store_tile: x12 is the slice index")
	}

	s.Scratch(reg.G(12))
	s.Scratch(reg.G(scratch))

	e := elem(size)

	return s.Lines(
		"mov w12, #0",
		"1:",
		fmt.Sprintf("st1%s {za%dh.%s[w12, 0]}, p0, [%s]", ldst(size), t.Idx, e, x(base)),
		fmt.Sprintf("add %s, %s, %s", x(base), x(base), x(stride)),
		"add w12, w12, #1",
		fmt.Sprintf("cnt%s x%d", ldst(size), scratch),
		fmt.Sprintf("cmp w12, w%d", scratch),
		"b.lt 1b",
	), nil
}

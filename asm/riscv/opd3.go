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

	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

var (
	rvvFloat = []adt.Triple{
		adt.Same(adt.FP64),
		adt.Same(adt.FP32),
		adt.Same(adt.FP16),
		adt.T3(adt.FP16, adt.FP16, adt.FP32),
		adt.T3(adt.FP32, adt.FP32, adt.FP64),
	}

	rvvInt = []adt.Triple{
		adt.Same(adt.SINT8),
		adt.Same(adt.SINT16),
		adt.Same(adt.SINT32),
		adt.Same(adt.SINT64),
	}

	rvvWideningInt = []adt.Triple{
		adt.T3(adt.SINT8, adt.SINT8, adt.SINT16),
		adt.T3(adt.SINT16, adt.SINT16, adt.SINT32),
		adt.T3(adt.SINT32, adt.SINT32, adt.SINT64),
		adt.T3(adt.UINT8, adt.UINT8, adt.UINT16),
		adt.T3(adt.UINT16, adt.UINT16, adt.UINT32),
		adt.T3(adt.UINT32, adt.UINT32, adt.UINT64),
	}

	rvvSignedUnsigned = []adt.Triple{
		adt.T3(adt.SINT8, adt.UINT8, adt.SINT16),
		adt.T3(adt.SINT16, adt.UINT16, adt.SINT32),
		adt.T3(adt.SINT32, adt.UINT32, adt.SINT64),
	}

	rvvUnsignedSigned = []adt.Triple{
		adt.T3(adt.UINT8, adt.SINT8, adt.SINT16),
		adt.T3(adt.UINT16, adt.SINT16, adt.SINT32),
		adt.T3(adt.UINT32, adt.SINT32, adt.SINT64),
	}

	// There is a vwmaccus but no vwmulus.
	rvvFMATriples  = lo.Flatten([][]adt.Triple{rvvFloat, rvvInt, rvvWideningInt, rvvSignedUnsigned, rvvUnsignedSigned})
	rvvFMULTriples = lo.Flatten([][]adt.Triple{rvvFloat, rvvInt, rvvWideningInt, rvvSignedUnsigned})
)

// WideningSuffix is "w" for a doubling accumulator and "" for an equal one.
func WideningSuffix(aSize, cSize int) (string, error) {
	switch {
	case cSize == aSize:
		return "", nil
	case cSize == 2*aSize:
		return "w", nil
	}
	return "", errors.Wrap(asm.ErrUnsupportedWidth, "%d to %d bytes", aSize, cSize)
}

func signSuffix(t adt.Triple) string {
	switch {
	case t.A.IsFloat():
		return ""
	case t.A.IsUnsigned() && t.B.IsUnsigned():
		return "u"
	case t.A.IsSigned() && t.B.IsUnsigned():
		return "su"
	case t.A.IsUnsigned() && t.B.IsSigned():
		return "us"
	}
	return ""
}

func rvvMnemonic(k asm.Kind, t adt.Triple, mods asm.Modifier) (string, error) {
	fam := "v"
	if t.A.IsFloat() {
		fam = "vf"
	}

	w, err := WideningSuffix(t.A.Size(), t.C.Size())
	if err != nil {
		return "", err
	}

	base := "mul"
	if k == asm.FMA {
		base = "macc"
		if mods.Has(asm.NP) {
			if w != "" && t.A.IsInt() {
				return "", errors.Wrap(asm.ErrUnsupportedModifier, "np: %v", t)
			}
			base = "nmsac"
		}
	}

	form := "vv"
	if mods.Has(asm.VF) {
		form = "vx"
		if t.A.IsFloat() {
			form = "vf"
		}
	}

	return fam + w + base + signSuffix(t) + "." + form, nil
}

func (z *RVV) encode(k asm.Kind) asm.Encoder {
	return func(a, b, c reg.Reg, t adt.Triple, mods asm.Modifier, ex asm.Extra) (string, error) {
		for _, r := range []reg.Reg{a, c} {
			if err := checkClass(r, reg.Vec, numVregs); err != nil {
				return "", err
			}
		}

		mn, err := rvvMnemonic(k, t, mods)
		if err != nil {
			return "", err
		}

		var bop string

		switch {
		case !mods.Has(asm.VF):
			err = checkClass(b, reg.Vec, numVregs)
			bop = vr(b)
		case t.B.IsFloat():
			err = checkClass(b, reg.FP, numFregs)
			bop = fr(b)
		default:
			err = checkClass(b, reg.GP, numGregs)
			bop = x(b)
		}
		if err != nil {
			return "", err
		}

		group := 1
		if t.Widens() {
			group = 2
			if c.Idx%2 != 0 {
				return "", errors.Wrap(asm.ErrBadOperand, "%v: widening destination must be even", c)
			}
		}

		text := fmt.Sprintf("%s %s,%s,%s", mn, vr(c), vr(a), bop)

		if mods.Has(asm.MASK) {
			if ex.Mask != reg.V(0) {
				return "", errors.Wrap(asm.ErrBadOperand, "mask %v: must be v0", ex.Mask)
			}
			if c.Idx < group {
				return "", errors.Wrap(asm.ErrBadOperand, "%v overlaps the mask", c)
			}
			text += ",v0.t"
		}

		return text, nil
	}
}

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

package asm

import (
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Kind is the arithmetic an Opd3 performs.
type Kind uint8

const (
	// FMA is C := A*B + C (C := C - A*B with NP).
	FMA Kind = iota
	// FMUL is C := A*B.
	FMUL
)

func (k Kind) String() string {
	switch k {
	case FMA:
		return "fma"
	case FMUL:
		return "fmul"
	default:
		return "kind(?)"
	}
}

// WideningMethod tells how a backend produces an accumulator wider than its
// multiplicands.
type WideningMethod uint8

const (
	// None: no widening, triples are uniform.
	None WideningMethod = iota
	// VecGroup: the destination is a group of vector registers (RVV).
	VecGroup
	// VecMulti: the destination is a multi-vector tuple.
	VecMulti
	// DotNeighbours: adjacent narrow lanes are dotted into one wide lane (SME).
	DotNeighbours
	// SplitInstructions: one instruction per slice of the narrow lanes,
	// selected by PART (NEON, SVE).
	SplitInstructions
)

var wideningNames = [...]string{
	None:              "none",
	VecGroup:          "vec_group",
	VecMulti:          "vec_multi",
	DotNeighbours:     "dot_neighbours",
	SplitInstructions: "split_instructions",
}

func (w WideningMethod) String() string {
	if int(w) >= len(wideningNames) {
		return "widening(?)"
	}
	return wideningNames[w]
}

// Opd3 is a three-data-operand operation.
type Opd3 interface {
	Name() string
	Kind() Kind
	WideningMethod() WideningMethod
	SupportedTriples() []adt.Triple

	// Invoke validates its arguments and returns the instruction text.
	Invoke(a, b, c reg.Reg, t adt.Triple, mods Modifier, opts ...Option) (string, error)
}

// Encoder formats one validated opd3 instruction, without the trailing newline.
// It runs the checks specific to one backend and operation.
type Encoder func(a, b, c reg.Reg, t adt.Triple, mods Modifier, x Extra) (string, error)

// Op3 is a table-driven Opd3. Every backend describes its FMA and FMUL with one.
type Op3 struct {
	ISA      string
	Op       Kind
	Widening WideningMethod
	Triples  []adt.Triple

	// Allowed is the set of modifiers the backend admits for this op.
	Allowed Modifier

	// MixedSign admits integer triples whose multiplicands differ in sign.
	MixedSign bool

	Encode Encoder

	// Out wraps the text. Raw lines are returned when nil.
	Out *Emitter
}

func (o *Op3) Name() string { return o.ISA + "." + o.Op.String() }

func (o *Op3) Kind() Kind { return o.Op }

func (o *Op3) WideningMethod() WideningMethod { return o.Widening }

func (o *Op3) SupportedTriples() []adt.Triple {
	return append([]adt.Triple(nil), o.Triples...)
}

// Invoke runs the universal checks in order, then the encoder.
func (o *Op3) Invoke(a, b, c reg.Reg, t adt.Triple, mods Modifier, opts ...Option) (string, error) {
	x := Collect(opts...)

	if !adt.Contains(o.Triples, t) {
		return "", errors.Wrap(ErrUnsupportedType, "%v: %v", o.Name(), t)
	}

	err := CheckTriple(t, o.MixedSign)
	if err != nil {
		return "", errors.Wrap(err, "%v", o.Name())
	}

	err = o.checkModifiers(t, mods, x)
	if err != nil {
		return "", errors.Wrap(err, "%v", o.Name())
	}

	text, err := o.Encode(a, b, c, t, mods, x)
	if err != nil {
		return "", errors.Wrap(err, "%v %v %v", o.Name(), t, mods)
	}

	if o.Out != nil {
		return o.Out.Line(text), nil
	}

	return text + "\n", nil
}

// CheckTriple runs the type checks every backend shares: equal multiplicand
// types (unless mixedSign admits an int sign mix), an accumulator at least as
// wide as the multiplicands, and one family across all three.
func CheckTriple(t adt.Triple, mixedSign bool) error {
	if t.A != t.B {
		sameWidthInts := t.A.IsInt() && t.B.IsInt() && t.A.Size() == t.B.Size()
		if !mixedSign || !sameWidthInts {
			return errors.Wrap(ErrTypeMismatch, "%v", t)
		}
	}

	if t.C.Size() < t.A.Size() {
		return errors.Wrap(ErrNarrowerAccumulator, "%v", t)
	}

	if t.C.IsFloat() != t.A.IsFloat() || t.B.IsFloat() != t.A.IsFloat() {
		return errors.Wrap(ErrMixedFamily, "%v", t)
	}

	return nil
}

func (o *Op3) checkModifiers(t adt.Triple, mods Modifier, x Extra) error {
	if bad := mods &^ o.Allowed; bad != 0 {
		return errors.Wrap(ErrUnsupportedModifier, "%v", bad)
	}

	if o.Op == FMUL && mods.Has(NP) {
		return errors.Wrap(ErrUnsupportedModifier, "np: no negated multiply")
	}

	if mods.Has(PART) && !t.Widens() {
		return errors.Wrap(ErrUnsupportedModifier, "part: %v does not widen", t)
	}

	if mods.Has(IDX) && !x.HasIdx {
		return errors.Wrap(ErrMissingParameter, "idx: no index")
	}

	if mods.Has(REGIDX) && !x.HasRegIdx {
		return errors.Wrap(ErrMissingParameter, "regidx: no index register")
	}

	if mods.Has(MASK) && !x.HasMask {
		return errors.Wrap(ErrMissingParameter, "mask: no mask register")
	}

	if t.Widens() && o.Widening == SplitInstructions && (!mods.Has(PART) || !x.HasPart) {
		return errors.Wrap(ErrMissingParameter, "part: %v widens", t)
	}

	if mods.Has(PART) && !x.HasPart {
		return errors.Wrap(ErrMissingParameter, "part: no part number")
	}

	return nil
}

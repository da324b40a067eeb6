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

// Package asm is the instruction-set abstraction of the inline-assembly emitter.
//
// A backend (a Generator) turns abstract operations on register handles into
// assembly text for one ISA. Each call returns one or more newline-terminated
// lines; the caller concatenates them, then asks for the operand block:
//
//	g := aarch64.NewNEON()
//	rt := g.NewTracker()
//	x, _ := rt.ReserveAny(reg.Vec)
//	...
//	s, err := g.FMA().Invoke(a, b, c, adt.Same(adt.FP32), asm.NoModifiers)
//
// Operations every backend can encode are methods of Generator and
// VectorGenerator. Operations only some backends have are capability
// interfaces (Gatherer, TileGenerator, ...) reached through the package-level
// functions of the same name, which fail with ErrUnsupported.
package asm

import (
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Generator is the scalar vocabulary shared by every backend.
type Generator interface {
	Name() string

	SetInline(on bool)
	Inline() bool

	// NewTracker returns a tracker with this backend's register classes,
	// platform registers withheld.
	NewTracker() *reg.Tracker
	ABI() *ABI

	// RegName prints r as an instruction operand for data type dt.
	RegName(r reg.Reg, dt adt.Type) string
	ClobberName(r reg.Reg) string
	ImplicitClobbers() []reg.Reg
	OperandBlock(outputs, inputs []Operand, rt *reg.Tracker) string
	DataBlock(name string, dt adt.Type, values ...any) (string, error)

	// Control flow.
	Label(name string) string
	Jump(label string) string
	JZero(r reg.Reg, label string) string
	JFZero(f, fscratch, gscratch reg.Reg, label string, dt adt.Type) (string, error)
	LoopBegin(r reg.Reg, label string) string
	LoopBeginNZ(r reg.Reg, label, skip string) string
	LoopEnd(r reg.Reg, label string) string

	ZeroGreg(r reg.Reg) string
	ZeroFreg(f reg.Reg, dt adt.Type) (string, error)

	MovGreg(dst, src reg.Reg) string
	MovFreg(dst, src reg.Reg, dt adt.Type) (string, error)
	MovGregImm(r reg.Reg, imm uint64) string
	MovParamToGreg(p, r reg.Reg) string
	MovParamToGregShift(p, r reg.Reg, shift int) (string, error)
	MovGregToParam(r, p reg.Reg) string

	AddGregImm(r reg.Reg, imm int64) (string, error)
	AddGregGreg(dst, a, b reg.Reg) string
	MulGregImm(r reg.Reg, imm int64) (string, error)
	ShiftGregLeft(r reg.Reg, n int) (string, error)
	ShiftGregRight(r reg.Reg, n int) (string, error)

	PrefetchL1Boff(base reg.Reg, off int) (string, error)
	LoadScalarImmoff(base reg.Reg, off int, f reg.Reg, dt adt.Type) (string, error)

	Call(symbol string) string
	Ret() string

	Framer

	MaxGregs() int
	MaxFregs() int
	MaxFloadImmoff(dt adt.Type) int
	MinPrefetchOffset() int
	MaxPrefetchOffset() int
}

// VectorGenerator adds the vector vocabulary.
type VectorGenerator interface {
	Generator

	ZeroVreg(v reg.Reg, dt adt.Type) (string, error)
	MovVreg(dst, src reg.Reg, dt adt.Type) (string, error)

	LoadVector(base, v reg.Reg, dt adt.Type) (string, error)
	LoadVectorVoff(base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error)
	LoadVectorImmoff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error)
	LoadVectorDist1(base, v reg.Reg, dt adt.Type) (string, error)
	LoadVectorDist1Boff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error)

	StoreVector(base, v reg.Reg, dt adt.Type) (string, error)
	StoreVectorVoff(base reg.Reg, vidx int, v reg.Reg, dt adt.Type) (string, error)
	StoreVectorImmoff(base reg.Reg, off int, v reg.Reg, dt adt.Type) (string, error)

	// AddGregVoff adds nvec vector lengths to r. It fails with
	// ErrUnsupported unless HasAddGregVoff.
	AddGregVoff(r reg.Reg, nvec int, dt adt.Type) (string, error)

	// IsaQuirks returns the one-shot preamble the block needs before any
	// vector instruction (predicate setup, vector length, streaming mode).
	IsaQuirks(rt *reg.Tracker, dt adt.Type) (string, error)

	FMA() Opd3
	FMUL() Opd3
	Opd3s() []Opd3

	// SimdSize is the vector width in bytes, or 1 when IsVLA.
	SimdSize() int
	IsVLA() bool
	FregsInVregs() bool
	IndexableElements(dt adt.Type) int
	MaxVregs() int
	MinLoadVoff() int
	MaxLoadVoff() int
	MinLoadImmoff(dt adt.Type) int
	MaxLoadImmoff(dt adt.Type) int
	HasAddGregVoff() bool

	// CSimdSizeFunction returns a C function definition reporting the
	// vector width in bytes at run time.
	CSimdSizeFunction() string
}

// Framer is the stack primitive set the calling convention drives.
type Framer interface {
	// AdjustStack moves the stack pointer by delta bytes; negative allocates.
	AdjustStack(delta int) string
	StoreStack(r reg.Reg, off int) (string, error)
	LoadStack(r reg.Reg, off int) (string, error)
}

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

// Package riscv emits RV64 assembly: the scalar base and the vector
// extension in its ratified 1.0 and draft 0.7.1 dialects.
package riscv

import (
	"fmt"

	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

const (
	// numGregs is the allocatable GP index space.
	numGregs = 22
	numFregs = 32
	numVregs = 32

	// Indices past the allocatable space name registers the emitter uses on
	// its own: t3..t6 for address and immediate arithmetic, ra for calls.
	t3 = 22
	t4 = 23
	ra = 26
)

var gregNames = []string{
	"t0", "t1", "t2", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6", "ra",
}

// ABI is the LP64D calling convention.
var ABI = &asm.ABI{
	Name:        "lp64d",
	PointerSize: 8,
	StackAlign:  8,
	Params: map[reg.Class][]int{
		reg.GP: asm.Span(4, 11),
		reg.FP: asm.Span(10, 17),
	},
	CallerSave: map[reg.Class][]int{
		reg.GP: append(asm.Span(0, 2), asm.Span(4, 11)...),
		reg.FP: lo.Flatten([][]int{asm.Span(0, 7), asm.Span(10, 17), asm.Span(28, 31)}),
	},
	CalleeSave: map[reg.Class][]int{
		reg.GP: append([]int{3}, asm.Span(12, 21)...),
		reg.FP: append(asm.Span(8, 9), asm.Span(18, 27)...),
	},
}

// GregName returns the ABI name of GP index i.
func GregName(i int) string {
	if i < 0 || i >= len(gregNames) {
		return fmt.Sprintf("greg%d", i)
	}
	return gregNames[i]
}

func x(r reg.Reg) string {
	if r.IsParam() {
		return "%[" + r.Sym + "]"
	}
	return GregName(r.Idx)
}

func fr(r reg.Reg) string { return fmt.Sprintf("f%d", r.Idx) }

func vr(r reg.Reg) string { return fmt.Sprintf("v%d", r.Idx) }

func checkClass(r reg.Reg, c reg.Class, max int) error {
	if r.Class != c {
		return errors.Wrap(asm.ErrBadOperand, "%v: want %v", r, c)
	}
	if r.Idx < 0 || r.Idx >= max {
		return errors.Wrap(asm.ErrOutOfRange, "%v", r)
	}
	return nil
}

func simm12(n int64) bool {
	return n >= -2048 && n <= 2047
}

// fsuffix is the scalar float instruction suffix of dt.
func fsuffix(dt adt.Type) (string, error) {
	switch dt {
	case adt.FP64:
		return "d", nil
	case adt.FP32:
		return "s", nil
	case adt.FP16:
		return "h", nil
	}
	return "", errors.Wrap(asm.ErrUnsupportedType, "scalar %v", dt)
}

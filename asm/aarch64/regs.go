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

// Package aarch64 emits AArch64 assembly: the scalar base and the NEON, SVE
// and SME vector extensions.
package aarch64

import (
	"fmt"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

const (
	numGregs = 32
	numFregs = 32
	numVregs = 32
	numPregs = 16

	// scratch is the intra-procedure-call register the emitter borrows for
	// immediates and address arithmetic.
	scratch = 17
)

// Registers never handed out by ReserveAny: ip0/ip1, the platform register,
// frame pointer, link register and sp/zr.
var withheldGregs = []int{16, 17, 18, 29, 30, 31}

// ABI is the AAPCS64 procedure call standard.
var ABI = &asm.ABI{
	Name:        "aapcs64",
	PointerSize: 8,
	StackAlign:  16,
	Params: map[reg.Class][]int{
		reg.GP: asm.Span(0, 7),
		reg.FP: asm.Span(0, 7),
	},
	CallerSave: map[reg.Class][]int{
		reg.GP: asm.Span(0, 7),
		reg.FP: append(asm.Span(0, 7), asm.Span(16, 31)...),
	},
	CalleeSave: map[reg.Class][]int{
		reg.GP: asm.Span(19, 28),
		reg.FP: asm.Span(8, 15),
	},
}

// elem returns the element letter of a lane of size bytes.
func elem(size int) string {
	switch size {
	case 1:
		return "b"
	case 2:
		return "h"
	case 4:
		return "s"
	case 8:
		return "d"
	case 16:
		return "q"
	}
	return "?"
}

// ldst returns the SVE contiguous load/store size suffix.
func ldst(size int) string {
	switch size {
	case 1:
		return "b"
	case 2:
		return "h"
	case 4:
		return "w"
	case 8:
		return "d"
	}
	return "?"
}

// gname prints a general-purpose register at data type dt: w for 32 bits and
// narrower, x otherwise.
func gname(i int, dt adt.Type) string {
	if i == 31 {
		return "sp"
	}
	if dt.Valid() && dt.Size() <= 4 {
		return fmt.Sprintf("w%d", i)
	}
	return fmt.Sprintf("x%d", i)
}

func x(r reg.Reg) string {
	if r.IsParam() {
		return "%[" + r.Sym + "]"
	}
	return gname(r.Idx, adt.Invalid)
}

func w(r reg.Reg) string {
	return gname(r.Idx, adt.SINT32)
}

func checkClass(r reg.Reg, c reg.Class, max int) error {
	if r.Class != c {
		return errors.Wrap(asm.ErrBadOperand, "%v: want %v", r, c)
	}
	if r.Idx < 0 || r.Idx >= max {
		return errors.Wrap(asm.ErrOutOfRange, "%v", r)
	}
	return nil
}

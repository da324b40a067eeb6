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

// Package x86 emits x86-64 assembly in AT&T syntax: the general-purpose base
// and the AVX-FMA (128 and 256 bit) and AVX-512 vector backends.
//
// Register tokens carry the doubled %% of GCC extended asm, so the output is
// meant to be pasted into an __asm__ statement.
package x86

import (
	"fmt"
	"math"
	"strings"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/reg"
)

const (
	numGregs = 16

	rax = 8
	rbx = 9
	rcx = 10
	rdx = 11
	rsi = 12
	rdi = 13
	rbp = 14
	rsp = 15
)

// gregNames is the GP index space: r8..r15 first, then the legacy registers.
var gregNames = [numGregs]string{
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
}

var withheldGregs = []int{rbp, rsp}

// ABI is the System V AMD64 calling convention.
var ABI = &asm.ABI{
	Name:        "sysv-amd64",
	PointerSize: 8,
	StackAlign:  8,
	Params: map[reg.Class][]int{
		reg.GP: {rdi, rsi, rdx, rcx, 0, 1},
		reg.FP: asm.Span(0, 7),
	},
	CallerSave: map[reg.Class][]int{
		reg.GP: {rax, rcx, rdx, rsi, rdi, 0, 1, 2, 3},
		reg.FP: asm.Span(0, 15),
	},
	CalleeSave: map[reg.Class][]int{
		reg.GP: {rbx, 4, 5, 6, 7},
	},
}

// GregName returns the 64-bit name of GP index i.
func GregName(i int) string {
	if i < 0 || i >= numGregs {
		return fmt.Sprintf("greg%d", i)
	}
	return gregNames[i]
}

// pct prefixes a machine register for extended asm. Memory operand
// references (anything holding a '[') are left alone.
func pct(name string) string {
	if strings.Contains(name, "[") {
		return name
	}
	return "%%" + name
}

func g(r reg.Reg) string {
	if r.IsParam() {
		return "%[" + r.Sym + "]"
	}
	return pct(GregName(r.Idx))
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

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

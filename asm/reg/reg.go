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

// Package reg holds register handles and the per-emission register tracker.
//
// A register handle carries only its class and machine index. The textual
// form (x3, w3, zmm3, a5, za0) is chosen by the backend that prints it, from
// the class, the index and the data type in play.
package reg

import "fmt"

// Class is a register file.
type Class uint8

const (
	// GP is the general-purpose (integer/pointer) register file.
	GP Class = iota
	// FP is the scalar floating-point register file.
	FP
	// Vec is the vector register file.
	Vec
	// Tile is the SME ZA tile file.
	Tile
	// Pred holds SVE predicates and AVX-512 opmask registers.
	Pred
	// Param is not a register file: a Param handle names a host-language
	// operand bound in the operand block and referenced as %[name].
	Param

	numClasses
)

var classNames = [numClasses]string{
	GP:    "greg",
	FP:    "freg",
	Vec:   "vreg",
	Tile:  "treg",
	Pred:  "preg",
	Param: "param",
}

func (c Class) String() string {
	if c >= numClasses {
		return fmt.Sprintf("class(%d)", uint8(c))
	}
	return classNames[c]
}

// Reg is a register handle.
type Reg struct {
	Class Class
	Idx   int
	// Sym is the operand name of a Param handle.
	Sym string
}

// G returns general-purpose register i.
func G(i int) Reg { return Reg{Class: GP, Idx: i} }

// F returns scalar float register i.
func F(i int) Reg { return Reg{Class: FP, Idx: i} }

// V returns vector register i.
func V(i int) Reg { return Reg{Class: Vec, Idx: i} }

// T returns tile register i.
func T(i int) Reg { return Reg{Class: Tile, Idx: i} }

// P returns predicate (mask) register i.
func P(i int) Reg { return Reg{Class: Pred, Idx: i} }

// Operand returns a handle for the host operand bound as [name].
func Operand(name string) Reg { return Reg{Class: Param, Sym: name} }

// IsParam reports whether r names a host operand rather than a machine register.
func (r Reg) IsParam() bool { return r.Class == Param }

func (r Reg) String() string {
	if r.IsParam() {
		return "%[" + r.Sym + "]"
	}
	return fmt.Sprintf("%v%d", r.Class, r.Idx)
}

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
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/hwyasm/asm/reg"
)

// Operand is a host-language memory operand bound in the operand block.
// Inside the asm body it is referenced as %[Name].
type Operand struct {
	Name string
	Expr string
}

// ClobberNamer prints a register as the host compiler expects it in a clobber list.
type ClobberNamer interface {
	ClobberName(r reg.Reg) string
}

// Clobbers returns the union of the registers the tracker saw clobbered and
// the implicit scratch registers, ordered by class then index, without
// duplicates.
func Clobbers(rt *reg.Tracker, implicit []reg.Reg) []reg.Reg {
	sets := make(map[reg.Class]*reg.Set)

	add := func(c reg.Class, i int) {
		s, ok := sets[c]
		if !ok {
			s = &reg.Set{}
			sets[c] = s
		}
		s.Add(i)
	}

	if rt != nil {
		for _, c := range rt.Classes() {
			for _, i := range rt.Clobbered(c) {
				add(c, i)
			}
		}
	}

	for _, r := range implicit {
		if !r.IsParam() {
			add(r.Class, r.Idx)
		}
	}

	var out []reg.Reg

	for c := reg.GP; c < reg.Param; c++ {
		s, ok := sets[c]
		if !ok {
			continue
		}

		for _, i := range s.Slice() {
			out = append(out, reg.Reg{Class: c, Idx: i})
		}
	}

	return out
}

// OperandBlock formats the three-line operand section of an extended asm
// statement: outputs, inputs and clobbers. The clobber list always ends with
// "memory".
func OperandBlock(n ClobberNamer, outputs, inputs []Operand, clobbers []reg.Reg) string {
	var b strings.Builder

	operands := func(constraint string, ops []Operand) {
		b.WriteString(":")

		for i, o := range ops {
			if i != 0 {
				b.WriteString(",")
			}

			b.WriteString(" [" + o.Name + "] \"" + constraint + "\" (" + o.Expr + ")")
		}

		b.WriteString("\n")
	}

	operands("=m", outputs)
	operands("m", inputs)

	names := lo.Uniq(lo.Map(clobbers, func(r reg.Reg, _ int) string {
		return n.ClobberName(r)
	}))
	names = append(names, "memory")

	b.WriteString(":")

	for i, name := range names {
		if i != 0 {
			b.WriteString(",")
		}

		b.WriteString(" \"" + name + "\"")
	}

	b.WriteString("\n")

	return b.String()
}

// Wrap builds a complete extended asm statement from a body of inline-mode
// lines and an operand block.
func Wrap(body, operands string) string {
	var b strings.Builder

	b.WriteString("__asm__ __volatile__ (\n")
	b.WriteString(body)
	b.WriteString(operands)
	b.WriteString(");\n")

	return b.String()
}

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

	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/data"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Emitter formats instruction lines for one emission. Backends embed it.
//
// In inline mode every line is wrapped as a C string literal, "<code>\n\t",
// ready to be spliced into an __asm__ statement, and labels take the %=
// suffix so the host compiler makes them unique per statement.
type Emitter struct {
	inline bool

	scratch map[reg.Class]reg.Set
}

func (e *Emitter) SetInline(on bool) { e.inline = on }

func (e *Emitter) Inline() bool { return e.inline }

// Line formats one instruction.
func (e *Emitter) Line(code string) string {
	if e.inline {
		return "\"" + code + "\\n\\t\"\n"
	}
	return code + "\n"
}

// Lines formats several instructions, one line each.
func (e *Emitter) Lines(code ...string) string {
	var b strings.Builder
	for _, c := range code {
		b.WriteString(e.Line(c))
	}
	return b.String()
}

// LabelRef returns the local label name as used by branches.
func (e *Emitter) LabelRef(name string) string {
	if e.inline {
		return "." + name + "%="
	}
	return "." + name
}

// LabelDef defines a local label.
func (e *Emitter) LabelDef(name string) string {
	return e.Line(e.LabelRef(name) + ":")
}

// Scratch records that the emitted code overwrites r behind the caller's back.
func (e *Emitter) Scratch(r reg.Reg) {
	if e.scratch == nil {
		e.scratch = make(map[reg.Class]reg.Set)
	}

	s := e.scratch[r.Class]
	s.Add(r.Idx)
	e.scratch[r.Class] = s
}

// ImplicitClobbers returns the scratch registers recorded so far, by class
// then index.
func (e *Emitter) ImplicitClobbers() []reg.Reg {
	var out []reg.Reg

	for c := reg.GP; c < reg.Param; c++ {
		s, ok := e.scratch[c]
		if !ok {
			continue
		}

		s.Range(func(i int) bool {
			out = append(out, reg.Reg{Class: c, Idx: i})
			return true
		})
	}

	return out
}

// DataBlock emits a read-only table of values labeled name.
func (e *Emitter) DataBlock(name string, dt adt.Type, values ...any) (string, error) {
	lines, err := data.Block(e.LabelRef(name), dt, values...)
	if err != nil {
		return "", err
	}

	return e.Lines(lines...), nil
}

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

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// RV64 is the RV64GC scalar backend. The vector backends embed it.
type RV64 struct {
	asm.Emitter

	isa string
}

// NewRV64 returns the scalar backend.
func NewRV64() *RV64 {
	return &RV64{isa: "riscv64"}
}

func (s *RV64) Name() string { return s.isa }

func (s *RV64) ABI() *asm.ABI { return ABI }

func (s *RV64) NewTracker() *reg.Tracker {
	rt := reg.NewTracker()
	_ = rt.AddClass(reg.GP, numGregs)
	_ = rt.AddClass(reg.FP, numFregs)
	return rt
}

func (s *RV64) MaxGregs() int { return numGregs }

func (s *RV64) MaxFregs() int { return numFregs }

func (s *RV64) RegName(r reg.Reg, dt adt.Type) string {
	switch r.Class {
	case reg.GP, reg.Param:
		return x(r)
	case reg.FP:
		return fr(r)
	case reg.Vec:
		return vr(r)
	}
	return r.String()
}

func (s *RV64) ClobberName(r reg.Reg) string {
	switch r.Class {
	case reg.GP:
		return GregName(r.Idx)
	case reg.FP:
		return fr(r)
	case reg.Vec:
		return vr(r)
	}
	return r.String()
}

func (s *RV64) OperandBlock(outputs, inputs []asm.Operand, rt *reg.Tracker) string {
	return asm.OperandBlock(s, outputs, inputs, asm.Clobbers(rt, s.ImplicitClobbers()))
}

// tmp borrows emitter scratch register i (t3 or t4).
func (s *RV64) tmp(i int) string {
	s.Scratch(reg.G(i))
	return GregName(i)
}

func (s *RV64) Label(name string) string { return s.LabelDef(name) }

func (s *RV64) Jump(label string) string {
	return s.Line("j " + s.LabelRef(label))
}

func (s *RV64) JZero(r reg.Reg, label string) string {
	return s.Line(fmt.Sprintf("beqz %s, %s", x(r), s.LabelRef(label)))
}

func (s *RV64) JFZero(fv, fscratch, gscratch reg.Reg, label string, dt adt.Type) (string, error) {
	suf, err := fsuffix(dt)
	if err != nil {
		return "", errors.Wrap(err, "jfzero")
	}

	mv := "fmv." + suf + ".x"
	if suf == "s" {
		mv = "fmv.w.x"
	}

	return s.Lines(
		fmt.Sprintf("%s %s, zero", mv, fr(fscratch)),
		fmt.Sprintf("feq.%s %s, %s, %s", suf, x(gscratch), fr(fv), fr(fscratch)),
		fmt.Sprintf("bnez %s, %s", x(gscratch), s.LabelRef(label)),
	), nil
}

func (s *RV64) LoopBegin(r reg.Reg, label string) string {
	return s.LabelDef(label)
}

func (s *RV64) LoopBeginNZ(r reg.Reg, label, skip string) string {
	return s.JZero(r, skip) + s.LabelDef(label)
}

func (s *RV64) LoopEnd(r reg.Reg, label string) string {
	return s.Lines(
		fmt.Sprintf("addi %s, %s, -1", x(r), x(r)),
		fmt.Sprintf("bnez %s, %s", x(r), s.LabelRef(label)),
	)
}

func (s *RV64) ZeroGreg(r reg.Reg) string {
	return s.Line(fmt.Sprintf("mv %s, zero", x(r)))
}

func (s *RV64) ZeroFreg(fv reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(fv, reg.FP, numFregs); err != nil {
		return "", err
	}
	return s.Line(fmt.Sprintf("fmv.d.x %s, zero", fr(fv))), nil
}

func (s *RV64) MovGreg(dst, src reg.Reg) string {
	return s.Line(fmt.Sprintf("mv %s, %s", x(dst), x(src)))
}

func (s *RV64) MovFreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	suf, err := fsuffix(dt)
	if err != nil {
		return "", errors.Wrap(err, "mov_freg")
	}
	return s.Line(fmt.Sprintf("fmv.%s %s, %s", suf, fr(dst), fr(src))), nil
}

func (s *RV64) MovGregImm(r reg.Reg, imm uint64) string {
	return s.Line(fmt.Sprintf("li %s, %d", x(r), int64(imm)))
}

func (s *RV64) MovParamToGreg(p, r reg.Reg) string {
	return s.Line(fmt.Sprintf("ld %s, %s", x(r), x(p)))
}

func (s *RV64) MovParamToGregShift(p, r reg.Reg, shift int) (string, error) {
	sh, err := s.ShiftGregLeft(r, shift)
	if err != nil {
		return "", err
	}
	return s.MovParamToGreg(p, r) + sh, nil
}

func (s *RV64) MovGregToParam(r, p reg.Reg) string {
	return s.Line(fmt.Sprintf("sd %s, %s", x(r), x(p)))
}

func (s *RV64) AddGregImm(r reg.Reg, imm int64) (string, error) {
	return s.Lines(s.addImm(x(r), x(r), imm)...), nil
}

func (s *RV64) addImm(dst, src string, imm int64) []string {
	if simm12(imm) {
		return []string{fmt.Sprintf("addi %s, %s, %d", dst, src, imm)}
	}

	t := s.tmp(t3)

	return []string{
		fmt.Sprintf("li %s, %d", t, imm),
		fmt.Sprintf("add %s, %s, %s", dst, src, t),
	}
}

func (s *RV64) AddGregGreg(dst, a, b reg.Reg) string {
	return s.Line(fmt.Sprintf("add %s, %s, %s", x(dst), x(a), x(b)))
}

func (s *RV64) MulGregImm(r reg.Reg, imm int64) (string, error) {
	t := s.tmp(t3)

	return s.Lines(
		fmt.Sprintf("li %s, %d", t, imm),
		fmt.Sprintf("mul %s, %s, %s", x(r), x(r), t),
	), nil
}

func (s *RV64) ShiftGregLeft(r reg.Reg, n int) (string, error) {
	return s.shift("slli", r, n)
}

func (s *RV64) ShiftGregRight(r reg.Reg, n int) (string, error) {
	return s.shift("srli", r, n)
}

func (s *RV64) shift(op string, r reg.Reg, n int) (string, error) {
	if n < 0 || n > 63 {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s by %d", op, n)
	}
	return s.Line(fmt.Sprintf("%s %s, %s, %d", op, x(r), x(r), n)), nil
}

func (s *RV64) MinPrefetchOffset() int { return -2048 }

func (s *RV64) MaxPrefetchOffset() int { return 2016 }

// PrefetchL1Boff uses the Zicbop hint, whose offset is a multiple of 32.
func (s *RV64) PrefetchL1Boff(base reg.Reg, off int) (string, error) {
	if off < s.MinPrefetchOffset() || off > s.MaxPrefetchOffset() || off%32 != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "prefetch offset %d", off)
	}
	return s.Line(fmt.Sprintf("prefetch.r %d(%s)", off, x(base))), nil
}

func (s *RV64) MaxFloadImmoff(dt adt.Type) int { return 4095 }

func (s *RV64) LoadScalarImmoff(base reg.Reg, off int, fv reg.Reg, dt adt.Type) (string, error) {
	suf, err := fsuffix(dt)
	if err != nil {
		return "", err
	}
	if suf == "s" {
		suf = "w"
	}
	if off < 0 || off > s.MaxFloadImmoff(dt) {
		return "", errors.Wrap(asm.ErrOutOfRange, "load_scalar_immoff %d", off)
	}

	if simm12(int64(off)) {
		return s.Line(fmt.Sprintf("fl%s %s, %d(%s)", suf, fr(fv), off, x(base))), nil
	}

	t := s.tmp(t3)

	return s.Lines(
		fmt.Sprintf("li %s, %d", t, off),
		fmt.Sprintf("add %s, %s, %s", t, t, x(base)),
		fmt.Sprintf("fl%s %s, 0(%s)", suf, fr(fv), t),
	), nil
}

func (s *RV64) Call(symbol string) string {
	s.Scratch(reg.G(ra))
	return s.Line("call " + symbol)
}

func (s *RV64) Ret() string { return s.Line("ret") }

func (s *RV64) AdjustStack(delta int) string {
	if delta == 0 {
		return ""
	}
	return s.Lines(s.addImm("sp", "sp", int64(delta))...)
}

func (s *RV64) StoreStack(r reg.Reg, off int) (string, error) {
	return s.stack("s", r, off)
}

func (s *RV64) LoadStack(r reg.Reg, off int) (string, error) {
	return s.stack("l", r, off)
}

func (s *RV64) stack(dir string, r reg.Reg, off int) (string, error) {
	if off < 0 || !simm12(int64(off)) {
		return "", errors.Wrap(asm.ErrOutOfRange, "stack slot %d", off)
	}

	switch r.Class {
	case reg.GP:
		return s.Line(fmt.Sprintf("%sd %s, %d(sp)", dir, x(r), off)), nil
	case reg.FP:
		return s.Line(fmt.Sprintf("f%sd %s, %d(sp)", dir, fr(r), off)), nil
	}

	return "", errors.Wrap(asm.ErrBadOperand, "%v to stack", r)
}

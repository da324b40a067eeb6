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

package aarch64

import (
	"fmt"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Scalar is the AArch64 base: general-purpose and scalar float registers only.
// The vector backends embed it.
type Scalar struct {
	asm.Emitter

	isa string
	// vec is the vector register letter: v for NEON, z for SVE and SME.
	vec string
}

// NewScalar returns the AArch64 scalar backend.
func NewScalar() *Scalar {
	return &Scalar{isa: "aarch64", vec: "v"}
}

func (s *Scalar) Name() string { return s.isa }

func (s *Scalar) ABI() *asm.ABI { return ABI }

func (s *Scalar) NewTracker() *reg.Tracker {
	rt := reg.NewTracker()
	_ = rt.AddClass(reg.GP, numGregs)
	_ = rt.AddClass(reg.FP, numFregs)
	_ = rt.Withhold(reg.GP, withheldGregs...)
	return rt
}

func (s *Scalar) MaxGregs() int { return numGregs }

func (s *Scalar) MaxFregs() int { return numFregs }

func (s *Scalar) RegName(r reg.Reg, dt adt.Type) string {
	switch r.Class {
	case reg.GP:
		return gname(r.Idx, dt)
	case reg.FP:
		size := 8
		if dt.Valid() {
			size = dt.Size()
		}
		return elem(size) + fmt.Sprint(r.Idx)
	case reg.Vec:
		return fmt.Sprintf("%s%d", s.vec, r.Idx)
	case reg.Pred:
		return fmt.Sprintf("p%d", r.Idx)
	case reg.Tile:
		return fmt.Sprintf("za%d", r.Idx)
	case reg.Param:
		return "%[" + r.Sym + "]"
	}
	return r.String()
}

func (s *Scalar) ClobberName(r reg.Reg) string {
	switch r.Class {
	case reg.GP:
		return fmt.Sprintf("x%d", r.Idx)
	case reg.FP:
		return fmt.Sprintf("v%d", r.Idx)
	case reg.Vec:
		return fmt.Sprintf("%s%d", s.vec, r.Idx)
	case reg.Pred:
		return fmt.Sprintf("p%d", r.Idx)
	case reg.Tile:
		return "za"
	}
	return r.String()
}

func (s *Scalar) OperandBlock(outputs, inputs []asm.Operand, rt *reg.Tracker) string {
	return asm.OperandBlock(s, outputs, inputs, asm.Clobbers(rt, s.ImplicitClobbers()))
}

func (s *Scalar) Label(name string) string { return s.LabelDef(name) }

func (s *Scalar) Jump(label string) string {
	return s.Line("b " + s.LabelRef(label))
}

func (s *Scalar) JZero(r reg.Reg, label string) string {
	return s.Line(fmt.Sprintf("cbz %s, %s", x(r), s.LabelRef(label)))
}

func (s *Scalar) JFZero(f, fscratch, gscratch reg.Reg, label string, dt adt.Type) (string, error) {
	if err := fpType(dt); err != nil {
		return "", errors.Wrap(err, "jfzero")
	}

	return s.Lines(
		fmt.Sprintf("fcmp %s, #0.0", s.RegName(f, dt)),
		"b.eq "+s.LabelRef(label),
	), nil
}

func (s *Scalar) LoopBegin(r reg.Reg, label string) string {
	return s.LabelDef(label)
}

func (s *Scalar) LoopBeginNZ(r reg.Reg, label, skip string) string {
	return s.JZero(r, skip) + s.LabelDef(label)
}

func (s *Scalar) LoopEnd(r reg.Reg, label string) string {
	return s.Lines(
		fmt.Sprintf("subs %s, %s, #1", x(r), x(r)),
		"b.ne "+s.LabelRef(label),
	)
}

func (s *Scalar) ZeroGreg(r reg.Reg) string {
	return s.Line(fmt.Sprintf("mov %s, xzr", x(r)))
}

func (s *Scalar) ZeroFreg(f reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(f, reg.FP, numFregs); err != nil {
		return "", err
	}
	return s.Line(fmt.Sprintf("movi d%d, #0", f.Idx)), nil
}

func (s *Scalar) MovGreg(dst, src reg.Reg) string {
	return s.Line(fmt.Sprintf("mov %s, %s", x(dst), x(src)))
}

func (s *Scalar) MovFreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	if err := fpType(dt); err != nil {
		return "", errors.Wrap(err, "mov_freg")
	}
	return s.Line(fmt.Sprintf("fmov %s, %s", s.RegName(dst, dt), s.RegName(src, dt))), nil
}

func (s *Scalar) MovGregImm(r reg.Reg, imm uint64) string {
	return s.Lines(movImm(x(r), imm)...)
}

func (s *Scalar) MovParamToGreg(p, r reg.Reg) string {
	return s.Line(fmt.Sprintf("ldr %s, %s", x(r), x(p)))
}

func (s *Scalar) MovParamToGregShift(p, r reg.Reg, shift int) (string, error) {
	sh, err := s.ShiftGregLeft(r, shift)
	if err != nil {
		return "", err
	}
	return s.MovParamToGreg(p, r) + sh, nil
}

func (s *Scalar) MovGregToParam(r, p reg.Reg) string {
	return s.Line(fmt.Sprintf("str %s, %s", x(r), x(p)))
}

func (s *Scalar) AddGregImm(r reg.Reg, imm int64) (string, error) {
	return s.Lines(s.addImm(x(r), x(r), imm)...), nil
}

// addImm returns dst = src + imm, borrowing the scratch register for
// immediates that do not fit a (shifted) 12-bit field.
func (s *Scalar) addImm(dst, src string, imm int64) []string {
	op, n := "add", imm
	if imm < 0 {
		op, n = "sub", -imm
	}

	switch {
	case n < 1<<12:
		return []string{fmt.Sprintf("%s %s, %s, #%d", op, dst, src, n)}
	case n&(1<<12-1) == 0 && n < 1<<24:
		return []string{fmt.Sprintf("%s %s, %s, #%d, lsl #12", op, dst, src, n>>12)}
	}

	s.Scratch(reg.G(scratch))

	out := movImm(gname(scratch, adt.Invalid), uint64(n))
	return append(out, fmt.Sprintf("%s %s, %s, %s", op, dst, src, gname(scratch, adt.Invalid)))
}

func (s *Scalar) AddGregGreg(dst, a, b reg.Reg) string {
	return s.Line(fmt.Sprintf("add %s, %s, %s", x(dst), x(a), x(b)))
}

func (s *Scalar) MulGregImm(r reg.Reg, imm int64) (string, error) {
	s.Scratch(reg.G(scratch))

	tmp := gname(scratch, adt.Invalid)
	lines := movImm(tmp, uint64(imm))
	lines = append(lines, fmt.Sprintf("mul %s, %s, %s", x(r), x(r), tmp))

	return s.Lines(lines...), nil
}

func (s *Scalar) ShiftGregLeft(r reg.Reg, n int) (string, error) {
	return s.shift("lsl", r, n)
}

func (s *Scalar) ShiftGregRight(r reg.Reg, n int) (string, error) {
	return s.shift("lsr", r, n)
}

func (s *Scalar) shift(op string, r reg.Reg, n int) (string, error) {
	if n < 0 || n > 63 {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s by %d", op, n)
	}
	return s.Line(fmt.Sprintf("%s %s, %s, #%d", op, x(r), x(r), n)), nil
}

func (s *Scalar) MinPrefetchOffset() int { return -256 }

func (s *Scalar) MaxPrefetchOffset() int { return 32760 }

func (s *Scalar) PrefetchL1Boff(base reg.Reg, off int) (string, error) {
	switch {
	case off < s.MinPrefetchOffset() || off > s.MaxPrefetchOffset():
		return "", errors.Wrap(asm.ErrOutOfRange, "prefetch offset %d", off)
	case off >= 0 && off%8 == 0:
		return s.Line(fmt.Sprintf("prfm pldl1keep, [%s, #%d]", x(base), off)), nil
	case off < 256:
		return s.Line(fmt.Sprintf("prfum pldl1keep, [%s, #%d]", x(base), off)), nil
	}
	return "", errors.Wrap(asm.ErrOutOfRange, "prefetch offset %d: unaligned", off)
}

func (s *Scalar) MaxFloadImmoff(dt adt.Type) int { return 4095 * dt.Size() }

func (s *Scalar) LoadScalarImmoff(base reg.Reg, off int, f reg.Reg, dt adt.Type) (string, error) {
	size, err := adt.SizeOf(dt)
	if err != nil {
		return "", err
	}
	if off < 0 || off > s.MaxFloadImmoff(dt) || off%size != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "load_scalar_immoff %d for %v", off, dt)
	}
	return s.Line(fmt.Sprintf("ldr %s, [%s, #%d]", s.RegName(f, dt), x(base), off)), nil
}

func (s *Scalar) Call(symbol string) string {
	s.Scratch(reg.G(30))
	return s.Line("bl " + symbol)
}

func (s *Scalar) Ret() string { return s.Line("ret") }

func (s *Scalar) AdjustStack(delta int) string {
	if delta == 0 {
		return ""
	}
	return s.Lines(s.addImm("sp", "sp", int64(delta))...)
}

func (s *Scalar) StoreStack(r reg.Reg, off int) (string, error) {
	return s.stack("str", r, off)
}

func (s *Scalar) LoadStack(r reg.Reg, off int) (string, error) {
	return s.stack("ldr", r, off)
}

func (s *Scalar) stack(op string, r reg.Reg, off int) (string, error) {
	if off < 0 || off > 4095*8 || off%8 != 0 {
		return "", errors.Wrap(asm.ErrOutOfRange, "stack slot %d", off)
	}

	switch r.Class {
	case reg.GP:
		return s.Line(fmt.Sprintf("%s x%d, [sp, #%d]", op, r.Idx, off)), nil
	case reg.FP:
		return s.Line(fmt.Sprintf("%s d%d, [sp, #%d]", op, r.Idx, off)), nil
	}

	return "", errors.Wrap(asm.ErrBadOperand, "%s %v to stack", op, r)
}

// movImm materializes imm in dst with movz and one movk per further nonzero
// 16-bit chunk.
func movImm(dst string, imm uint64) []string {
	lines := []string{fmt.Sprintf("movz %s, #%d", dst, imm&0xffff)}

	for sh := 16; sh < 64; sh += 16 {
		if c := imm >> sh & 0xffff; c != 0 {
			lines = append(lines, fmt.Sprintf("movk %s, #%d, lsl #%d", dst, c, sh))
		}
	}

	return lines
}

func fpType(dt adt.Type) error {
	switch dt {
	case adt.FP64, adt.FP32, adt.FP16:
		return nil
	}
	return errors.Wrap(asm.ErrUnsupportedType, "%v", dt)
}

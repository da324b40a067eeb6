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

package x86

import (
	"fmt"
	"math"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Base is the x86-64 general-purpose layer. Scalar floats live in the low
// lane of the xmm registers.
type Base struct {
	asm.Emitter

	isa    string
	nfregs int
}

// NewBase returns the x86-64 scalar backend.
func NewBase() *Base {
	return &Base{isa: "x86_64", nfregs: 16}
}

func (b *Base) Name() string { return b.isa }

func (b *Base) ABI() *asm.ABI { return ABI }

func (b *Base) NewTracker() *reg.Tracker {
	rt := reg.NewTracker()
	_ = rt.AddClass(reg.GP, numGregs)
	_ = rt.AddClass(reg.FP, b.nfregs)
	_ = rt.Withhold(reg.GP, withheldGregs...)
	return rt
}

func (b *Base) MaxGregs() int { return numGregs }

func (b *Base) MaxFregs() int { return b.nfregs }

func (b *Base) RegName(r reg.Reg, dt adt.Type) string {
	switch r.Class {
	case reg.GP:
		return g(r)
	case reg.FP:
		return pct(fmt.Sprintf("xmm%d", r.Idx))
	case reg.Pred:
		return pct(fmt.Sprintf("k%d", r.Idx))
	case reg.Param:
		return "%[" + r.Sym + "]"
	}
	return r.String()
}

func (b *Base) ClobberName(r reg.Reg) string {
	switch r.Class {
	case reg.GP:
		return GregName(r.Idx)
	case reg.FP, reg.Vec:
		return fmt.Sprintf("xmm%d", r.Idx)
	case reg.Pred:
		return fmt.Sprintf("k%d", r.Idx)
	}
	return r.String()
}

func (b *Base) OperandBlock(outputs, inputs []asm.Operand, rt *reg.Tracker) string {
	return asm.OperandBlock(b, outputs, inputs, asm.Clobbers(rt, b.ImplicitClobbers()))
}

func (b *Base) Label(name string) string { return b.LabelDef(name) }

func (b *Base) Jump(label string) string {
	return b.Line("jmp " + b.LabelRef(label))
}

func (b *Base) JZero(r reg.Reg, label string) string {
	return b.Lines(
		fmt.Sprintf("test %s,%s", g(r), g(r)),
		"jz "+b.LabelRef(label),
	)
}

func (b *Base) JFZero(f, fscratch, gscratch reg.Reg, label string, dt adt.Type) (string, error) {
	suf, err := scalarSuffix(dt)
	if err != nil {
		return "", errors.Wrap(err, "jfzero")
	}

	z := b.RegName(fscratch, dt)

	return b.Lines(
		fmt.Sprintf("vxorps %s,%s,%s", z, z, z),
		fmt.Sprintf("vucomi%s %s,%s", suf, z, b.RegName(f, dt)),
		"je "+b.LabelRef(label),
	), nil
}

func (b *Base) LoopBegin(r reg.Reg, label string) string {
	return b.LabelDef(label)
}

func (b *Base) LoopBeginNZ(r reg.Reg, label, skip string) string {
	return b.JZero(r, skip) + b.LabelDef(label)
}

func (b *Base) LoopEnd(r reg.Reg, label string) string {
	return b.Lines(
		"dec "+g(r),
		"jnz "+b.LabelRef(label),
	)
}

func (b *Base) ZeroGreg(r reg.Reg) string {
	return b.Line(fmt.Sprintf("xor %s,%s", g(r), g(r)))
}

func (b *Base) ZeroFreg(f reg.Reg, dt adt.Type) (string, error) {
	if err := checkClass(f, reg.FP, b.nfregs); err != nil {
		return "", err
	}
	x := b.RegName(f, dt)
	return b.Line(fmt.Sprintf("vxorps %s,%s,%s", x, x, x)), nil
}

func (b *Base) MovGreg(dst, src reg.Reg) string {
	return b.Line(fmt.Sprintf("mov %s,%s", g(src), g(dst)))
}

func (b *Base) MovFreg(dst, src reg.Reg, dt adt.Type) (string, error) {
	if _, err := scalarSuffix(dt); err != nil {
		return "", errors.Wrap(err, "mov_freg")
	}
	return b.Line(fmt.Sprintf("vmovaps %s,%s", b.RegName(src, dt), b.RegName(dst, dt))), nil
}

func (b *Base) MovGregImm(r reg.Reg, imm uint64) string {
	if imm <= math.MaxUint32 {
		return b.Line(fmt.Sprintf("mov $%d,%s", imm, g(r)))
	}
	return b.Line(fmt.Sprintf("movabs $%d,%s", imm, g(r)))
}

func (b *Base) MovParamToGreg(p, r reg.Reg) string {
	return b.Line(fmt.Sprintf("mov %s,%s", g(p), g(r)))
}

func (b *Base) MovParamToGregShift(p, r reg.Reg, shift int) (string, error) {
	sh, err := b.ShiftGregLeft(r, shift)
	if err != nil {
		return "", err
	}
	return b.MovParamToGreg(p, r) + sh, nil
}

func (b *Base) MovGregToParam(r, p reg.Reg) string {
	return b.Line(fmt.Sprintf("mov %s,%s", g(r), g(p)))
}

func (b *Base) AddGregImm(r reg.Reg, imm int64) (string, error) {
	if !fitsInt32(imm) {
		return "", errors.Wrap(asm.ErrOutOfRange, "add immediate %d", imm)
	}
	// -MinInt32 has no imm32 encoding.
	if imm < 0 && imm != math.MinInt32 {
		return b.Line(fmt.Sprintf("sub $%d,%s", -imm, g(r))), nil
	}
	return b.Line(fmt.Sprintf("add $%d,%s", imm, g(r))), nil
}

func (b *Base) AddGregGreg(dst, x, y reg.Reg) string {
	return b.Line(fmt.Sprintf("lea (%s,%s),%s", g(x), g(y), g(dst)))
}

func (b *Base) MulGregImm(r reg.Reg, imm int64) (string, error) {
	if !fitsInt32(imm) {
		return "", errors.Wrap(asm.ErrOutOfRange, "multiply immediate %d", imm)
	}
	return b.Line(fmt.Sprintf("imul $%d,%s,%s", imm, g(r), g(r))), nil
}

func (b *Base) ShiftGregLeft(r reg.Reg, n int) (string, error) {
	return b.shift("shl", r, n)
}

func (b *Base) ShiftGregRight(r reg.Reg, n int) (string, error) {
	return b.shift("shr", r, n)
}

func (b *Base) shift(op string, r reg.Reg, n int) (string, error) {
	if n < 0 || n > 63 {
		return "", errors.Wrap(asm.ErrOutOfRange, "%s by %d", op, n)
	}
	return b.Line(fmt.Sprintf("%s $%d,%s", op, n, g(r))), nil
}

func (b *Base) MinPrefetchOffset() int { return math.MinInt32 }

func (b *Base) MaxPrefetchOffset() int { return math.MaxInt32 }

func (b *Base) PrefetchL1Boff(base reg.Reg, off int) (string, error) {
	if off < b.MinPrefetchOffset() || off > b.MaxPrefetchOffset() {
		return "", errors.Wrap(asm.ErrOutOfRange, "prefetch offset %d", off)
	}
	return b.Line(fmt.Sprintf("prefetcht0 %s", mem(base, off))), nil
}

func (b *Base) MaxFloadImmoff(dt adt.Type) int { return math.MaxInt32 }

func (b *Base) LoadScalarImmoff(base reg.Reg, off int, f reg.Reg, dt adt.Type) (string, error) {
	suf, err := scalarSuffix(dt)
	if err != nil {
		return "", err
	}
	if off < 0 || off > b.MaxFloadImmoff(dt) {
		return "", errors.Wrap(asm.ErrOutOfRange, "load_scalar_immoff %d", off)
	}
	return b.Line(fmt.Sprintf("vmov%s %s,%s", suf, mem(base, off), b.RegName(f, dt))), nil
}

func (b *Base) Call(symbol string) string { return b.Line("call " + symbol) }

func (b *Base) Ret() string { return b.Line("ret") }

func (b *Base) AdjustStack(delta int) string {
	switch {
	case delta < 0:
		return b.Line(fmt.Sprintf("sub $%d,%s", -delta, pct("rsp")))
	case delta > 0:
		return b.Line(fmt.Sprintf("add $%d,%s", delta, pct("rsp")))
	}
	return ""
}

func (b *Base) StoreStack(r reg.Reg, off int) (string, error) {
	switch r.Class {
	case reg.GP:
		return b.Line(fmt.Sprintf("mov %s,%s", g(r), stack(off))), nil
	case reg.FP:
		return b.Line(fmt.Sprintf("vmovsd %s,%s", b.RegName(r, adt.FP64), stack(off))), nil
	}
	return "", errors.Wrap(asm.ErrBadOperand, "store %v to stack", r)
}

func (b *Base) LoadStack(r reg.Reg, off int) (string, error) {
	switch r.Class {
	case reg.GP:
		return b.Line(fmt.Sprintf("mov %s,%s", stack(off), g(r))), nil
	case reg.FP:
		return b.Line(fmt.Sprintf("vmovsd %s,%s", stack(off), b.RegName(r, adt.FP64))), nil
	}
	return "", errors.Wrap(asm.ErrBadOperand, "load %v from stack", r)
}

// mem formats a base plus displacement memory operand.
func mem(base reg.Reg, off int) string {
	if off == 0 {
		return "(" + g(base) + ")"
	}
	return fmt.Sprintf("%d(%s)", off, g(base))
}

func stack(off int) string {
	return fmt.Sprintf("%d(%s)", off, pct("rsp"))
}

func scalarSuffix(dt adt.Type) (string, error) {
	switch dt {
	case adt.FP64:
		return "sd", nil
	case adt.FP32:
		return "ss", nil
	}
	return "", errors.Wrap(asm.ErrUnsupportedType, "scalar %v", dt)
}

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

// Package kernel composes whole loops out of a vector generator's vocabulary.
//
// Each kernel walks n whole vectors of x and y:
//
//	AXPY:  y[i] += alpha * x[i]
//	Scale: y[i]  = alpha * x[i]
//
// In inline mode (the default) the result is one __asm__ statement whose
// operands are the C lvalues n, alpha, x and y; alpha, x and y are pointers.
// Standalone mode emits a function that receives the same four arguments
// through the target calling convention.
package kernel

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Kind selects the loop body.
type Kind uint8

const (
	AXPY Kind = iota + 1
	Scale
)

var kindNames = map[Kind]string{
	AXPY:  "axpy",
	Scale: "scale",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind looks up a kernel by name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return 0, errors.Wrap(ErrUnknownKernel, "%q", name)
}

// Kinds lists every kernel.
func Kinds() []Kind { return []Kind{AXPY, Scale} }

var ErrUnknownKernel = errors.New("unknown kernel")

// params are the kernel arguments in declaration order.
var params = []string{"n", "alpha", "x", "y"}

type options struct {
	symbol   string
	prefetch int
}

// Option configures a kernel.
type Option func(*options)

// Standalone emits a callable function named symbol instead of an __asm__
// statement.
func Standalone(symbol string) Option {
	return func(o *options) { o.symbol = symbol }
}

// Prefetch issues an L1 prefetch of x, distance bytes ahead, every iteration.
func Prefetch(distance int) Option {
	return func(o *options) { o.prefetch = distance }
}

// Kernel is one emitted kernel.
type Kernel struct {
	Kind   Kind
	ISA    string
	DT     adt.Type
	Symbol string

	Text string
}

func (k *Kernel) String() string { return k.Text }

// Build emits kernel k for element type dt.
func Build(ctx context.Context, g asm.VectorGenerator, k Kind, dt adt.Type, opts ...Option) (_ *Kernel, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "kernel", "kind", k, "isa", g.Name(), "dt", dt, "symbol", o.symbol)
	defer tr.Finish("err", &err)

	b, err := newBuilder(g, k, dt, o)
	if err != nil {
		return nil, errors.Wrap(err, "%v %v on %v", k, dt, g.Name())
	}

	was := g.Inline()
	g.SetInline(o.symbol == "")
	defer g.SetInline(was)

	text, err := b.emit()
	if err != nil {
		return nil, errors.Wrap(err, "%v %v on %v", k, dt, g.Name())
	}

	tr.Printw("kernel built", "lines", strings.Count(text, "\n"), "clobbers", len(asm.Clobbers(b.rt, g.ImplicitClobbers())))

	if tr.If("dump") {
		tr.Printw("kernel text", "text", text)
	}

	return &Kernel{
		Kind:   k,
		ISA:    g.Name(),
		DT:     dt,
		Symbol: o.symbol,
		Text:   text,
	}, nil
}

// NewAXPY emits y[i] += alpha * x[i].
func NewAXPY(ctx context.Context, g asm.VectorGenerator, dt adt.Type, opts ...Option) (*Kernel, error) {
	return Build(ctx, g, AXPY, dt, opts...)
}

// NewScale emits y[i] = alpha * x[i].
func NewScale(ctx context.Context, g asm.VectorGenerator, dt adt.Type, opts ...Option) (*Kernel, error) {
	return Build(ctx, g, Scale, dt, opts...)
}

type builder struct {
	g    asm.VectorGenerator
	kind Kind
	dt   adt.Type
	o    options

	op asm.Opd3
	rt *reg.Tracker
	cc *asm.CallingConvention

	b strings.Builder
}

func newBuilder(g asm.VectorGenerator, k Kind, dt adt.Type, o options) (*builder, error) {
	b := &builder{g: g, kind: k, dt: dt, o: o, rt: g.NewTracker()}

	switch k {
	case AXPY:
		if _, ok := g.(asm.TileGenerator); ok {
			return nil, errors.Wrap(asm.ErrUnsupported, "fma accumulates into tiles")
		}
		b.op = g.FMA()
	case Scale:
		b.op = g.FMUL()
	default:
		return nil, errors.Wrap(ErrUnknownKernel, "%v", k)
	}

	if !adt.Contains(b.op.SupportedTriples(), adt.Same(dt)) {
		return nil, errors.Wrap(asm.ErrUnsupportedType, "%v", b.op.Name())
	}

	if g.IsVLA() && !g.HasAddGregVoff() {
		return nil, errors.Wrap(asm.ErrUnsupported, "pointer bump by vector length")
	}

	return b, nil
}

func (b *builder) label(name string) string {
	prefix := b.o.symbol
	if prefix == "" {
		prefix = b.kind.String()
	}
	return prefix + "_" + name
}

func (b *builder) add(s string, err error) error {
	if err != nil {
		return err
	}
	b.b.WriteString(s)
	return nil
}

// args binds every parameter to a register: loaded from its memory operand
// inline, taken where the calling convention puts it otherwise.
func (b *builder) args() (map[string]reg.Reg, error) {
	regs := make(map[string]reg.Reg, len(params))

	if b.o.symbol != "" {
		b.cc = asm.NewCallingConvention(b.g.ABI(), b.g)
	}

	for _, name := range params {
		if b.cc == nil {
			r, err := b.rt.ReserveAny(reg.GP)
			if err != nil {
				return nil, errors.Wrap(err, "param %v", name)
			}

			b.b.WriteString(b.g.MovParamToGreg(reg.Operand(name), r))
			regs[name] = r

			continue
		}

		l := b.cc.AddParam(reg.GP, name)
		if l.Stack {
			return nil, errors.Wrap(asm.ErrUnsupported, "param %v passed on the stack", l)
		}

		r, err := b.rt.ReserveSpecific(l.Reg.Class, l.Reg.Idx)
		if err != nil {
			return nil, errors.Wrap(err, "param %v", l)
		}

		regs[name] = r
	}

	return regs, nil
}

func (b *builder) vectors(n int) ([]reg.Reg, error) {
	out := make([]reg.Reg, n)

	for i := range out {
		r, err := b.rt.ReserveAny(reg.Vec)
		if err != nil {
			return nil, err
		}

		out[i] = r
	}

	return out, nil
}

// bump advances r past one vector.
func (b *builder) bump(r reg.Reg) error {
	if b.g.HasAddGregVoff() {
		return b.add(b.g.AddGregVoff(r, 1, b.dt))
	}
	return b.add(b.g.AddGregImm(r, int64(b.g.SimdSize())))
}

func (b *builder) emit() (string, error) {
	g, dt := b.g, b.dt
	t := adt.Same(dt)

	regs, err := b.args()
	if err != nil {
		return "", err
	}

	n, alpha, x, y := regs["n"], regs["alpha"], regs["x"], regs["y"]

	if err = b.add(g.IsaQuirks(b.rt, dt)); err != nil {
		return "", errors.Wrap(err, "quirks")
	}

	v, err := b.vectors(3)
	if err != nil {
		return "", err
	}

	va, vx, vy := v[0], v[1], v[2]

	if err = b.add(g.LoadVectorDist1(alpha, va, dt)); err != nil {
		return "", errors.Wrap(err, "broadcast alpha")
	}

	loop, done := b.label("loop"), b.label("done")

	b.b.WriteString(g.LoopBeginNZ(n, loop, done))

	if b.o.prefetch != 0 {
		if err = b.add(g.PrefetchL1Boff(x, b.o.prefetch)); err != nil {
			return "", err
		}
	}

	if err = b.add(g.LoadVector(x, vx, dt)); err != nil {
		return "", err
	}

	if b.kind == AXPY {
		if err = b.add(g.LoadVector(y, vy, dt)); err != nil {
			return "", err
		}
	}

	if err = b.add(b.op.Invoke(vx, va, vy, t, asm.NoModifiers)); err != nil {
		return "", err
	}

	if err = b.add(g.StoreVector(y, vy, dt)); err != nil {
		return "", err
	}

	for _, r := range []reg.Reg{x, y} {
		if err = b.bump(r); err != nil {
			return "", err
		}
	}

	b.b.WriteString(g.LoopEnd(n, loop))
	b.b.WriteString(g.Label(done))
	b.b.WriteString(asm.PostQuirks(g))

	if b.cc == nil {
		inputs := make([]asm.Operand, len(params))
		for i, p := range params {
			inputs[i] = asm.Operand{Name: p, Expr: p}
		}

		return asm.Wrap(b.b.String(), g.OperandBlock(nil, inputs, b.rt)), nil
	}

	return b.function()
}

// function brackets the body with the symbol definition and the callee-save
// spills.
func (b *builder) function() (string, error) {
	save, err := b.cc.SaveInCall(asm.ClobberedRegs(b.rt))
	if err != nil {
		return "", err
	}

	restore, err := b.cc.RestoreBeforeRet()
	if err != nil {
		return "", err
	}

	var out strings.Builder

	fmt.Fprintf(&out, ".text\n.globl %s\n%s:\n", b.o.symbol, b.o.symbol)
	out.WriteString(save)
	out.WriteString(b.b.String())
	out.WriteString(restore)
	out.WriteString(b.g.Ret())

	return out.String(), nil
}

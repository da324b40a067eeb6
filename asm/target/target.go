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

// Package target is the registry of instruction set backends: it maps ISA
// names to generators and decides which of them a CPU can run.
package target

import (
	"strings"

	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/aarch64"
	"github.com/ajroetker/hwyasm/asm/riscv"
	"github.com/ajroetker/hwyasm/asm/x86"
)

// ISA names a backend.
type ISA string

const (
	AArch64 ISA = "aarch64"
	NEON    ISA = "neon"
	SVE     ISA = "sve"
	SME     ISA = "sme"
	RISCV64 ISA = "riscv64"
	RVV     ISA = "rvv"
	RVV071  ISA = "rvv071"
	X86     ISA = "x86_64"
	FMA128  ISA = "fma128"
	FMA256  ISA = "fma256"
	AVX512  ISA = "avx512"
)

var (
	ErrUnknownISA = errors.New("unknown isa")
	ErrNotVector  = errors.New("isa has no vector unit")
)

type options struct {
	inline bool
	fp16   bool
}

// Option configures a generator built by New.
type Option func(*options)

// WithInline selects inline-asm line wrapping.
func WithInline(on bool) Option {
	return func(o *options) { o.inline = on }
}

// WithFP16 publishes the AVX-512 FP16 triples. Other backends ignore it.
func WithFP16(on bool) Option {
	return func(o *options) { o.fp16 = on }
}

type entry struct {
	isa    ISA
	vector bool
	new    func(o options) asm.Generator
}

var registry = []entry{
	{AArch64, false, func(options) asm.Generator { return aarch64.NewScalar() }},
	{NEON, true, func(options) asm.Generator { return aarch64.NewNEON() }},
	{SVE, true, func(options) asm.Generator { return aarch64.NewSVE() }},
	{SME, true, func(options) asm.Generator { return aarch64.NewSME() }},
	{RISCV64, false, func(options) asm.Generator { return riscv.NewRV64() }},
	{RVV, true, func(options) asm.Generator { return riscv.NewRVV() }},
	{RVV071, true, func(options) asm.Generator { return riscv.NewRVV071() }},
	{X86, false, func(options) asm.Generator { return x86.NewBase() }},
	{FMA128, true, func(options) asm.Generator { return x86.NewFMA128() }},
	{FMA256, true, func(options) asm.Generator { return x86.NewFMA256() }},
	{AVX512, true, func(o options) asm.Generator { return x86.NewAVX512(o.fp16) }},
}

func lookup(isa ISA) (entry, error) {
	e, ok := lo.Find(registry, func(e entry) bool { return e.isa == isa })
	if !ok {
		return entry{}, errors.Wrap(ErrUnknownISA, "%q", string(isa))
	}
	return e, nil
}

// All lists every ISA in registry order.
func All() []ISA {
	return lo.Map(registry, func(e entry, _ int) ISA { return e.isa })
}

// Vector lists the ISAs with a vector unit.
func Vector() []ISA {
	return lo.FilterMap(registry, func(e entry, _ int) (ISA, bool) { return e.isa, e.vector })
}

// Parse resolves a case-insensitive ISA name.
func Parse(name string) (ISA, error) {
	isa := ISA(strings.ToLower(strings.TrimSpace(name)))
	if _, err := lookup(isa); err != nil {
		return "", err
	}
	return isa, nil
}

// ParseList resolves a comma separated list of ISA names. "all" expands to
// every vector ISA.
func ParseList(s string) ([]ISA, error) {
	var out []ISA

	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, "all") {
			out = append(out, Vector()...)
			continue
		}

		isa, err := Parse(name)
		if err != nil {
			return nil, err
		}

		out = append(out, isa)
	}

	return lo.Uniq(out), nil
}

// New returns a fresh generator for isa.
func New(isa ISA, opts ...Option) (asm.Generator, error) {
	e, err := lookup(isa)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := e.new(o)
	g.SetInline(o.inline)

	return g, nil
}

// NewVector is New restricted to ISAs with a vector unit.
func NewVector(isa ISA, opts ...Option) (asm.VectorGenerator, error) {
	g, err := New(isa, opts...)
	if err != nil {
		return nil, err
	}

	vg, ok := g.(asm.VectorGenerator)
	if !ok {
		return nil, errors.Wrap(ErrNotVector, "%v", isa)
	}

	return vg, nil
}

// IsVector reports whether isa has a vector unit.
func IsVector(isa ISA) bool {
	e, err := lookup(isa)
	return err == nil && e.vector
}

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

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
	"github.com/ajroetker/hwyasm/asm/target"
)

var classLetters = map[string]reg.Class{
	"g": reg.GP,
	"f": reg.FP,
	"v": reg.Vec,
	"t": reg.Tile,
	"p": reg.Pred,
}

// parseReg parses "class:index" (g, f, v, t or p), or "%name" for an
// operand-block parameter.
func parseReg(s string) (reg.Reg, error) {
	if name, ok := strings.CutPrefix(s, "%"); ok && name != "" {
		return reg.Operand(name), nil
	}

	cl, idx, ok := strings.Cut(s, ":")
	if !ok {
		return reg.Reg{}, errors.Wrap(asm.ErrBadOperand, "register %q: want class:index", s)
	}

	c, ok := classLetters[strings.ToLower(cl)]
	if !ok {
		return reg.Reg{}, errors.Wrap(asm.ErrBadOperand, "register %q: unknown class", s)
	}

	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return reg.Reg{}, errors.Wrap(asm.ErrBadOperand, "register %q: bad index", s)
	}

	return reg.Reg{Class: c, Idx: i}, nil
}

type opd3Flags struct {
	isa, op    string
	a, b, c    string
	types      string
	mods       string
	part, idx  int
	mask, pred string
	regidx     string
	fp16       bool
}

func newOpd3Cmd(g *globals) *cobra.Command {
	var fl opd3Flags

	cmd := &cobra.Command{
		Use:   "opd3",
		Short: "Emit one FMA or FMUL instruction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := fl.invoke(g)
			if err != nil {
				return err
			}

			tlog.SpanFromContext(cmd.Context()).Printw("opd3", "isa", fl.isa, "op", fl.op, "types", fl.types, "mods", fl.mods)

			_, err = fmt.Fprint(cmd.OutOrStdout(), s)

			return err
		},
	}

	fl.register(cmd.Flags())

	return cmd
}

func (fl *opd3Flags) register(f *pflag.FlagSet) {
	f.StringVar(&fl.isa, "isa", defaultISA(), "vector ISA (default from "+isaEnv+")")
	f.StringVar(&fl.op, "op", "fma", "operation: fma or fmul")
	f.StringVar(&fl.a, "a", "v:1", "first multiplicand")
	f.StringVar(&fl.b, "b", "v:2", "second multiplicand")
	f.StringVar(&fl.c, "c", "v:0", "accumulator or destination")
	f.StringVar(&fl.types, "types", "fp32", "datatype triple a,b,c or one type for all three")
	f.StringVar(&fl.mods, "mods", "none", "comma separated modifiers: np,idx,regidx,part,vf,mask")
	f.IntVar(&fl.part, "part", -1, "part number for part")
	f.IntVar(&fl.idx, "idx", -1, "lane index for idx")
	f.StringVar(&fl.mask, "mask", "", "mask register for mask")
	f.StringVar(&fl.pred, "pred", "", "governing predicate (SVE)")
	f.StringVar(&fl.regidx, "regidx", "", "index register for regidx")
	f.BoolVar(&fl.fp16, "fp16", false, "enable AVX-512 FP16")
}

func (fl *opd3Flags) invoke(g *globals) (string, error) {
	op, err := opd3For(fl.isa, fl.op, target.WithInline(g.inline), target.WithFP16(fl.fp16))
	if err != nil {
		return "", err
	}

	var regs [3]reg.Reg
	for i, s := range []string{fl.a, fl.b, fl.c} {
		regs[i], err = parseReg(s)
		if err != nil {
			return "", err
		}
	}

	t, err := adt.ParseTriple(fl.types)
	if err != nil {
		return "", err
	}

	mods, err := asm.ParseModifiers(fl.mods)
	if err != nil {
		return "", err
	}

	var opts []asm.Option

	if fl.part >= 0 {
		opts = append(opts, asm.WithPart(fl.part))
	}
	if fl.idx >= 0 {
		opts = append(opts, asm.WithIndex(fl.idx))
	}

	for _, o := range []struct {
		s    string
		with func(reg.Reg) asm.Option
	}{
		{fl.mask, asm.WithMask},
		{fl.pred, asm.WithPredicate},
		{fl.regidx, asm.WithRegIndex},
	} {
		if o.s == "" {
			continue
		}

		r, err := parseReg(o.s)
		if err != nil {
			return "", err
		}

		opts = append(opts, o.with(r))
	}

	return op.Invoke(regs[0], regs[1], regs[2], t, mods, opts...)
}

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
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/target"
)

func newISAsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "isas",
		Short: "List the ISAs and their headline parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := cases.Title(language.English)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			heads := lo.Map([]string{"isa", "abi", "gregs", "fregs", "vregs", "simd bytes", "requires"}, func(h string, _ int) string {
				return title.String(h)
			})
			fmt.Fprintln(w, strings.Join(heads, "\t"))

			for _, isa := range target.All() {
				g, err := target.New(isa)
				if err != nil {
					return err
				}

				vregs, simd := "-", "-"
				if vg, ok := g.(asm.VectorGenerator); ok {
					vregs = fmt.Sprint(vg.MaxVregs())
					simd = fmt.Sprint(vg.SimdSize())
					if vg.IsVLA() {
						simd = "vla"
					}
				}

				req := strings.Join(target.Requirements(isa), ",")
				if req == "" {
					req = "-"
				}

				fmt.Fprintf(w, "%v\t%v\t%d\t%d\t%v\t%v\t%v\n", isa, g.ABI().Name, g.MaxGregs(), g.MaxFregs(), vregs, simd, req)
			}

			return w.Flush()
		},
	}
}

func newTriplesCmd() *cobra.Command {
	var isa, op string
	var fp16 bool

	cmd := &cobra.Command{
		Use:   "triples",
		Short: "List the datatype triples an operation supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := opd3For(isa, op, target.WithFP16(fp16))
			if err != nil {
				return err
			}

			for _, t := range o.SupportedTriples() {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\n", t)
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&isa, "isa", defaultISA(), "vector ISA (default from "+isaEnv+")")
	f.StringVar(&op, "op", "fma", "operation: fma or fmul")
	f.BoolVar(&fp16, "fp16", false, "enable AVX-512 FP16")

	return cmd
}

// opd3For resolves an ISA and operation name to its Opd3.
func opd3For(isaName, op string, opts ...target.Option) (asm.Opd3, error) {
	isa, err := target.Parse(isaName)
	if err != nil {
		return nil, err
	}

	g, err := target.NewVector(isa, opts...)
	if err != nil {
		return nil, err
	}

	o, ok := lo.Find(g.Opd3s(), func(o asm.Opd3) bool {
		return strings.EqualFold(o.Kind().String(), op)
	})
	if !ok {
		return nil, errors.Wrap(asm.ErrUnsupported, "%v has no %q", isa, op)
	}

	return o, nil
}

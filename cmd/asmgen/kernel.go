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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/kernel"
	"github.com/ajroetker/hwyasm/asm/target"
)

func newKernelCmd() *cobra.Command {
	var isas, name, dtName string
	var standalone bool
	var prefetch int

	cmd := &cobra.Command{
		Use:   "kernel",
		Short: "Emit a whole kernel for one or more ISAs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := target.ParseList(isas)
			if err != nil {
				return err
			}

			k, err := kernel.ParseKind(name)
			if err != nil {
				return err
			}

			dt, err := adt.Parse(dtName)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := make([]string, len(list))

			// Every ISA gets its own generator, so emissions are independent.
			var eg errgroup.Group

			for i, isa := range list {
				eg.Go(func() error {
					vg, err := target.NewVector(isa)
					if err != nil {
						return err
					}

					var opts []kernel.Option
					if standalone {
						opts = append(opts, kernel.Standalone(fmt.Sprintf("%v_%v_%v", k, dt, isa)))
					}
					if prefetch != 0 {
						opts = append(opts, kernel.Prefetch(prefetch))
					}

					kn, err := kernel.Build(ctx, vg, k, dt, opts...)
					if skippable(err) && len(list) > 1 {
						tlog.SpanFromContext(ctx).Printw("skip isa", "isa", isa, "err", err)
						return nil
					}
					if err != nil {
						return err
					}

					out[i] = fmt.Sprintf("%s %v %v %v\n%s", comment(isa, standalone), k, dt, isa, kn.Text)

					return nil
				})
			}

			if err := eg.Wait(); err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), strings.Join(out, ""))

			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&isas, "isa", defaultISA(), "comma separated vector ISAs or \"all\" (default from "+isaEnv+")")
	f.StringVar(&name, "kernel", "axpy", "kernel: axpy or scale")
	f.StringVar(&dtName, "dt", "fp32", "element type")
	f.BoolVar(&standalone, "standalone", false, "emit a callable function instead of an __asm__ statement")
	f.IntVar(&prefetch, "prefetch", 0, "L1 prefetch distance in bytes, 0 for none")

	return cmd
}

// skippable reports whether err only says the ISA cannot run the kernel.
func skippable(err error) bool {
	return errors.Is(err, asm.ErrUnsupported) || errors.Is(err, asm.ErrUnsupportedType)
}

// comment returns the line comment marker: C for inline statements, the
// assembler's own otherwise.
func comment(isa target.ISA, standalone bool) string {
	switch {
	case !standalone:
		return "//"
	case isa == target.NEON || isa == target.SVE || isa == target.SME:
		return "//"
	default:
		return "#"
	}
}

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

// Command asmgen emits SIMD assembly snippets and kernels for every supported ISA.
//
// Usage:
//
//	asmgen isas
//	asmgen triples --isa sve --op fma
//	asmgen opd3 --isa neon --op fma --a v:1 --b v:2 --c v:0 --types fp16,fp16,fp32 --mods part --part 1
//	asmgen kernel --isa neon,avx512 --kernel axpy --dt fp32 --standalone
//	asmgen literal --dt fp16 --round nearest -- 1.5 -2
//	asmgen features --features "fp asimd sve"
//
// Defaults come from the environment: HWYASM_ISA picks the ISA, HWYASM_INLINE
// selects inline-asm wrapping and HWYASM_FEATURES replaces the host feature
// string. HWYASM_NO_SIMD hides the host vector units.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
	"tlog.app/go/tlog"
)

const (
	isaEnv      = "HWYASM_ISA"
	inlineEnv   = "HWYASM_INLINE"
	featuresEnv = "HWYASM_FEATURES"
)

type globals struct {
	inline    bool
	verbosity string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "asmgen",
		Short:         "asmgen emits SIMD assembly for aarch64, x86-64 and riscv64",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(cmd.ErrOrStderr(), tlog.LstdFlags))

			if g.verbosity != "" {
				tlog.SetVerbosity(g.verbosity)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cmd.SetContext(tlog.ContextWithSpan(ctx, tlog.Root()))
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&g.inline, "inline", env.Bool(inlineEnv), "wrap lines for inline asm (default from "+inlineEnv+")")
	pf.StringVarP(&g.verbosity, "verbose", "v", "", "tlog verbosity topics, e.g. \"dump\"")

	root.AddCommand(
		newISAsCmd(),
		newTriplesCmd(),
		newOpd3Cmd(g),
		newKernelCmd(),
		newLiteralCmd(),
		newFeaturesCmd(),
	)

	return root
}

func defaultISA() string {
	return env.Str(isaEnv, "neon")
}

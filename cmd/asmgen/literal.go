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
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/data"
)

func newLiteralCmd() *cobra.Command {
	var dtName, round, label string

	cmd := &cobra.Command{
		Use:   "literal [flags] value...",
		Short: "Render values as assembler data directives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := adt.Parse(dtName)
			if err != nil {
				return err
			}

			r, err := data.ParseRounding(round)
			if err != nil {
				return err
			}

			values := make([]any, len(args))
			for i, a := range args {
				values[i], err = parseValue(dt, a)
				if err != nil {
					return err
				}
			}

			var lines []string

			if label != "" {
				lines, err = data.Block(label, dt, values...)
				if err != nil {
					return err
				}
			} else {
				for _, v := range values {
					l, err := data.Literal(dt, v, data.WithRounding(r))
					if err != nil {
						return err
					}

					lines = append(lines, l)
				}
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))

			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&dtName, "dt", "fp32", "element type")
	f.StringVar(&round, "round", "truncate", "float narrowing: truncate or nearest")
	f.StringVar(&label, "label", "", "emit a labeled read-only block instead of bare directives")

	return cmd
}

// parseValue reads an integer for integer types and a float for float types.
// Integers accept any base prefix strconv understands.
func parseValue(dt adt.Type, s string) (any, error) {
	if dt.IsFloat() {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrap(err, "value %q", s)
		}
		return v, nil
	}

	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, errors.Wrap(err, "value %q", s)
		}
		return v, nil
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return nil, errors.Wrap(err, "value %q", s)
	}

	return v, nil
}

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

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/ajroetker/hwyasm/asm/target"
)

func newFeaturesCmd() *cobra.Command {
	var features string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "List the vector ISAs a CPU feature string can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("features") && features == "" {
				features = target.HostFeatures()
			}

			usable := target.Usable(features)
			if len(usable) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "none")
				return err
			}

			for _, isa := range usable {
				fmt.Fprintln(cmd.OutOrStdout(), isa)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&features, "features", env.Str(featuresEnv), "CPU feature string (default from "+featuresEnv+", else the host)")

	return cmd
}

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

package target

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// requirements lists the CPU feature flags each ISA needs. The RVV entries
// are checked against the ISA string instead; see hasRV64V.
var requirements = map[ISA][]string{
	NEON:   {"asimd"},
	SVE:    {"sve"},
	SME:    {"sme"},
	FMA128: {"fma", "avx"},
	FMA256: {"fma", "avx"},
	AVX512: {"avx512f"},
	RVV:    {"rv64*v"},
	RVV071: {"rv64*v"},
}

// Requirements returns the feature flags isa needs, or nil for the scalar
// ISAs. "rv64*v" stands for an rv64 ISA string whose extension group
// contains v.
func Requirements(isa ISA) []string {
	return requirements[isa]
}

// ParseFeatures splits a feature string on whitespace and commas and
// lowercases every flag.
func ParseFeatures(features string) []string {
	fields := strings.FieldsFunc(features, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	return lo.Map(fields, func(f string, _ int) string { return strings.ToLower(f) })
}

// Supported reports whether a CPU with the given feature string can run isa.
// Unknown ISAs are never supported.
func Supported(isa ISA, features string) bool {
	if _, err := lookup(isa); err != nil {
		return false
	}

	flags := ParseFeatures(features)

	for _, req := range Requirements(isa) {
		if req == "rv64*v" {
			if !lo.SomeBy(flags, hasRV64V) {
				return false
			}
			continue
		}
		if !lo.Contains(flags, req) {
			return false
		}
	}

	return true
}

// Usable lists, in registry order, the vector ISAs the feature string
// supports.
func Usable(features string) []ISA {
	return lo.Filter(Vector(), func(isa ISA, _ int) bool { return Supported(isa, features) })
}

// hasRV64V reports whether flag is an rv64 ISA string whose single-letter
// extension group (up to the first '_') contains v, as in rv64imafdcv_zicsr.
func hasRV64V(flag string) bool {
	group, ok := strings.CutPrefix(flag, "rv64")
	if !ok {
		return false
	}
	group, _, _ = strings.Cut(group, "_")
	return strings.ContainsRune(group, 'v')
}

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

	"github.com/xyproto/env/v2"
)

// NoSimdEnv is the environment variable that hides every vector feature of
// the host, so only scalar ISAs are usable.
const NoSimdEnv = "HWYASM_NO_SIMD"

// HostFeatures returns the feature string of the running CPU, in the
// vocabulary Supported understands. It is empty when HWYASM_NO_SIMD is set.
func HostFeatures() string {
	return featureString(hostFeatures(), env.Bool(NoSimdEnv))
}

func featureString(flags []string, noSimd bool) string {
	if noSimd {
		return ""
	}
	return strings.Join(flags, " ")
}

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

package asm

import (
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/reg"
)

// Error kinds. Every validation failure wraps one of these; match with errors.Is.
var (
	ErrUnsupportedType     = errors.New("unsupported type triple")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrNarrowerAccumulator = errors.New("accumulator narrower than multiplicand")
	ErrMixedFamily         = errors.New("mixed float/int family")
	ErrUnsupportedModifier = errors.New("unsupported modifier")
	ErrMissingParameter    = errors.New("missing parameter")
	ErrUnsupportedWidth    = errors.New("unsupported widening width")
	ErrUnsupported         = errors.New("unsupported operation")
	ErrBadOperand          = errors.New("bad operand")
	ErrUnbalanced          = errors.New("restore without save")

	// ErrOutOfRange is shared with the register tracker.
	ErrOutOfRange = reg.ErrOutOfRange
)

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

package aarch64

import (
	"fmt"
	"math/bits"
	"strings"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
)

// PartialSuffix spells which slice of the narrow lanes a split widening
// instruction consumes: log2(ways) 'l' characters, then part in binary, most
// significant bit first, with 't' for 1 and 'b' for 0.
//
//	PartialSuffix(2, 1) == "lt"
//	PartialSuffix(4, 2) == "lltb"
func PartialSuffix(ways, part int) (string, error) {
	if ways < 2 || ways&(ways-1) != 0 {
		return "", errors.Wrap(asm.ErrUnsupportedWidth, "%d ways", ways)
	}
	if part < 0 || part >= ways {
		return "", errors.Wrap(asm.ErrOutOfRange, "part %d of %d", part, ways)
	}

	k := bits.TrailingZeros(uint(ways))

	var b strings.Builder
	b.WriteString(strings.Repeat("l", k))

	for i := k - 1; i >= 0; i-- {
		if part>>i&1 == 1 {
			b.WriteByte('t')
		} else {
			b.WriteByte('b')
		}
	}

	return b.String(), nil
}

// prefix selects the family prefix of a NEON/SVE multiply.
func prefix(t adt.Triple) string {
	switch {
	case t.A == adt.BF16:
		return "bf"
	case t.A.IsFloat():
		return "f"
	case t.A.IsUnsigned():
		return "u"
	case t.Widens():
		return "s"
	}
	return ""
}

// mnemonic builds the NEON/SVE instruction name.
func mnemonic(k asm.Kind, t adt.Triple, mods asm.Modifier, part int) (string, error) {
	p := prefix(t)

	if !t.Widens() {
		switch {
		case k == asm.FMUL:
			return p + "mul", nil
		case mods.Has(asm.NP):
			return p + "mls", nil
		}
		return p + "mla", nil
	}

	partial, err := PartialSuffix(t.Ways(), part)
	if err != nil {
		return "", err
	}

	switch {
	case k == asm.FMUL:
		return p + "mul" + partial, nil
	case mods.Has(asm.NP):
		return p + "ms" + partial, nil
	}

	return p + "mla" + partial, nil
}

// shape is the NEON arrangement filling a 128-bit register with dt lanes.
func shape(dt adt.Type) string {
	return fmt.Sprintf("%d%s", 16/dt.Size(), elem(dt.Size()))
}

func indexable(dt adt.Type) int {
	if dt.Size() == 0 {
		return 0
	}
	return 16 / dt.Size()
}

func laneIndex(t adt.Triple, ex asm.Extra) error {
	if ex.Idx < 0 || ex.Idx >= indexable(t.B) {
		return errors.Wrap(asm.ErrOutOfRange, "lane %d of %v", ex.Idx, t.B)
	}
	return nil
}

var (
	splitFloat = []adt.Triple{
		adt.Same(adt.FP64),
		adt.Same(adt.FP32),
		adt.Same(adt.FP16),
		adt.T3(adt.FP16, adt.FP16, adt.FP32),
		adt.T3(adt.BF16, adt.BF16, adt.FP32),
		adt.T3(adt.FP8E4M3, adt.FP8E4M3, adt.FP16),
		adt.T3(adt.FP8E5M2, adt.FP8E5M2, adt.FP16),
		adt.T3(adt.FP8E4M3, adt.FP8E4M3, adt.FP32),
		adt.T3(adt.FP8E5M2, adt.FP8E5M2, adt.FP32),
	}

	splitIntWidening = []adt.Triple{
		adt.T3(adt.SINT8, adt.SINT8, adt.SINT16),
		adt.T3(adt.SINT16, adt.SINT16, adt.SINT32),
		adt.T3(adt.SINT32, adt.SINT32, adt.SINT64),
		adt.T3(adt.UINT8, adt.UINT8, adt.UINT16),
		adt.T3(adt.UINT16, adt.UINT16, adt.UINT32),
		adt.T3(adt.UINT32, adt.UINT32, adt.UINT64),
	}

	floatUniform = []adt.Triple{
		adt.Same(adt.FP64),
		adt.Same(adt.FP32),
		adt.Same(adt.FP16),
	}
)

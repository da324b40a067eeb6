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

// Package adt defines the element data types the assembly emitter knows about.
//
// Every vector operation is parameterized by one or more of these types: the
// lane shape of a load, the suffix of an FMA, the accumulator type of a
// widening multiply. The set is fixed and mirrors what the supported ISAs can
// encode:
//
//	FP8E4M3, FP8E5M2         8-bit floats (OCP FP8)
//	BF16, FP16               16-bit floats
//	TF32, FP32               32-bit floats (TF32 is stored in 32 bits)
//	FP64, FP128              64- and 128-bit floats
//	SINT8..SINT64            signed integers
//	UINT8..UINT64            unsigned integers
package adt

import (
	"fmt"
	"strings"

	"tlog.app/go/errors"
)

// ErrInvalidType is returned when a value outside the enumeration is queried.
var ErrInvalidType = errors.New("invalid data type")

// Type is an element data type.
type Type uint8

const (
	// Invalid is the zero Type. It is never a valid operand type.
	Invalid Type = iota

	FP8E4M3
	FP8E5M2
	BF16
	FP16
	TF32
	FP32
	FP64
	FP128

	SINT8
	SINT16
	SINT32
	SINT64

	UINT8
	UINT16
	UINT32
	UINT64

	numTypes
)

// Common aliases.
const (
	Half   = FP16
	Single = FP32
	Double = FP64
	XF32   = TF32
)

type typeInfo struct {
	name   string
	size   int
	float  bool
	signed bool
}

var types = [numTypes]typeInfo{
	FP8E4M3: {"fp8e4m3", 1, true, true},
	FP8E5M2: {"fp8e5m2", 1, true, true},
	BF16:    {"bf16", 2, true, true},
	FP16:    {"fp16", 2, true, true},
	TF32:    {"tf32", 4, true, true},
	FP32:    {"fp32", 4, true, true},
	FP64:    {"fp64", 8, true, true},
	FP128:   {"fp128", 16, true, true},
	SINT8:   {"sint8", 1, false, true},
	SINT16:  {"sint16", 2, false, true},
	SINT32:  {"sint32", 4, false, true},
	SINT64:  {"sint64", 8, false, true},
	UINT8:   {"uint8", 1, false, false},
	UINT16:  {"uint16", 2, false, false},
	UINT32:  {"uint32", 4, false, false},
	UINT64:  {"uint64", 8, false, false},
}

var aliases = map[string]Type{
	"half":   Half,
	"single": Single,
	"double": Double,
	"xf32":   XF32,
}

// Types returns every valid Type in declaration order.
func Types() []Type {
	out := make([]Type, 0, numTypes-1)
	for t := FP8E4M3; t < numTypes; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is a member of the enumeration.
func (t Type) Valid() bool {
	return t > Invalid && t < numTypes
}

// Size returns the byte size of t, or 0 if t is not valid.
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return types[t].size
}

// Bits returns the bit width of t, or 0 if t is not valid.
func (t Type) Bits() int {
	return 8 * t.Size()
}

// SizeOf returns the byte size of t, failing with ErrInvalidType for values
// outside the enumeration.
func SizeOf(t Type) (int, error) {
	if !t.Valid() {
		return 0, errors.Wrap(ErrInvalidType, "size of %d", uint8(t))
	}
	return types[t].size, nil
}

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool {
	return t.Valid() && types[t].float
}

// IsInt reports whether t is an integer type.
func (t Type) IsInt() bool {
	return t.Valid() && !types[t].float
}

// IsSigned reports whether t is a signed integer type.
// Floats are neither signed nor unsigned in this sense.
func (t Type) IsSigned() bool {
	return t.IsInt() && types[t].signed
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t Type) IsUnsigned() bool {
	return t.IsInt() && !types[t].signed
}

// String returns the canonical lowercase name of t.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("adt(%d)", uint8(t))
	}
	return types[t].name
}

// Parse looks up a Type by canonical name or alias, case-insensitively.
func Parse(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if t, ok := aliases[n]; ok {
		return t, nil
	}
	for t := FP8E4M3; t < numTypes; t++ {
		if types[t].name == n {
			return t, nil
		}
	}
	return Invalid, errors.Wrap(ErrInvalidType, "parse %q", name)
}

// IndexType is the element type of a gather/scatter offset vector.
type IndexType uint8

const (
	INT8 IndexType = iota + 1
	INT16
	INT32
	INT64
)

// Size returns the byte size of it, or 0 if it is not valid.
func (it IndexType) Size() int {
	switch it {
	case INT8:
		return 1
	case INT16:
		return 2
	case INT32:
		return 4
	case INT64:
		return 8
	default:
		return 0
	}
}

// Bits returns the bit width of it.
func (it IndexType) Bits() int {
	return 8 * it.Size()
}

// String returns "int8", "int16", "int32" or "int64".
func (it IndexType) String() string {
	if it.Size() == 0 {
		return fmt.Sprintf("ait(%d)", uint8(it))
	}
	return fmt.Sprintf("int%d", it.Bits())
}

// ParseIndexType parses "int8" .. "int64".
func ParseIndexType(name string) (IndexType, error) {
	for it := INT8; it <= INT64; it++ {
		if strings.EqualFold(it.String(), strings.TrimSpace(name)) {
			return it, nil
		}
	}
	return 0, errors.Wrap(ErrInvalidType, "parse index type %q", name)
}

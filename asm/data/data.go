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

// Package data renders constants as assembler data directives, for tables
// placed in a read-only section next to the code that uses them.
package data

import (
	"fmt"
	"math"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/adt"
)

// ErrUnrepresentableSize is returned for float layouts that do not fill a
// .byte, .short, .long or .quad exactly.
var ErrUnrepresentableSize = errors.New("unrepresentable literal size")

// Rounding selects how a float64 is narrowed.
type Rounding uint8

const (
	// Truncate drops the low mantissa bits (round toward zero) and keeps the
	// double's exponent, rebiased.
	Truncate Rounding = iota
	// NearestEven rounds to nearest, ties to even.
	NearestEven
)

func (r Rounding) String() string {
	if r == NearestEven {
		return "nearest"
	}
	return "truncate"
}

// ParseRounding accepts "truncate" and "nearest".
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "truncate", "trunc":
		return Truncate, nil
	case "nearest", "nearest-even", "rne":
		return NearestEven, nil
	}
	return 0, errors.New("unknown rounding %q", s)
}

// Option configures Float.
type Option func(*Rounding)

// WithRounding selects the rounding mode.
func WithRounding(r Rounding) Option {
	return func(x *Rounding) { *x = r }
}

// Macro returns the directive emitting size bytes.
func Macro(size int) (string, error) {
	switch size {
	case 1:
		return ".byte", nil
	case 2:
		return ".short", nil
	case 4:
		return ".long", nil
	case 8:
		return ".quad", nil
	}
	return "", errors.Wrap(ErrUnrepresentableSize, "%d bytes", size)
}

// Int renders v as an integer of type dt: "{macro} 0x{v & mask}".
func Int(dt adt.Type, v uint64) (string, error) {
	size, err := adt.SizeOf(dt)
	if err != nil {
		return "", err
	}

	m, err := Macro(size)
	if err != nil {
		return "", errors.Wrap(err, "%v", dt)
	}

	return fmt.Sprintf("%s 0x%x", m, v&mask(8*size)), nil
}

// Float renders v in the bit layout of the float type dt.
func Float(dt adt.Type, v float64, opts ...Option) (string, error) {
	r := Truncate
	for _, o := range opts {
		o(&r)
	}

	bits, err := Bits(dt, v, r)
	if err != nil {
		return "", err
	}

	f, _ := adt.FormatOf(dt)

	m, err := Macro(f.TotalBits() / 8)
	if err != nil {
		return "", errors.Wrap(err, "%v", dt)
	}

	return fmt.Sprintf("%s 0x%x", m, bits), nil
}

// Literal renders an integer or float Go value as type dt.
// Integer values are converted for float types; float values are rejected
// for integer types.
func Literal(dt adt.Type, v any, opts ...Option) (string, error) {
	if dt.IsFloat() {
		switch x := v.(type) {
		case float64:
			return Float(dt, x, opts...)
		case float32:
			return Float(dt, float64(x), opts...)
		}

		i, ok := asUint(v)
		if !ok {
			return "", errors.Wrap(adt.ErrInvalidType, "%T literal", v)
		}
		if isNegative(v) {
			return Float(dt, float64(int64(i)), opts...)
		}
		return Float(dt, float64(i), opts...)
	}

	i, ok := asUint(v)
	if !ok {
		return "", errors.Wrap(adt.ErrInvalidType, "%T literal for %v", v, dt)
	}

	return Int(dt, i)
}

// Block renders a read-only table: section switch, alignment, label and one
// directive per value.
func Block(label string, dt adt.Type, values ...any) ([]string, error) {
	size, err := adt.SizeOf(dt)
	if err != nil {
		return nil, err
	}

	lines := []string{
		".pushsection .rodata",
		fmt.Sprintf(".balign %d", size),
		label + ":",
	}

	for i, v := range values {
		l, err := Literal(dt, v)
		if err != nil {
			return nil, errors.Wrap(err, "value %d", i)
		}

		lines = append(lines, l)
	}

	lines = append(lines, ".popsection")

	return lines, nil
}

// Bits returns the bit pattern of v in the layout of dt, right-aligned.
func Bits(dt adt.Type, v float64, r Rounding) (uint64, error) {
	f, err := adt.FormatOf(dt)
	if err != nil {
		return 0, err
	}

	if n := f.TotalBits(); n != 8 && n != 16 && n != 32 && n != 64 {
		return 0, errors.Wrap(ErrUnrepresentableSize, "%v: %d bits", dt, n)
	}

	return pack(f, math.Float64bits(v), r), nil
}

const (
	f64Mbits = 52
	f64Ebits = 11
	f64Bias  = 1023
)

func pack(f adt.Format, b uint64, r Rounding) uint64 {
	sign := b >> 63
	exp := int(b>>f64Mbits) & (1<<f64Ebits - 1)
	mant := b & mask(f64Mbits)

	if f.Ebits == f64Ebits && f.Mbits == f64Mbits {
		return b
	}

	var sbit uint64
	if f.Sign {
		sbit = sign << (f.Ebits + f.Mbits)
	}

	emax := 1<<f.Ebits - 1
	drop := f64Mbits - f.Mbits

	switch {
	case exp == 1<<f64Ebits-1:
		// Inf stays Inf, NaN stays quiet NaN.
		m := mant >> drop
		if mant != 0 {
			m |= 1 << (f.Mbits - 1)
		}
		return sbit | uint64(emax)<<f.Mbits | m
	case exp == 0 && mant == 0:
		return sbit
	}

	e := exp - f64Bias + f.Bias()

	if e >= emax {
		return sbit | uint64(emax)<<f.Mbits
	}

	if e <= 0 {
		// Subnormal in the target layout: restore the implicit bit and shift
		// it into the mantissa field.
		if exp == 0 {
			return sbit
		}

		shift := drop + 1 - e
		if shift > 63 {
			return sbit
		}

		return sbit | narrow(mant|1<<f64Mbits, shift, r)
	}

	// The carry out of a rounded-up mantissa increments the exponent,
	// possibly up to Inf.
	return sbit | (uint64(e)<<f.Mbits + narrow(mant, drop, r))
}

func narrow(m uint64, shift int, r Rounding) uint64 {
	if shift <= 0 {
		return m << -shift
	}

	q := m >> shift

	if r == NearestEven {
		rem := m & mask(shift)
		half := uint64(1) << (shift - 1)

		if rem > half || rem == half && q&1 == 1 {
			q++
		}
	}

	return q
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<bits - 1
}

func asUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case int:
		return uint64(x), true
	case int8:
		return uint64(x), true
	case int16:
		return uint64(x), true
	case int32:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}

func isNegative(v any) bool {
	switch x := v.(type) {
	case int:
		return x < 0
	case int8:
		return x < 0
	case int16:
		return x < 0
	case int32:
		return x < 0
	case int64:
		return x < 0
	}
	return false
}

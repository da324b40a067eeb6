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

package adt

import "tlog.app/go/errors"

// Format describes the bit layout of a floating-point type:
// sign (1 bit, when Sign is set) | exponent (Ebits) | mantissa (Mbits).
type Format struct {
	Ebits int
	Mbits int
	Sign  bool
}

// TotalBits returns the number of bits the layout occupies.
func (f Format) TotalBits() int {
	n := f.Ebits + f.Mbits
	if f.Sign {
		n++
	}
	return n
}

// Bias returns the exponent bias.
func (f Format) Bias() int {
	return 1<<(f.Ebits-1) - 1
}

var formats = map[Type]Format{
	FP8E4M3: {4, 3, true},
	FP8E5M2: {5, 2, true},
	BF16:    {8, 7, true},
	FP16:    {5, 10, true},
	TF32:    {8, 23, true},
	FP32:    {8, 23, true},
	FP64:    {11, 52, true},
	FP128:   {15, 113, true},
}

// FormatOf returns the float layout of t.
func FormatOf(t Type) (Format, error) {
	f, ok := formats[t]
	if !ok {
		return Format{}, errors.Wrap(ErrInvalidType, "%v is not a float type", t)
	}
	return f, nil
}

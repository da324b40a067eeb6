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

package x86

import (
	"fmt"

	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm"
	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

const (
	numKregs = 8

	// gatherMask is the opmask register gathers and scatters consume.
	gatherMask = 1
)

// AVX512 is the AVX-512F backend. FP16 packed arithmetic needs AVX512-FP16
// and is published only when enabled.
type AVX512 struct {
	avxCore

	fp16 bool
}

// NewAVX512 returns the zmm backend, with the ph triples when fp16 is set.
func NewAVX512(fp16 bool) *AVX512 {
	triples := avxTriples
	if fp16 {
		triples = append(append([]adt.Triple{}, avxTriples...), adt.Same(adt.FP16))
	}

	v := &AVX512{fp16: fp16}
	v.init("avx512", 64, 32, triples)

	return v
}

// HasFP16 reports whether FP16 triples are published.
func (v *AVX512) HasFP16() bool { return v.fp16 }

// NewTracker adds the opmask registers. k0 cannot predicate and k1 belongs
// to gathers, so neither is handed out.
func (v *AVX512) NewTracker() *reg.Tracker {
	rt := v.avxCore.NewTracker()
	_ = rt.AddClass(reg.Pred, numKregs)
	_ = rt.Withhold(reg.Pred, 0, gatherMask)
	return rt
}

// indexed returns the gather/scatter mnemonic stem and the register names of
// the index and data operands for dt lanes with it offsets.
func (v *AVX512) indexed(op string, idx, r reg.Reg, dt adt.Type, it adt.IndexType) (string, string, string, error) {
	if err := v.check(r, dt); err != nil {
		return "", "", "", err
	}
	if err := checkClass(idx, reg.Vec, v.nvregs); err != nil {
		return "", "", "", err
	}
	if idx.Idx == r.Idx {
		return "", "", "", errors.Wrap(asm.ErrBadOperand, "%s: index and data share %v", op, r)
	}

	var (
		width     string
		ilet, dlt = "z", "z"
	)

	switch {
	case dt.Size() == 4 && it == adt.INT32:
		width = "d"
	case dt.Size() == 4 && it == adt.INT64:
		width, dlt = "q", "y"
	case dt.Size() == 8 && it == adt.INT32:
		width, ilet = "d", "y"
	case dt.Size() == 8 && it == adt.INT64:
		width = "q"
	default:
		return "", "", "", errors.Wrap(asm.ErrUnsupportedType, "%v %s with %v offsets", dt, op, it)
	}

	var mn string
	if dt.IsFloat() {
		mn = fmt.Sprintf("v%s%s%s", op, width, packedSuffix(dt))
	} else {
		mn = fmt.Sprintf("vp%s%s%s", op, width, map[int]string{4: "d", 8: "q"}[dt.Size()])
	}

	return mn, pct(fmt.Sprintf("%smm%d", ilet, idx.Idx)), pct(fmt.Sprintf("%smm%d", dlt, r.Idx)), nil
}

func (v *AVX512) mask() (string, string) {
	v.Scratch(reg.P(gatherMask))

	k := pct(fmt.Sprintf("k%d", gatherMask))

	return fmt.Sprintf("kxnorw %s,%s,%s", k, k, k), "%{" + k + "%}"
}

// LoadVectorGather loads lanes from base plus the byte offsets in idx.
func (v *AVX512) LoadVectorGather(base, idx, r reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	mn, ix, dx, err := v.indexed("gather", idx, r, dt, it)
	if err != nil {
		return "", err
	}

	set, k := v.mask()

	return v.Lines(
		set,
		fmt.Sprintf("%s (%s,%s,1),%s%s", mn, g(base), ix, dx, k),
	), nil
}

// StoreVectorScatter stores lanes to base plus the byte offsets in idx.
func (v *AVX512) StoreVectorScatter(base, idx, r reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	mn, ix, dx, err := v.indexed("scatter", idx, r, dt, it)
	if err != nil {
		return "", err
	}

	set, k := v.mask()

	return v.Lines(
		set,
		fmt.Sprintf("%s %s,(%s,%s,1)%s", mn, dx, g(base), ix, k),
	), nil
}
